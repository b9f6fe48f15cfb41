package devenv

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const StatePrefix = "<dev_state>"

var modName = regexp.MustCompile(`(?m)^module *([\w\-_./]+)$`)

func isWorkspaceRoot(currentdir string) bool {
	mod, err := os.ReadFile(filepath.Join(currentdir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == "corde-harvester"
}

func GetWorkspaceRoot() (string, error) {
	currentdir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs("/")
	if err != nil {
		return "", err
	}

	for currentdir != root {
		if isWorkspaceRoot(currentdir) {
			return currentdir, nil
		}
		currentdir = filepath.Join(currentdir, "..")
	}

	return "", os.ErrNotExist
}

// ResolvePath expands a leading "<dev_state>" into dev/.state under the
// workspace root, any other path is returned unchanged.
//
// When the workspace root cannot be found (ex. an installed binary run
// outside the repository) the state directory falls back to the user cache
// directory.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, StatePrefix) {
		return path, nil
	}

	base, err := stateDir()
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(base, 0777)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimPrefix(path, StatePrefix)
	subpath = strings.TrimLeft(subpath, `/\`)
	return filepath.Join(base, filepath.FromSlash(subpath)), nil
}

func stateDir() (string, error) {
	root, err := GetWorkspaceRoot()
	if err == nil {
		return filepath.Join(root, "dev", ".state"), nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "corde-harvester"), nil
}
