package devenv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	plain, err := ResolvePath("results/out.csv")
	require.NoError(t, err)
	require.Equal(t, "results/out.csv", plain)

	resolved, err := ResolvePath("<dev_state>/page_cache")
	require.NoError(t, err)
	require.Equal(t, "page_cache", filepath.Base(resolved))
	require.True(t, filepath.IsAbs(resolved))
}

func TestGetWorkspaceRoot(t *testing.T) {
	root, err := GetWorkspaceRoot()
	require.NoError(t, err)
	require.True(t, isWorkspaceRoot(root))
}
