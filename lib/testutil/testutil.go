package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"corde-harvester/lib/telemetry"
)

type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

// CaptureLogs routes the default logger into a buffer at debug level until
// the test ends, the returned func reads what was logged so far.
func CaptureLogs(t testing.TB) func() string {
	previous := slog.Default()
	buf := &syncBuffer{}
	telemetry.InitSlogTo(buf, true)
	t.Cleanup(func() {
		slog.SetDefault(previous)
	})
	return buf.String
}

// WriteFile writes contents to name under dir, creating parent
// directories, and returns the full path.
func WriteFile(t testing.TB, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
	return path
}
