package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteInput creates a small placeholder media file at dir/name.
func WriteInput(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("RIFF\x00\x00\x00\x00AVI "), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
