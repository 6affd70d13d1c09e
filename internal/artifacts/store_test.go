package artifacts_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"hlsenc/internal/artifacts"
	"hlsenc/internal/services"
)

func TestNaming(t *testing.T) {
	store, err := artifacts.New(artifacts.Options{OutputDir: "/tmp/out"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := store.ManifestPath("clip1"); got != "/tmp/out/clip1.m3u8" {
		t.Fatalf("unexpected manifest path %q", got)
	}
	if got := store.SegmentPath("clip1", 0); got != "/tmp/out/clip1000.ts" {
		t.Fatalf("unexpected segment path %q", got)
	}
	if got := store.IntermediatePath("clip1", "x264"); got != "/tmp/out/clip1_x264.mp4" {
		t.Fatalf("unexpected intermediate path %q", got)
	}
	if got := store.Intermediate("clip1", "aac").Path(); got != "/tmp/out/clip1_aac.mp4" {
		t.Fatalf("unexpected intermediate path %q", got)
	}
}

func TestTempDirHoldsIntermediates(t *testing.T) {
	base := t.TempDir()
	store, err := artifacts.New(artifacts.Options{OutputDir: filepath.Join(base, "out"), TempDir: filepath.Join(base, "scratch")})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := store.IntermediatePath("a", "x264"); got != filepath.Join(base, "scratch", "a_x264.mp4") {
		t.Fatalf("unexpected intermediate path %q", got)
	}
	if got := store.ManifestPath("a"); got != filepath.Join(base, "out", "a.m3u8") {
		t.Fatalf("unexpected manifest path %q", got)
	}
	if err := store.Ensure(); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	for _, dir := range []string{store.OutputDir(), store.TempDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
	}
}

func TestRelativeOutputDirIsResolved(t *testing.T) {
	chdir(t, t.TempDir())
	store, err := artifacts.New(artifacts.Options{OutputDir: "-out"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !filepath.IsAbs(store.OutputDir()) {
		t.Fatalf("expected absolute output dir, got %q", store.OutputDir())
	}
}

func TestNewRequiresOutputDir(t *testing.T) {
	if _, err := artifacts.New(artifacts.Options{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	store, err := artifacts.New(artifacts.Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Ensure(); err != nil {
			t.Fatalf("Ensure #%d returned error: %v", i+1, err)
		}
	}
}

func TestReleaseDeletesOnce(t *testing.T) {
	store, err := artifacts.New(artifacts.Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	inter := store.Intermediate("clip", "x264")
	if err := os.WriteFile(inter.Path(), []byte("data"), 0o644); err != nil {
		t.Fatalf("write intermediate: %v", err)
	}
	if err := inter.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if _, err := os.Stat(inter.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected intermediate removed, got %v", err)
	}

	// A file recreated at the same path after release is not touched again.
	if err := os.WriteFile(inter.Path(), []byte("new"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := inter.Release(); err != nil {
		t.Fatalf("second Release returned error: %v", err)
	}
	if _, err := os.Stat(inter.Path()); err != nil {
		t.Fatalf("expected second release to be a no-op, got %v", err)
	}
}

func TestReleaseMissingFileIsNotAnError(t *testing.T) {
	store, err := artifacts.New(artifacts.Options{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := store.Intermediate("never", "aac").Release(); err != nil {
		t.Fatalf("expected nil for missing intermediate, got %v", err)
	}
}

func TestReleaseReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission-based failure requires a non-root POSIX user")
	}
	dir := t.TempDir()
	store, err := artifacts.New(artifacts.Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	inter := store.Intermediate("locked", "x264")
	if err := os.WriteFile(inter.Path(), []byte("data"), 0o644); err != nil {
		t.Fatalf("write intermediate: %v", err)
	}
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err = inter.Release()
	if !errors.Is(err, services.ErrCleanupFailed) {
		t.Fatalf("expected ErrCleanupFailed, got %v", err)
	}
	if again := inter.Release(); again != err {
		t.Fatalf("expected the first outcome to be returned again, got %v", again)
	}
}

func TestSegmentsFollowManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := artifacts.New(artifacts.Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	// episode10 shares episode1's prefix; episode1003.ts is left from an older run.
	for _, name := range []string{"episode1000.ts", "episode1001.ts", "episode1003.ts", "episode10000.ts", "episode10001.ts", "episode10002.ts"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	manifests := map[string]string{
		"episode1":  "#EXTM3U\n#EXT-X-TARGETDURATION:5\n#EXTINF:5.0,\nepisode1000.ts\n#EXTINF:2.5,\nepisode1001.ts\n#EXT-X-ENDLIST\n",
		"episode10": "#EXTM3U\n#EXTINF:5.0,\nepisode10000.ts\n#EXTINF:5.0,\nepisode10001.ts\n\n#EXTINF:1.0,\nepisode10002.ts\n",
	}
	for name, body := range manifests {
		if err := os.WriteFile(store.ManifestPath(name), []byte(body), 0o644); err != nil {
			t.Fatalf("write manifest %s: %v", name, err)
		}
	}

	tests := map[string][]string{
		"episode1":  {"episode1000.ts", "episode1001.ts"},
		"episode10": {"episode10000.ts", "episode10001.ts", "episode10002.ts"},
	}
	for name, files := range tests {
		segments, err := store.Segments(name)
		if err != nil {
			t.Fatalf("Segments(%q) returned error: %v", name, err)
		}
		want := make([]string, 0, len(files))
		for _, f := range files {
			want = append(want, filepath.Join(dir, f))
		}
		if !slices.Equal(segments, want) {
			t.Fatalf("Segments(%q) = %v, want %v", name, segments, want)
		}
	}
}

func TestSegmentsRequiresManifest(t *testing.T) {
	dir := t.TempDir()
	store, err := artifacts.New(artifacts.Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip1000.ts"), nil, 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
	if _, err := store.Segments("clip1"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected missing manifest error, got %v", err)
	}
}

// chdir stands in for t.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			panic("testing: chdir back: " + err.Error())
		}
	})
}
