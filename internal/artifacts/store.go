package artifacts

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hlsenc/internal/services"
)

// IntermediateExt is the container used for transcode intermediates.
const IntermediateExt = "mp4"

// Options configures a Store. TempDir is optional; when empty, intermediates
// are written next to the HLS output.
type Options struct {
	OutputDir string
	TempDir   string
}

// Store owns the output directory layout for one rendition target and the
// lifecycle of the intermediates written while producing it. It holds no
// mutable state after construction.
type Store struct {
	outputDir string
	tempDir   string
}

// New resolves the configured directories to absolute paths.
func New(opts Options) (*Store, error) {
	out := strings.TrimSpace(opts.OutputDir)
	if out == "" {
		return nil, services.Wrap(services.ErrValidation, "artifacts", "configure", "output directory required", nil)
	}
	outAbs, err := filepath.Abs(out)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	tempAbs := outAbs
	if tmp := strings.TrimSpace(opts.TempDir); tmp != "" {
		if tempAbs, err = filepath.Abs(tmp); err != nil {
			return nil, fmt.Errorf("resolve temp directory: %w", err)
		}
	}
	return &Store{outputDir: outAbs, tempDir: tempAbs}, nil
}

// OutputDir returns the absolute output directory.
func (s *Store) OutputDir() string { return s.outputDir }

// TempDir returns the absolute directory used for intermediates.
func (s *Store) TempDir() string { return s.tempDir }

// Ensure creates the output and temp directories if absent. Existing
// directories are not an error.
func (s *Store) Ensure() error {
	for _, dir := range []string{s.outputDir, s.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HLSPrefix is the path prefix shared by the manifest and its segments.
func (s *Store) HLSPrefix(name string) string {
	return filepath.Join(s.outputDir, name)
}

// ManifestPath returns {outputDir}/{name}.m3u8.
func (s *Store) ManifestPath(name string) string {
	return s.HLSPrefix(name) + ".m3u8"
}

// SegmentPath returns {outputDir}/{name}NNN.ts for the given index.
func (s *Store) SegmentPath(name string, index int) string {
	return fmt.Sprintf("%s%03d.ts", s.HLSPrefix(name), index)
}

// IntermediatePath returns {tempDir}/{name}_{suffix}.mp4.
func (s *Store) IntermediatePath(name, suffix string) string {
	return filepath.Join(s.tempDir, fmt.Sprintf("%s_%s.%s", name, suffix, IntermediateExt))
}

// Intermediate registers a pipeline-owned intermediate. The file itself is
// produced later by a stage.
func (s *Store) Intermediate(name, suffix string) *Intermediate {
	return &Intermediate{path: s.IntermediatePath(name, suffix)}
}

// Track registers an already-known path as a pipeline-owned intermediate.
func Track(path string) *Intermediate {
	return &Intermediate{path: path}
}

// Segments returns the segment files recorded in name's manifest, in
// playlist order. Entries are resolved against the output directory, so
// files left over from other renditions or earlier runs are never listed.
func (s *Store) Segments(name string) ([]string, error) {
	file, err := os.Open(s.ManifestPath(name))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	var segments []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(s.outputDir, entry)
		}
		segments = append(segments, filepath.Clean(entry))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return segments, nil
}

// Intermediate is a transient file deleted exactly once.
type Intermediate struct {
	path string
	once sync.Once
	err  error
}

// Path returns the intermediate's location.
func (i *Intermediate) Path() string { return i.path }

// Release deletes the intermediate. Only the first call touches the
// filesystem; later calls return the first outcome. A file that was never
// created is not an error.
func (i *Intermediate) Release() error {
	i.once.Do(func() {
		err := os.Remove(i.path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return
		}
		i.err = services.Wrap(services.ErrCleanupFailed, "artifacts", "remove intermediate", i.path, err)
	})
	return i.err
}
