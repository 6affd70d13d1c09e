package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"

	"hlsenc/internal/encoding"
	"hlsenc/internal/logging"
	"hlsenc/internal/textutil"
)

// LockFileName is created in the output directory while a batch runs.
const LockFileName = ".hlsenc.lock"

// DefaultExtensions lists the input containers a batch picks up.
var DefaultExtensions = []string{".avi", ".m4v", ".mkv", ".mov", ".mp4", ".mpg", ".ts", ".webm", ".wmv"}

// ErrLocked reports another batch already writing to the output directory.
var ErrLocked = errors.New("output directory is locked by another batch")

// Encoder is the subset of encoding.Router a batch drives.
type Encoder interface {
	AutoEncode(ctx context.Context, input, name, outputDir string) (encoding.Result, error)
}

// Job pairs an input with the rendition name it will be written under.
type Job struct {
	Input string
	Name  string
}

// Item is the outcome of one job.
type Item struct {
	Job
	Result encoding.Result
	Err    error
}

// Summary aggregates a batch run.
type Summary struct {
	Items     []Item
	Succeeded int
	Failed    int
}

// Discover lists regular files in dir whose extension (case-insensitive) is in
// extensions, sorted by path. Subdirectories are walked when recursive is set.
func Discover(dir string, extensions []string, recursive bool) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	var inputs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; ok {
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover inputs: %w", err)
	}
	slices.Sort(inputs)
	return inputs, nil
}

// Plan assigns each input a rendition name derived from its file name. Names
// already used in this plan, or by a manifest or intermediate already present
// in outputDir, get a numeric suffix.
func Plan(inputs []string, outputDir string) []Job {
	used := make(map[string]struct{}, len(inputs))
	taken := func(name string) bool {
		if _, ok := used[name]; ok {
			return true
		}
		return exists(filepath.Join(outputDir, name+".m3u8"))
	}
	jobs := make([]Job, 0, len(inputs))
	for _, input := range inputs {
		name := textutil.UniqueName(textutil.RenditionName(input), taken)
		used[name] = struct{}{}
		jobs = append(jobs, Job{Input: input, Name: name})
	}
	return jobs
}

// Run encodes each job in order while holding an exclusive lock on
// outputDir. A failed job does not stop the batch; cancellation does.
func Run(ctx context.Context, enc Encoder, jobs []Job, outputDir string, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "batch")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output directory: %w", err)
	}
	lockPath := filepath.Join(outputDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Debug("batch lock release failed", logging.Error(err))
		}
		_ = os.Remove(lockPath)
	}()

	var summary Summary
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger.Info("batch item started",
			logging.String(logging.FieldEventType, "batch_item_start"),
			logging.Int("index", i+1),
			logging.Int("total", len(jobs)),
			logging.String("input", job.Input),
			logging.String("name", job.Name),
		)
		result, err := enc.AutoEncode(ctx, job.Input, job.Name, outputDir)
		summary.Items = append(summary.Items, Item{Job: job, Result: result, Err: err})
		if err != nil {
			summary.Failed++
			logging.WarnWithContext(logger, "batch item failed", "batch_item_failure",
				logging.String("input", job.Input),
				logging.String(logging.FieldImpact, "rendition skipped; batch continues"),
				logging.Error(err),
			)
			continue
		}
		summary.Succeeded++
	}
	return summary, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
