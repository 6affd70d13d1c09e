package encoding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"hlsenc/internal/artifacts"
	"hlsenc/internal/history"
	"hlsenc/internal/logging"
	"hlsenc/internal/media/ffprobe"
	"hlsenc/internal/metrics"
	"hlsenc/internal/presets"
	"hlsenc/internal/services"
	"hlsenc/internal/stageexec"
)

// Stages runs the individual transcode and segmentation stages.
type Stages interface {
	TranscodeAudio(ctx context.Context, outputDir, name, input string) (string, error)
	TranscodeVideo(ctx context.Context, outputDir, name, input string) (string, error)
	SegmentToHLS(ctx context.Context, outputDir, name, input string) (time.Duration, error)
}

// HistoryRecorder persists the outcome of each run.
type HistoryRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Options configures a Router. TempDir must match the directory the Stages
// implementation writes intermediates to.
type Options struct {
	Prober   ffprobe.Prober
	Stages   Stages
	TempDir  string
	Logger   *slog.Logger
	Metrics  metrics.Recorder
	History  HistoryRecorder
	NewRunID func() string
}

// Router probes an input, selects a route and drives the stages.
//
// Calls for different inputs may run concurrently. Nothing prevents two calls
// from sharing an output directory and name; callers must keep names unique.
type Router struct {
	prober   ffprobe.Prober
	stages   Stages
	tempDir  string
	logger   *slog.Logger
	metrics  metrics.Recorder
	history  HistoryRecorder
	newRunID func() string
}

// Result describes a finished run. Elapsed covers the segmentation stage
// only. CleanupErrors lists intermediates that could not be removed; they do
// not turn a successful run into a failure.
type Result struct {
	RunID         string
	Route         Route
	Elapsed       time.Duration
	Manifest      string
	Segments      []string
	CleanupErrors []error
}

// Seconds returns the segmentation time in seconds.
func (r Result) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// New constructs a router. A nil Prober or Stages falls back to the ffprobe
// and ffmpeg found on PATH.
func New(opts Options) *Router {
	r := &Router{
		prober:   opts.Prober,
		stages:   opts.Stages,
		tempDir:  strings.TrimSpace(opts.TempDir),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		history:  opts.History,
		newRunID: opts.NewRunID,
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	r.logger = logging.NewComponentLogger(r.logger, "encoding")
	if r.prober == nil {
		r.prober = ffprobe.New("")
	}
	if r.stages == nil {
		r.stages = stageexec.New(stageexec.Options{TempDir: r.tempDir, Logger: opts.Logger, Recorder: opts.Metrics})
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop{}
	}
	if r.newRunID == nil {
		r.newRunID = uuid.NewString
	}
	return r
}

// AutoEncode converts input into {outputDir}/{name}.m3u8 plus numbered
// segments. It fails without side effects when input is not an existing
// regular file.
func (r *Router) AutoEncode(ctx context.Context, input, name, outputDir string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := Result{RunID: r.newRunID()}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if err := validateName(name); err != nil {
		r.metrics.ObserveRun("", services.FailureKind(err))
		return result, err
	}
	if err := checkInput(input); err != nil {
		r.metrics.ObserveRun("", services.FailureKind(err))
		logger.Warn("input unavailable",
			logging.String(logging.FieldEventType, "input_missing"),
			logging.String(logging.FieldErrorHint, "check the input path"),
			logging.String(logging.FieldImpact, "nothing was encoded"),
			logging.String("input", input),
			logging.Error(err),
		)
		return result, err
	}
	store, err := artifacts.New(artifacts.Options{OutputDir: outputDir, TempDir: r.tempDir})
	if err != nil {
		r.metrics.ObserveRun("", services.FailureKind(err))
		return result, err
	}

	started := time.Now()
	logger.Info("encode started",
		logging.String(logging.FieldEventType, "encode_start"),
		logging.String("input", input),
		logging.String("name", name),
		logging.String("output_dir", store.OutputDir()),
	)
	err = r.execute(ctx, logger, store, input, name, &result)
	r.finish(ctx, logger, store, input, name, started, &result, err)
	return result, err
}

func (r *Router) execute(ctx context.Context, logger *slog.Logger, store *artifacts.Store, input, name string, result *Result) error {
	if err := store.Ensure(); err != nil {
		return services.Wrap(services.ErrConfiguration, "artifacts", "prepare output directory", "", err)
	}

	probe, err := r.prober.Probe(ctx, input)
	if err != nil {
		if !errors.Is(err, services.ErrProbeUnavailable) {
			err = services.Wrap(services.ErrProbeUnavailable, "probe", "inspect input", "", err)
		}
		return err
	}

	route := SelectRoute(probe)
	result.Route = route
	logger.Info("route selected", logging.Args(append(
		[]logging.Attr{logging.String(logging.FieldEventType, "route_selected")},
		logging.RouteAttrs(probe.VideoCodec(), probe.AudioCodec(), route.Strings())...,
	)...)...)

	var intermediates []*artifacts.Intermediate
	defer func() {
		for _, intermediate := range intermediates {
			if err := intermediate.Release(); err != nil {
				result.CleanupErrors = append(result.CleanupErrors, err)
				logging.WarnWithContext(logger, "intermediate cleanup failed", "cleanup_failed",
					logging.String("path", intermediate.Path()),
					logging.String(logging.FieldErrorHint, "remove the file manually"),
					logging.String(logging.FieldImpact, "intermediate left on disk"),
					logging.Error(err),
				)
				continue
			}
			logger.Debug("intermediate released", logging.String("path", intermediate.Path()))
		}
	}()

	current := input
	for _, stage := range route {
		switch stage {
		case presets.TranscodeToAAC, presets.TranscodeToH264:
			suffix, run := stageexec.AudioSuffix, r.stages.TranscodeAudio
			if stage == presets.TranscodeToH264 {
				suffix, run = stageexec.VideoSuffix, r.stages.TranscodeVideo
			}
			intermediate := store.Intermediate(name, suffix)
			if samePath(intermediate.Path(), input) {
				return services.Wrap(services.ErrValidation, string(stage), "plan intermediate",
					fmt.Sprintf("intermediate %s would replace the input", intermediate.Path()), nil)
			}
			// A file already at the intermediate path belongs to someone else;
			// ffmpeg -n would refuse it and the release must not delete it.
			if _, err := os.Lstat(intermediate.Path()); err == nil {
				return services.Wrap(services.ErrValidation, string(stage), "plan intermediate",
					fmt.Sprintf("intermediate %s already exists", intermediate.Path()), nil)
			}
			// Registered before the stage runs so a partial file is removed too.
			intermediates = append(intermediates, intermediate)
			path, err := run(ctx, store.OutputDir(), name, current)
			if err != nil {
				return err
			}
			if path != intermediate.Path() {
				intermediates = append(intermediates, artifacts.Track(path))
			}
			current = path
		case presets.SegmentToHLS:
			elapsed, err := r.stages.SegmentToHLS(ctx, store.OutputDir(), name, current)
			if err != nil {
				return err
			}
			result.Elapsed = elapsed
		default:
			return services.Wrap(services.ErrValidation, string(stage), "run route", "unsupported stage", nil)
		}
	}

	result.Manifest = store.ManifestPath(name)
	segments, err := store.Segments(name)
	if err != nil {
		logger.Debug("segment listing failed", logging.Error(err))
	}
	result.Segments = segments
	return nil
}

func (r *Router) finish(ctx context.Context, logger *slog.Logger, store *artifacts.Store, input, name string, started time.Time, result *Result, err error) {
	kind := services.FailureKind(err)
	outcome := history.OutcomeSucceeded
	if err != nil {
		outcome = history.OutcomeFailed
		r.metrics.ObserveRun(result.Route.String(), kind)
		logging.ErrorWithContext(logger, "encode failed", "encode_failure",
			logging.String("failure_kind", kind),
			logging.String("route", result.Route.String()),
			logging.Error(err),
		)
	} else {
		r.metrics.ObserveRun(result.Route.String(), string(history.OutcomeSucceeded))
		logger.Info("encode completed",
			logging.String(logging.FieldEventType, "encode_complete"),
			logging.String("route", result.Route.String()),
			logging.Duration("segment_elapsed", result.Elapsed),
			logging.String("manifest", result.Manifest),
			logging.Int("segment_count", len(result.Segments)),
			logging.Int("cleanup_errors", len(result.CleanupErrors)),
		)
	}

	if r.history == nil {
		return
	}
	run := history.Run{
		ID:          result.RunID,
		Input:       input,
		Name:        name,
		OutputDir:   store.OutputDir(),
		Route:       result.Route.Strings(),
		Outcome:     outcome,
		FailureKind: kind,
		Elapsed:     result.Elapsed,
		Manifest:    result.Manifest,
		Segments:    len(result.Segments),
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if err != nil {
		run.Error = err.Error()
	}
	if recErr := r.history.Record(context.WithoutCancel(ctx), run); recErr != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_record_failed",
			logging.String(logging.FieldErrorHint, "check the history database path"),
			logging.String(logging.FieldImpact, "run missing from hlsenc history"),
			logging.Error(recErr),
		)
	}
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return services.Wrap(services.ErrValidation, "encode", "validate name", "name required", nil)
	case trimmed != name:
		return services.Wrap(services.ErrValidation, "encode", "validate name", "name has surrounding whitespace", nil)
	case name == "." || name == "..":
		return services.Wrap(services.ErrValidation, "encode", "validate name", "name must not be a directory reference", nil)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return services.Wrap(services.ErrValidation, "encode", "validate name", "name must not contain path separators", nil)
	case strings.ContainsRune(name, '%'):
		// The name becomes part of ffmpeg's segment filename pattern.
		return services.Wrap(services.ErrValidation, "encode", "validate name", "name must not contain %", nil)
	}
	return nil
}

func checkInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return services.Wrap(services.ErrInputMissing, "encode", "check input", "input path required", nil)
	}
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrInputMissing, "encode", "check input", input, nil)
		}
		return services.Wrap(services.ErrInputMissing, "encode", "check input", input, err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrInputMissing, "encode", "check input", input+" is not a regular file", nil)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
