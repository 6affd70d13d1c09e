package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hlsenc/internal/artifacts"
	"hlsenc/internal/logging"
	"hlsenc/internal/metrics"
	"hlsenc/internal/presets"
	"hlsenc/internal/services"
)

// Intermediate suffixes produced by the transcode stages.
const (
	AudioSuffix = "aac"
	VideoSuffix = "x264"
)

// StageError reports a stage whose tool wrote diagnostics or exited non-zero.
type StageError struct {
	Stage      presets.ID
	Diagnostic string
	Err        error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", Label(e.Stage), e.Diagnostic)
	}
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Options configures an Executor.
type Options struct {
	Binary   string
	TempDir  string
	Timeout  time.Duration
	Catalog  presets.Catalog
	Runner   services.CommandRunner
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Executor runs the ffmpeg-backed pipeline stages.
type Executor struct {
	binary   string
	tempDir  string
	timeout  time.Duration
	catalog  presets.Catalog
	runner   services.CommandRunner
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New constructs an executor. Zero-valued options fall back to the ffmpeg on
// PATH, the default catalog, os/exec, a no-op logger and no timeout.
func New(opts Options) *Executor {
	e := &Executor{
		binary:   strings.TrimSpace(opts.Binary),
		tempDir:  strings.TrimSpace(opts.TempDir),
		timeout:  opts.Timeout,
		catalog:  opts.Catalog,
		runner:   opts.Runner,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
	if e.binary == "" {
		e.binary = string(presets.FFmpeg)
	}
	if e.catalog == nil {
		e.catalog = presets.Default()
	}
	if e.runner == nil {
		e.runner = services.ExecRunner{}
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = logging.NewComponentLogger(e.logger, "stageexec")
	if e.recorder == nil {
		e.recorder = metrics.Nop{}
	}
	if e.timeout < 0 {
		e.timeout = 0
	}
	return e
}

// TranscodeAudio re-encodes the audio of input to AAC and copies the video.
// It returns the path of the intermediate it wrote.
func (e *Executor) TranscodeAudio(ctx context.Context, outputDir, name, input string) (string, error) {
	return e.transcode(ctx, presets.TranscodeToAAC, AudioSuffix, outputDir, name, input)
}

// TranscodeVideo re-encodes the video of input to H.264 and copies the audio.
// It returns the path of the intermediate it wrote.
func (e *Executor) TranscodeVideo(ctx context.Context, outputDir, name, input string) (string, error) {
	return e.transcode(ctx, presets.TranscodeToH264, VideoSuffix, outputDir, name, input)
}

// SegmentToHLS splits input into five-second segments plus a live-flagged
// manifest sharing the {outputDir}/{name} prefix. The returned duration
// covers the segmentation invocation only.
func (e *Executor) SegmentToHLS(ctx context.Context, outputDir, name, input string) (time.Duration, error) {
	store, err := e.store(outputDir)
	if err != nil {
		return 0, err
	}
	return e.RunStage(ctx, presets.SegmentToHLS, presets.Bindings{
		Input:        input,
		OutputPrefix: store.HLSPrefix(name),
	})
}

func (e *Executor) transcode(ctx context.Context, id presets.ID, suffix, outputDir, name, input string) (string, error) {
	store, err := e.store(outputDir)
	if err != nil {
		return "", err
	}
	output := store.IntermediatePath(name, suffix)
	if _, err := e.RunStage(ctx, id, presets.Bindings{Input: input, Output: output}); err != nil {
		return "", err
	}
	return output, nil
}

func (e *Executor) store(outputDir string) (*artifacts.Store, error) {
	return artifacts.New(artifacts.Options{OutputDir: outputDir, TempDir: e.tempDir})
}

// RunStage executes one catalog preset with the supplied bindings and returns
// the wall-clock time of the tool invocation. Any stderr output is a failure,
// whatever the exit status.
func (e *Executor) RunStage(ctx context.Context, id presets.ID, bindings presets.Bindings) (time.Duration, error) {
	if !e.catalog.IsValid(id) {
		return 0, services.Wrap(services.ErrValidation, string(id), "load preset", "unknown preset", nil)
	}
	tpl, err := e.catalog.Template(id)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, string(id), "load preset", "", err)
	}
	if tpl.Tool != presets.FFmpeg {
		return 0, services.Wrap(services.ErrValidation, string(id), "load preset", "not an ffmpeg stage", nil)
	}
	args, err := tpl.Build(bindings)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, string(id), "build command", "", err)
	}

	stageCtx := services.WithStage(ctx, string(id))
	logger := logging.WithContext(stageCtx, e.logger)
	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("stage_label", Label(id)),
		logging.String("input", bindings.Input),
		logging.String("output", firstNonEmpty(bindings.Output, bindings.OutputPrefix)),
	)

	runCtx := stageCtx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(stageCtx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	out, runErr := e.runner.Run(runCtx, e.binary, args)
	elapsed := time.Since(start)

	if stageErr := classify(id, e.binary, out, runErr); stageErr != nil {
		e.recorder.ObserveStage(string(id), elapsed, true)
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldErrorHint, "inspect the ffmpeg diagnostic and the input file"),
			logging.String("stage_label", Label(id)),
			logging.Int("exit_code", out.ExitCode),
			logging.String("diagnostic", stageErr.Diagnostic),
			logging.Duration("elapsed", elapsed),
			logging.Error(stageErr),
		)
		return elapsed, stageErr
	}

	e.recorder.ObserveStage(string(id), elapsed, false)
	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("stage_label", Label(id)),
		logging.Duration("elapsed", elapsed),
	)
	return elapsed, nil
}

func classify(id presets.ID, binary string, out services.CommandOutput, runErr error) *StageError {
	diagnostic := strings.TrimSpace(string(out.Stderr))
	switch {
	case runErr != nil:
		message := diagnostic
		if errors.Is(runErr, context.DeadlineExceeded) && message == "" {
			message = "stage timed out"
		}
		return &StageError{
			Stage:      id,
			Diagnostic: diagnostic,
			Err:        services.Wrap(services.ErrStageFailed, string(id), "run "+binary, message, runErr),
		}
	case diagnostic != "":
		return &StageError{
			Stage:      id,
			Diagnostic: diagnostic,
			Err:        services.Wrap(services.ErrStageFailed, string(id), "run "+binary, diagnostic, nil),
		}
	case out.ExitCode != 0:
		return &StageError{
			Stage: id,
			Err:   services.Wrap(services.ErrStageFailed, string(id), "run "+binary, fmt.Sprintf("exit status %d", out.ExitCode), nil),
		}
	}
	return nil
}

var labelCaser = cases.Title(language.English)

// Label renders a preset id for humans, e.g. "Transcode To Aac".
func Label(id presets.ID) string {
	if id == "" {
		return ""
	}
	return labelCaser.String(strings.ReplaceAll(string(id), "-", " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
