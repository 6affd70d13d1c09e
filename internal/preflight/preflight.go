package preflight

import (
	"context"
	"fmt"
	"strings"

	"hlsenc/internal/config"
	"hlsenc/internal/deps"
	"hlsenc/internal/services"
)

// MinFreeBytes is the free space required under the output and temp
// directories. Intermediates are full-length transcodes, so this is a floor.
const MinFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes every check for cfg. runner is used for the encoder checks.
func RunAll(ctx context.Context, cfg *config.Config, runner services.CommandRunner) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckWritableDirectory("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.OutputDir, MinFreeBytes))
	if tmp := strings.TrimSpace(cfg.Paths.TempDir); tmp != "" && tmp != cfg.Paths.OutputDir {
		results = append(results, CheckWritableDirectory("Temp directory", tmp))
		results = append(results, CheckFreeSpace("Temp free space", tmp, MinFreeBytes))
	}
	if logDir := strings.TrimSpace(cfg.Paths.LogDir); logDir != "" {
		results = append(results, CheckWritableDirectory("Log directory", logDir))
	}

	if runner != nil {
		results = append(results, CheckEncoders(ctx, runner, cfg.FFmpegBinary(), cfg.Encoder.VideoEncoder, cfg.Encoder.AudioEncoder)...)
	}
	return results
}

// CheckSystemDeps resolves the ffmpeg and ffprobe binaries from cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for transcoding and segmentation",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for codec inspection",
		},
	})
}

// CheckEncoders confirms ffmpeg lists each configured encoder.
func CheckEncoders(ctx context.Context, runner services.CommandRunner, binary string, encoders ...string) []Result {
	results := make([]Result, 0, len(encoders))
	for _, encoder := range encoders {
		encoder = strings.TrimSpace(encoder)
		if encoder == "" {
			continue
		}
		name := "Encoder " + encoder
		ok, err := deps.HasEncoder(ctx, runner, binary, encoder)
		switch {
		case err != nil:
			results = append(results, Result{Name: name, Detail: err.Error()})
		case !ok:
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("not listed by %s -encoders", binary)})
		default:
			results = append(results, Result{Name: name, Passed: true, Detail: "available"})
		}
	}
	return results
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available || status.Optional}
	switch {
	case status.Available:
		result.Detail = status.Path
	case status.Optional:
		result.Detail = status.Detail + " (optional)"
	default:
		result.Detail = status.Detail
	}
	return result
}
