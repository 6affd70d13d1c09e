package testsupport

import (
	"path/filepath"
	"testing"

	"hlsenc/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Output,
// log and history paths live under BaseDir; the temp dir is unset so
// intermediates sit next to the output.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "history.db")
	cfgVal.Tools.FFmpeg = "ffmpeg"
	cfgVal.Tools.FFprobe = "ffprobe"

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTempDir places intermediates in a separate directory under BaseDir.
func WithTempDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.TempDir = filepath.Join(b.baseDir, "tmp")
	}
}

// WithVideoEncoder overrides the H.264 encoder name.
func WithVideoEncoder(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.VideoEncoder = name
	}
}

// WithoutHistory disables the run ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithMetricsTextfile enables metrics export to BaseDir/hlsenc.prom.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Enabled = true
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "hlsenc.prom")
	}
}

// WithStubbedTools writes fake ffmpeg and ffprobe scripts that report the
// given codecs, and points the config at them.
func WithStubbedTools(videoCodec, audioCodec string) ConfigOption {
	return func(b *configBuilder) {
		ffmpeg, ffprobe := WriteStubTools(b.t, filepath.Join(b.baseDir, "bin"), videoCodec, audioCodec)
		b.cfg.Tools.FFmpeg = ffmpeg
		b.cfg.Tools.FFprobe = ffprobe
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
