package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hlsenc/internal/config"
	"hlsenc/internal/encoding"
	"hlsenc/internal/history"
	"hlsenc/internal/logging"
	"hlsenc/internal/media/ffprobe"
	"hlsenc/internal/metrics"
	"hlsenc/internal/presets"
	"hlsenc/internal/services"
	"hlsenc/internal/stageexec"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// runner is swapped in tests; nil means os/exec.
	runner services.CommandRunner
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) commandRunner() services.CommandRunner {
	if c.runner != nil {
		return c.runner
	}
	return services.ExecRunner{}
}

func (c *commandContext) catalog(cfg *config.Config) presets.Catalog {
	return presets.New(presets.Options{
		VideoEncoder: cfg.Encoder.VideoEncoder,
		AudioEncoder: cfg.Encoder.AudioEncoder,
	})
}

func (c *commandContext) prober(cfg *config.Config) *ffprobe.Client {
	return ffprobe.New(cfg.FFprobeBinary(),
		ffprobe.WithRunner(c.commandRunner()),
		ffprobe.WithCatalog(c.catalog(cfg)),
	)
}

// pipeline bundles a router with the resources it holds open.
type pipeline struct {
	router   *encoding.Router
	history  *history.Store
	registry *metrics.Registry
	cfg      *config.Config
	logger   *slog.Logger
}

func (c *commandContext) newPipeline() (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	p := &pipeline{cfg: cfg, logger: logger}
	opts := encoding.Options{
		Prober:  c.prober(cfg),
		TempDir: cfg.Paths.TempDir,
		Logger:  logger,
	}
	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		p.registry = metrics.New()
		recorder = p.registry
		opts.Metrics = p.registry
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		p.history = store
		opts.History = store
	}
	opts.Stages = stageexec.New(stageexec.Options{
		Binary:   cfg.FFmpegBinary(),
		TempDir:  cfg.Paths.TempDir,
		Timeout:  cfg.StageTimeout(),
		Catalog:  c.catalog(cfg),
		Runner:   c.commandRunner(),
		Logger:   logger,
		Recorder: recorder,
	})
	p.router = encoding.New(opts)
	return p, nil
}

// Close flushes metrics and closes the history ledger.
func (p *pipeline) Close() error {
	var errs []error
	if p.registry != nil {
		if err := p.registry.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if p.history != nil {
		if err := p.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
