package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.StageTimeoutSeconds < 0 {
		return errors.New("encoder.stage_timeout_seconds must be zero (no timeout) or positive")
	}
	for key, value := range map[string]string{
		"encoder.video_encoder": c.Encoder.VideoEncoder,
		"encoder.audio_encoder": c.Encoder.AudioEncoder,
	} {
		if strings.HasPrefix(value, "-") || strings.ContainsAny(value, " \t") {
			return fmt.Errorf("%s: invalid encoder name %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Textfile) == "" {
		return errors.New("metrics.textfile must be set when metrics.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
