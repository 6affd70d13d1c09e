package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.TempDir, err = expandPath(strings.TrimSpace(c.Paths.TempDir)); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() error {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = os.Getenv("HLSENC_FFMPEG")
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = os.Getenv("HLSENC_FFPROBE")
	}
	// Bare command names resolve through PATH; anything with a separator is a path.
	for _, tool := range []*string{&c.Tools.FFmpeg, &c.Tools.FFprobe} {
		value := strings.TrimSpace(*tool)
		if strings.ContainsAny(value, `/\`) || strings.HasPrefix(value, "~") {
			expanded, err := expandPath(value)
			if err != nil {
				return fmt.Errorf("tools: %w", err)
			}
			value = expanded
		}
		*tool = value
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.VideoEncoder = strings.TrimSpace(c.Encoder.VideoEncoder)
	if c.Encoder.VideoEncoder == "" {
		c.Encoder.VideoEncoder = defaultVideoEncoder
	}
	c.Encoder.AudioEncoder = strings.TrimSpace(c.Encoder.AudioEncoder)
	if c.Encoder.AudioEncoder == "" {
		c.Encoder.AudioEncoder = defaultAudioEncoder
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
