package ffprobe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"hlsenc/internal/presets"
	"hlsenc/internal/services"
)

// Result holds the attributes reported for the first video and first audio
// stream. An empty map means the file has no stream of that kind.
type Result struct {
	Video map[string]string
	Audio map[string]string
}

// Prober reports codec metadata for a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Result, error)
}

// Client runs the probe presets through a command runner.
type Client struct {
	binary  string
	catalog presets.Catalog
	runner  services.CommandRunner
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom command runner (primarily for tests).
func WithRunner(r services.CommandRunner) Option {
	return func(c *Client) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithCatalog overrides the preset catalog.
func WithCatalog(catalog presets.Catalog) Option {
	return func(c *Client) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// New constructs a prober that executes binary (an ffprobe-compatible tool).
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	c := &Client{binary: binary, catalog: presets.Default(), runner: services.ExecRunner{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Probe inspects the first video stream and then the first audio stream.
func (c *Client) Probe(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrProbeUnavailable, "probe", "validate input", "empty path", nil)
	}
	video, err := c.run(ctx, presets.ProbeVideo, path)
	if err != nil {
		return Result{}, err
	}
	audio, err := c.run(ctx, presets.ProbeAudio, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Video: video, Audio: audio}, nil
}

func (c *Client) run(ctx context.Context, id presets.ID, path string) (map[string]string, error) {
	tpl, err := c.catalog.Template(id)
	if err != nil {
		return nil, services.Wrap(services.ErrProbeUnavailable, string(id), "load preset", "", err)
	}
	args, err := tpl.Build(presets.Bindings{Input: path})
	if err != nil {
		return nil, services.Wrap(services.ErrProbeUnavailable, string(id), "build command", "", err)
	}
	out, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		return nil, services.Wrap(services.ErrProbeUnavailable, string(id), "run "+c.binary, "", err)
	}
	if out.ExitCode != 0 {
		detail := strings.TrimSpace(string(out.Stderr))
		if detail == "" {
			detail = fmt.Sprintf("exit status %d", out.ExitCode)
		}
		return nil, services.Wrap(services.ErrProbeUnavailable, string(id), "run "+c.binary, detail, nil)
	}
	fields, err := ParseKeyValues(bytes.NewReader(out.Stdout))
	if err != nil {
		return nil, services.Wrap(services.ErrProbeUnavailable, string(id), "parse output", "", err)
	}
	return fields, nil
}

// ParseKeyValues reads `key=value` lines until EOF. Keys and values are
// trimmed, blank lines skipped, and values may themselves contain '='.
func ParseKeyValues(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("line %d: expected key=value, got %q", lineNo, line)
		}
		fields[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read probe output: %w", err)
	}
	return fields, nil
}

// VideoCodec returns the first video stream's codec_name, or "".
func (r Result) VideoCodec() string { return r.Video["codec_name"] }

// AudioCodec returns the first audio stream's codec_name, or "".
func (r Result) AudioCodec() string { return r.Audio["codec_name"] }

// HasVideo reports whether a video stream was found.
func (r Result) HasVideo() bool { return len(r.Video) > 0 }

// HasAudio reports whether an audio stream was found.
func (r Result) HasAudio() bool { return len(r.Audio) > 0 }

// DurationSeconds returns the video stream duration, 0 when unavailable and
// NaN when present but unparseable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Video["duration"])
}

// Resolution returns the video dimensions, zero when unknown.
func (r Result) Resolution() (int, int) {
	w, _ := strconv.Atoi(strings.TrimSpace(r.Video["width"]))
	h, _ := strconv.Atoi(strings.TrimSpace(r.Video["height"]))
	return w, h
}

// VideoBitRate returns the video bitrate in bits per second, or 0 when unavailable.
func (r Result) VideoBitRate() int64 { return parseRate(r.Video["bit_rate"]) }

// AudioBitRate returns the audio bitrate in bits per second, or 0 when unavailable.
func (r Result) AudioBitRate() int64 { return parseRate(r.Audio["bit_rate"]) }

func parseRate(value string) int64 {
	rate := parseFloat(value)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// ffprobe prints N/A for attributes a stream does not carry.
func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
