package presets

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ID names one preset in the catalog.
type ID string

const (
	ProbeVideo      ID = "probe-video"
	ProbeAudio      ID = "probe-audio"
	TranscodeToAAC  ID = "transcode-to-aac"
	TranscodeToH264 ID = "transcode-to-h264"
	SegmentToHLS    ID = "segment-to-hls"
)

// Tool identifies which external binary runs a template.
type Tool string

const (
	FFmpeg  Tool = "ffmpeg"
	FFprobe Tool = "ffprobe"
)

// DefaultSegmentSeconds is the HLS segment duration.
const DefaultSegmentSeconds = 5

// Options controls the literal values baked into the catalog templates.
type Options struct {
	VideoEncoder   string
	AudioEncoder   string
	SegmentSeconds int
}

// Catalog is the read-only preset registry consumed by the prober and the
// stage executor.
type Catalog interface {
	IsValid(id ID) bool
	Template(id ID) (Template, error)
	IDs() []ID
}

type registry struct {
	templates map[ID]Template
}

// New builds an immutable catalog. Zero-valued options fall back to
// libx264/aac and five-second segments.
func New(opts Options) Catalog {
	video := strings.TrimSpace(opts.VideoEncoder)
	if video == "" {
		video = "libx264"
	}
	audio := strings.TrimSpace(opts.AudioEncoder)
	if audio == "" {
		audio = "aac"
	}
	segment := opts.SegmentSeconds
	if segment <= 0 {
		segment = DefaultSegmentSeconds
	}

	// -n refuses to overwrite existing outputs; -loglevel error keeps stderr
	// limited to real diagnostics.
	ffmpegPrefix := []Arg{Lit("-hide_banner"), Lit("-loglevel"), Lit("error"), Lit("-nostdin"), Lit("-n")}
	withPrefix := func(args ...Arg) []Arg {
		return append(slices.Clone(ffmpegPrefix), args...)
	}

	return &registry{templates: map[ID]Template{
		ProbeVideo: {
			ID:   ProbeVideo,
			Tool: FFprobe,
			Args: []Arg{
				Lit("-v"), Lit("error"),
				Lit("-select_streams"), Lit("v:0"),
				Lit("-show_entries"), Lit("stream=width,height,duration,bit_rate,codec_name"),
				Lit("-of"), Lit("default=noprint_wrappers=1"),
				Lit("--"), In(),
			},
			Description: "Report codec attributes of the first video stream",
		},
		ProbeAudio: {
			ID:   ProbeAudio,
			Tool: FFprobe,
			Args: []Arg{
				Lit("-v"), Lit("error"),
				Lit("-select_streams"), Lit("a:0"),
				Lit("-show_entries"), Lit("stream=bit_rate,codec_name"),
				Lit("-of"), Lit("default=noprint_wrappers=1"),
				Lit("--"), In(),
			},
			Description: "Report codec attributes of the first audio stream",
		},
		TranscodeToAAC: {
			ID:   TranscodeToAAC,
			Tool: FFmpeg,
			Args: withPrefix(
				Lit("-i"), In(),
				Lit("-c:v"), Lit("copy"),
				Lit("-c:a"), Lit(audio),
				Out(),
			),
			Description: "Re-encode audio to " + audio + ", copy video",
		},
		TranscodeToH264: {
			ID:   TranscodeToH264,
			Tool: FFmpeg,
			Args: withPrefix(
				Lit("-i"), In(),
				Lit("-c:v"), Lit(video),
				Lit("-c:a"), Lit("copy"),
				Out(),
			),
			Description: "Re-encode video with " + video + ", copy audio",
		},
		SegmentToHLS: {
			ID:   SegmentToHLS,
			Tool: FFmpeg,
			Args: withPrefix(
				Lit("-i"), In(),
				Lit("-c:v"), Lit("copy"),
				Lit("-c:a"), Lit("copy"),
				Lit("-f"), Lit("segment"),
				Lit("-segment_list"), Prefix(".m3u8"),
				Lit("-segment_list_flags"), Lit("+live"),
				Lit("-segment_time"), Lit(strconv.Itoa(segment)),
				Prefix("%03d.ts"),
			),
			Description: fmt.Sprintf("Split into %ds MPEG-TS segments plus an m3u8 manifest", segment),
		},
	}}
}

// Default returns the catalog built from zero options.
func Default() Catalog {
	return New(Options{})
}

func (r *registry) IsValid(id ID) bool {
	_, ok := r.templates[id]
	return ok
}

func (r *registry) Template(id ID) (Template, error) {
	tpl, ok := r.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("unknown preset %q", id)
	}
	tpl.Args = slices.Clone(tpl.Args)
	return tpl, nil
}

func (r *registry) IDs() []ID {
	ids := make([]ID, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
