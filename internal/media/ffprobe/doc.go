// Package ffprobe wraps the two probe presets that report codec attributes of
// a media file.
//
// Key types:
//   - Result: video and audio attribute maps (width, height, duration,
//     bit_rate, codec_name / bit_rate, codec_name)
//   - Prober: the narrow interface the encoding router depends on
//   - Client: the ffprobe-backed Prober with an injectable command runner
//
// An absent stream yields an empty map, not an error. A tool that cannot be
// run, exits non-zero, or prints anything other than key=value lines is
// reported as services.ErrProbeUnavailable.
package ffprobe
