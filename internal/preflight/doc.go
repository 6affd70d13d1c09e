// Package preflight verifies that the host can run an encode before any work
// starts: the external tools resolve, ffmpeg carries the configured encoders,
// and the output, temp and log directories are usable with enough free space.
//
// `hlsenc check` renders every result; `hlsenc batch` runs the same checks and
// refuses to start when one fails.
package preflight
