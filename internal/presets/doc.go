// Package presets holds the fixed catalog of named ffmpeg/ffprobe operations.
//
// Each preset is pure data: a tool plus an argument vector made of literals
// and typed slots (input, output, output prefix). The catalog is built once
// and never mutated, so tests can construct their own and inject it.
// Adding a new codec target means adding one catalog entry.
package presets
