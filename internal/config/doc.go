// Package config loads, normalizes, and validates hlsenc configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the HLSENC_FFMPEG and
// HLSENC_FFPROBE environment fallbacks. Tool locations are always taken from
// here; nothing downstream embeds a platform-specific path.
package config
