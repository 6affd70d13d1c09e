// Package deps checks that the external tools hlsenc drives are installed and
// that ffmpeg was built with the configured encoders.
package deps
