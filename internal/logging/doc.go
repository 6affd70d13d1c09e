// Package logging assembles structured slog loggers and formatting helpers used
// across hlsenc.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code can tag log lines with run
// IDs and stage names. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
