// Package services defines shared utilities consumed by the pipeline stages
// and the encoding router.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (missing input, probe unavailable, stage failed, cleanup failed)
//     with errors.Is.
//
// Use these helpers when wiring new stage logic so failure classification and
// observability stay uniform across the pipeline.
package services
