// Package history keeps a SQLite ledger of encode runs: which input produced
// which rendition, the route taken, how long segmentation took and why a run
// failed. The ledger is informational; the encoder never reads it back.
package history
