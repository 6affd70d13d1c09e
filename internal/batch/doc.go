// Package batch encodes every media file in a directory into one output
// directory. It is the one place that derives rendition names itself and
// guards the output directory with a file lock, since the router leaves name
// uniqueness to its callers.
package batch
