// Package artifacts manages the files an encode run touches: the output
// directory, the HLS manifest/segment naming convention, and transient
// intermediates.
//
// Intermediates are owned by the pipeline and released exactly once after
// the stage that consumes them finishes. HLS outputs are never deleted here.
// Names are not checked for uniqueness; callers running concurrent encodes
// into one directory must pick distinct names.
package artifacts
