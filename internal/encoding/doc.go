// Package encoding decides how an input reaches HLS and drives the pipeline.
//
// Router.AutoEncode probes the input, selects a Route from the probed video
// and audio codecs, runs each stage in order and releases the intermediates
// it produced once the run ends, whether it succeeded or not. The only timing
// reported to the caller is the segmentation stage's.
package encoding
