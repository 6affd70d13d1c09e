// Package stageexec runs the ffmpeg pipeline stages (AAC transcode, H.264
// transcode, HLS segmentation) from the preset catalog.
//
// Every invocation is built as an argument vector and executed through a
// services.CommandRunner, so filenames never pass through a shell. ffmpeg is
// started with -loglevel error, which means anything written to stderr is a
// diagnostic: a stage that writes to stderr is reported as failed even when
// the tool exits zero. Failures carry the diagnostic text in *StageError and
// are classified as services.ErrStageFailed.
package stageexec
