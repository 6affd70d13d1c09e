// Package main hosts the hlsenc CLI.
//
// The Cobra command tree resolves configuration once per invocation, wires
// the probe, stage executor, run history and metrics into an encoding.Router,
// and renders results as tables or JSON. Encoding logic lives in the internal
// packages; commands here only translate flags and print outcomes.
package main
