package services

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// CommandOutput captures the streams and exit status of one external process.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner runs an external tool with an explicit argument vector.
// Implementations must not route arguments through a shell.
//
// A non-nil error means the process could not be started or was interrupted
// (context cancellation, timeout). A process that ran and exited non-zero
// returns a nil error with ExitCode set, so callers decide what a failure is.
type CommandRunner interface {
	Run(ctx context.Context, binary string, args []string) (CommandOutput, error)
}

// ExecRunner is the os/exec backed CommandRunner.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, binary string, args []string) (CommandOutput, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound the wait for stray children holding the pipes after cancellation.
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	out := CommandOutput{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	out.ExitCode = -1
	return out, err
}
