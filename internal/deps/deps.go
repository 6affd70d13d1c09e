package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"hlsenc/internal/services"
)

// Requirement names an external binary hlsenc invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved on this host.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// CheckBinaries resolves each requirement against PATH (or as a literal path).
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch resolved, err := exec.LookPath(status.Command); {
		case status.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		default:
			status.Available = true
			status.Path = resolved
		}
		results = append(results, status)
	}
	return results
}

// Version returns the first line of `binary -version`.
func Version(ctx context.Context, runner services.CommandRunner, binary string) (string, error) {
	out, err := runner.Run(ctx, binary, []string{"-hide_banner", "-version"})
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	if out.ExitCode != 0 {
		return "", fmt.Errorf("%s -version: exit status %d", binary, out.ExitCode)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out.Stdout)), "\n")
	return strings.TrimSpace(line), nil
}

// HasEncoder reports whether ffmpeg lists encoder in `ffmpeg -encoders`.
func HasEncoder(ctx context.Context, runner services.CommandRunner, binary, encoder string) (bool, error) {
	encoder = strings.TrimSpace(encoder)
	if encoder == "" {
		return false, fmt.Errorf("encoder name required")
	}
	out, err := runner.Run(ctx, binary, []string{"-hide_banner", "-encoders"})
	if err != nil {
		return false, fmt.Errorf("%s -encoders: %w", binary, err)
	}
	if out.ExitCode != 0 {
		return false, fmt.Errorf("%s -encoders: exit status %d", binary, out.ExitCode)
	}
	return listsEncoder(out.Stdout, encoder), nil
}

// Encoder lines look like " V....D libx264   libx264 H.264 / AVC ...".
func listsEncoder(listing []byte, encoder string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && len(fields[0]) == 6 && fields[1] == encoder {
			return true
		}
	}
	return false
}
