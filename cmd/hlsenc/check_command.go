package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hlsenc/internal/deps"
	"hlsenc/internal/preflight"
	"hlsenc/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify tools, encoders and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			runner := ctx.commandRunner()

			lines := renderSectionHeader("Tools", colorize)
			for _, binary := range []string{cfg.FFmpegBinary(), cfg.FFprobeBinary()} {
				lines = append(lines, versionLine(cmd.Context(), runner, binary, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)

			results := preflight.RunAll(cmd.Context(), cfg, runner)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Features", colorize)...)
			lines = append(lines,
				renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize),
				renderStatusLine("Metrics", statusInfo, yesNo(cfg.Metrics.Enabled), colorize),
				renderStatusLine("Stage timeout", statusInfo, timeoutLabel(cfg.StageTimeout().String(), cfg.StageTimeout() > 0), colorize),
			)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func versionLine(ctx context.Context, runner services.CommandRunner, binary string, colorize bool) string {
	version, err := deps.Version(ctx, runner, binary)
	if err != nil {
		return renderStatusLine(binary, statusError, err.Error(), colorize)
	}
	return renderStatusLine(binary, statusOK, version, colorize)
}

func timeoutLabel(value string, enabled bool) string {
	if !enabled {
		return "none"
	}
	return value
}
