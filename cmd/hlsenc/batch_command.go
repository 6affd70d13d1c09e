package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hlsenc/internal/batch"
	"hlsenc/internal/logging"
	"hlsenc/internal/preflight"
	"hlsenc/internal/services"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var extensions []string
	var recursive bool
	var skipChecks bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Encode every media file in a directory",
		Long: `Encode each media file found in DIR into the output directory.
Rendition names come from the input file names; clashes with each other or
with renditions already in the output directory get a numeric suffix. The
output directory is locked for the duration of the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(outputDir) == "" {
				outputDir = cfg.Paths.OutputDir
			}
			out := cmd.OutOrStdout()

			inputs, err := batch.Discover(args[0], extensions, recursive)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprintf(out, "No media files found in %s\n", args[0])
				return nil
			}
			jobs := batch.Plan(inputs, outputDir)
			if dryRun {
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{job.Input, job.Name})
				}
				fmt.Fprintln(out, renderTable([]string{"Input", "Name"}, rows, nil))
				return nil
			}

			if !skipChecks {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, ctx.commandRunner())); len(failed) > 0 {
					for _, r := range failed {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", r.Name, r.Detail)
					}
					return services.Wrap(services.ErrConfiguration, "batch", "preflight", fmt.Sprintf("%d check(s) failed; run `hlsenc check`", len(failed)), nil)
				}
			}

			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := p.Close(); closeErr != nil {
					p.logger.Warn("pipeline shutdown incomplete",
						logging.String(logging.FieldEventType, "pipeline_close_failed"),
						logging.Error(closeErr),
					)
				}
			}()

			summary, runErr := batch.Run(cmd.Context(), p.router, jobs, outputDir, p.logger)
			rows := make([][]string, 0, len(summary.Items))
			for _, item := range summary.Items {
				status, elapsed := "ok", fmt.Sprintf("%.2f", item.Result.Seconds())
				if item.Err != nil {
					status, elapsed = services.FailureKind(item.Err), "-"
				}
				rows = append(rows, []string{item.Name, strings.Join(item.Result.Route.Strings(), " -> "), status, elapsed})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Name", "Route", "Status", "Seconds"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			}
			fmt.Fprintf(out, "%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
			if runErr != nil {
				return runErr
			}
			if summary.Failed > 0 {
				return errors.New("one or more encodes failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Input extensions to include (default: common video containers)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip preflight checks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned names without encoding")
	return cmd
}
