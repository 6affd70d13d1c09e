package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hlsenc/internal/encoding"
	"hlsenc/internal/logging"
	"hlsenc/internal/textutil"
)

type encodeOutput struct {
	RunID          string   `json:"run_id"`
	Input          string   `json:"input"`
	Name           string   `json:"name"`
	Route          []string `json:"route"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	Manifest       string   `json:"manifest"`
	Segments       []string `json:"segments"`
	CleanupErrors  []string `json:"cleanup_errors,omitempty"`
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var name string
	var outputDir string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "encode INPUT",
		Short: "Encode one media file into an HLS rendition",
		Long: `Probe INPUT, pick the shortest route to H.264/AAC and write
{output}/{name}.m3u8 plus five-second {name}NNN.ts segments.

The elapsed time printed covers the segmentation stage only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
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

			if strings.TrimSpace(name) == "" {
				name = textutil.RenditionName(input)
			}
			if strings.TrimSpace(outputDir) == "" {
				outputDir = p.cfg.Paths.OutputDir
			}

			result, err := p.router.AutoEncode(cmd.Context(), input, name, outputDir)
			if err != nil {
				return fmt.Errorf("encode %s: %w", input, err)
			}
			out := encodeOutput{
				RunID:          result.RunID,
				Input:          input,
				Name:           name,
				Route:          result.Route.Strings(),
				ElapsedSeconds: result.Seconds(),
				Manifest:       result.Manifest,
				Segments:       result.Segments,
			}
			for _, cleanupErr := range result.CleanupErrors {
				out.CleanupErrors = append(out.CleanupErrors, cleanupErr.Error())
			}
			if jsonOut {
				return writeJSON(cmd, out)
			}
			printEncodeResult(cmd, result, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Rendition name (defaults to the input file name)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}

func printEncodeResult(cmd *cobra.Command, result encoding.Result, out encodeOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Route:     %s\n", strings.Join(out.Route, " -> "))
	fmt.Fprintf(w, "Manifest:  %s\n", out.Manifest)
	fmt.Fprintf(w, "Segments:  %d\n", len(out.Segments))
	fmt.Fprintf(w, "Elapsed:   %.3fs (%s)\n", out.ElapsedSeconds, result.Elapsed.Round(time.Millisecond))
	for _, msg := range out.CleanupErrors {
		fmt.Fprintf(w, "Warning:   %s\n", msg)
	}
}
