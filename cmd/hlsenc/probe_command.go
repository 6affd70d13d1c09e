package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"hlsenc/internal/encoding"
)

type probeOutput struct {
	Input string            `json:"input"`
	Video map[string]string `json:"video"`
	Audio map[string]string `json:"audio"`
	Route []string          `json:"route"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe INPUT",
		Short: "Show the probed stream attributes and the route an encode would take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := ctx.prober(cfg).Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			route := encoding.SelectRoute(result)
			if jsonOut {
				return writeJSON(cmd, probeOutput{
					Input: args[0],
					Video: result.Video,
					Audio: result.Audio,
					Route: route.Strings(),
				})
			}

			rows := make([][]string, 0, len(result.Video)+len(result.Audio))
			for _, key := range sortedKeys(result.Video) {
				rows = append(rows, []string{"video", key, result.Video[key]})
			}
			for _, key := range sortedKeys(result.Audio) {
				rows = append(rows, []string{"audio", key, result.Audio[key]})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No video or audio streams reported")
			} else {
				fmt.Fprintln(out, renderTable([]string{"Stream", "Attribute", "Value"}, rows, nil))
			}
			fmt.Fprintf(out, "Route: %s\n", route.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the probe result as JSON")
	return cmd
}

// sortedKeys stands in for slices.Sorted(maps.Keys(m)) (Go 1.23+) on older toolchains.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
