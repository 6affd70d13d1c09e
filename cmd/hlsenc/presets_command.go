package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset catalog with the configured encoders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog := ctx.catalog(cfg)
			rows := make([][]string, 0, len(catalog.IDs()))
			for _, id := range catalog.IDs() {
				tpl, err := catalog.Template(id)
				if err != nil {
					return err
				}
				slots := make([]string, 0, 3)
				for _, slot := range tpl.Slots() {
					slots = append(slots, slot.String())
				}
				rows = append(rows, []string{string(id), string(tpl.Tool), strings.Join(slots, ","), tpl.Render()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preset", "Tool", "Slots", "Command"}, rows, nil))
			return nil
		},
	}
}
