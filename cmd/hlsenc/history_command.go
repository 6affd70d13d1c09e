package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hlsenc/internal/config"
	"hlsenc/internal/history"
)

type historyRow struct {
	ID             string   `json:"id"`
	Input          string   `json:"input"`
	Name           string   `json:"name"`
	OutputDir      string   `json:"output_dir"`
	Route          []string `json:"route"`
	Outcome        string   `json:"outcome"`
	FailureKind    string   `json:"failure_kind,omitempty"`
	Error          string   `json:"error,omitempty"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	Segments       int      `json:"segments"`
	StartedAt      string   `json:"started_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent encode runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					rows := make([]historyRow, 0, len(runs))
					for _, run := range runs {
						rows = append(rows, toHistoryRow(run))
					}
					return writeJSON(cmd, rows)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					status := string(run.Outcome)
					if run.FailureKind != "" {
						status = run.FailureKind
					}
					rows = append(rows, []string{
						run.StartedAt.Local().Format(time.DateTime),
						run.Name,
						strings.Join(run.Route, " -> "),
						status,
						fmt.Sprintf("%.2f", run.Elapsed.Seconds()),
						fmt.Sprintf("%d", run.Segments),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Started", "Name", "Route", "Status", "Seconds", "Segments"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit runs as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	})
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("run history is disabled (set history.enabled in %s)", configHint())
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func configHint() string {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "the config file"
	}
	return path
}

func toHistoryRow(run history.Run) historyRow {
	return historyRow{
		ID:             run.ID,
		Input:          run.Input,
		Name:           run.Name,
		OutputDir:      run.OutputDir,
		Route:          run.Route,
		Outcome:        string(run.Outcome),
		FailureKind:    run.FailureKind,
		Error:          run.Error,
		ElapsedSeconds: run.Elapsed.Seconds(),
		Segments:       run.Segments,
		StartedAt:      run.StartedAt.UTC().Format(time.RFC3339),
	}
}
