package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
	"github.com/eddiefleurent/scranton_backtest/internal/storage"
)

func newRunsCmd() *cobra.Command {
	var (
		path string
		show string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, or show one with --show <id|latest>",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewStorage(path)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}

			if show != "" {
				var run *storage.RunRecord
				if show == "latest" {
					run, err = store.LatestRun()
				} else {
					run, err = store.GetRun(show)
				}
				if err != nil {
					return err
				}
				return backtest.Report(cmd.OutOrStdout(), run.Result)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Label", "Created", "Start", "End", "Ticks", "Strategies"})
			for _, r := range store.ListRuns() {
				table.Append([]string{
					r.ID,
					r.Label,
					r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Start.Format(quotes.DateLayout),
					r.End.Format(quotes.DateLayout),
					fmt.Sprintf("%d", r.Ticks),
					fmt.Sprintf("%d", r.Strategies),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "storage", "results.json", "Results file")
	cmd.Flags().StringVar(&show, "show", "", "Run ID to report, or 'latest'")
	return cmd
}
