package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddiefleurent/scranton_backtest/internal/mock"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
)

func newSynthCmd() *cobra.Command {
	var (
		out   string
		start string
		days  int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a deterministic synthetic put chain as canonical CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := time.Parse(quotes.DateLayout, start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			table, err := mock.NewChainGenerator(seed, startDate, days).Generate()
			if err != nil {
				return err
			}
			if err := quotes.WriteCSV(out, table); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d dates to %s\n", table.Len(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "quotes.csv", "Output CSV path")
	cmd.Flags().StringVar(&start, "start", "2020-01-02", "First calendar date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 252, "Number of trading days")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}
