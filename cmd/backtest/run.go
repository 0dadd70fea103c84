package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
	"github.com/eddiefleurent/scranton_backtest/internal/config"
	"github.com/eddiefleurent/scranton_backtest/internal/market"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
	"github.com/eddiefleurent/scranton_backtest/internal/storage"
)

func newRunCmd() *cobra.Command {
	var configPath, label string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured strategies and store the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := newLogger(cfg.Environment.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := storage.NewStorage(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			if label == "" {
				label = filepath.Base(configPath)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = runBacktest(ctx, cfg, store, label, cmd.OutOrStdout(), logger)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with the run (default: config file name)")
	return cmd
}

// runBacktest loads the data, runs every configured strategy, prints the
// report to out and stores the result.
func runBacktest(
	ctx context.Context,
	cfg *config.Config,
	store storage.Interface,
	label string,
	out io.Writer,
	logger logrus.FieldLogger,
) (*backtest.Result, error) {
	table, stats, err := quotes.NewLoader(logger).LoadFiles(ctx, cfg.Data.Files)
	if err != nil {
		return nil, fmt.Errorf("loading quotes: %w", err)
	}
	start, err := cfg.StartDate()
	if err != nil {
		return nil, err
	}
	end, err := cfg.EndDate()
	if err != nil {
		return nil, err
	}
	table = table.Between(start, end)
	if table.Len() == 0 {
		return nil, fmt.Errorf("no quote dates between %s and %s", cfg.Data.StartDate, cfg.Data.EndDate)
	}
	logger.WithFields(logrus.Fields{
		"dates":   table.Len(),
		"rows":    stats.Rows,
		"dropped": stats.NullRows + stats.InvalidRows,
	}).Info("Quotes ready")

	m := market.New(table, market.WithLogger(logger))
	strategies, err := backtest.BuildStrategies(m, cfg.CapitalDecimal(), cfg.StrategySpecs())
	if err != nil {
		return nil, fmt.Errorf("building strategies: %w", err)
	}

	runner := backtest.NewRunner(m, strategies,
		backtest.WithLogger(logger),
		backtest.WithPolicy(cfg.Policy()),
	)
	res, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	if err := backtest.Report(out, res); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	run, err := store.AddRun(label, res)
	if err != nil {
		return nil, err
	}
	logger.WithField("run_id", run.ID).Info("Results saved")
	return res, nil
}
