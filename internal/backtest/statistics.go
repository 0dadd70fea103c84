package backtest

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

// Statistics summarize one strategy's run.
type Statistics struct {
	FinalCash        decimal.Decimal `json:"final_cash"`
	FinalValue       decimal.Decimal `json:"final_value"`
	FinalMarketValue decimal.Decimal `json:"final_market_value"`
	// MaxDrawdown is the largest peak-to-trough drop of the market value curve, >= 0
	MaxDrawdown  decimal.Decimal `json:"max_drawdown"`
	TradesOpened int             `json:"trades_opened"`
	TradesClosed int             `json:"trades_closed"`
	Rolls        int             `json:"rolls"`
	Lapses       int             `json:"lapses"`
	// Unsettled counts positions that reached expiration in the money without being closed
	Unsettled         int     `json:"unsettled"`
	MeanDailyChange   float64 `json:"mean_daily_change"`
	StdDevDailyChange float64 `json:"stddev_daily_change"`
}

// ComputeStatistics derives the summary from a wallet and its sampled curve.
// A position bought back on its expiration day for a non-zero value counts as a
// roll; one closed there at zero counts as a lapse. A position still held at its
// expiration lapses when the last underlying seen on or before that date left it
// out of the money, and is unsettled otherwise.
func ComputeStatistics(w *models.Wallet, curve []Point) (Statistics, error) {
	s := Statistics{
		FinalCash:    w.Cash,
		FinalValue:   w.Cash,
		TradesOpened: len(w.Positions),
	}
	var end time.Time
	if n := len(curve); n > 0 {
		last := curve[n-1]
		end = last.Date
		s.FinalCash = last.Cash
		s.FinalValue = last.Value
		s.FinalMarketValue = last.MarketValue
	} else {
		s.FinalMarketValue = w.Cash
	}

	for _, p := range w.Positions {
		switch {
		case p.IsClosed():
			s.TradesClosed++
			if p.ClosedAt.Equal(p.Option.Expiration) {
				if p.CloseValue.Decimal.IsZero() {
					s.Lapses++
				} else {
					s.Rolls++
				}
			}
		case !end.IsZero() && !p.Option.Expiration.After(end):
			underlying, ok := underlyingAt(curve, p.Option.Expiration)
			if ok && !p.Option.IsITM(underlying) {
				s.Lapses++
			} else {
				s.Unsettled++
			}
		}
	}

	s.MaxDrawdown = maxDrawdown(curve)

	if len(curve) < 2 {
		return s, nil
	}
	changes := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		changes = append(changes, curve[i].Value.Sub(curve[i-1].Value).InexactFloat64())
	}
	mean, err := stats.Mean(changes)
	if err != nil {
		return s, fmt.Errorf("failed to calculate mean: %w", err)
	}
	sd, err := stats.StandardDeviation(changes)
	if err != nil {
		return s, fmt.Errorf("failed to calculate the standard deviation: %w", err)
	}
	s.MeanDailyChange = mean
	s.StdDevDailyChange = sd
	return s, nil
}

// underlyingAt returns the underlying of the last point dated on or before date.
func underlyingAt(curve []Point, date time.Time) (decimal.Decimal, bool) {
	for i := len(curve) - 1; i >= 0; i-- {
		if !curve[i].Date.After(date) {
			return curve[i].Underlying, true
		}
	}
	return decimal.Zero, false
}

func maxDrawdown(curve []Point) decimal.Decimal {
	drawdown := decimal.Zero
	if len(curve) == 0 {
		return drawdown
	}
	peak := curve[0].MarketValue
	for _, p := range curve[1:] {
		if p.MarketValue.GreaterThan(peak) {
			peak = p.MarketValue
			continue
		}
		if dd := peak.Sub(p.MarketValue); dd.GreaterThan(drawdown) {
			drawdown = dd
		}
	}
	return drawdown
}
