package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/scranton_backtest/internal/market"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
)

func day(s string) time.Time {
	t, err := quotes.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func row(strike, exp string, dte int, bid, ask string) quotes.Row {
	return quotes.Row{Strike: d(strike), Expiration: day(exp), DTE: dte, Bid: d(bid), Ask: d(ask)}
}

func snapshot(date, underlying string, rows ...quotes.Row) *quotes.Snapshot {
	return &quotes.Snapshot{Date: day(date), UnderlyingLast: d(underlying), Rows: rows}
}

func newMarket(t *testing.T, snapshots ...*quotes.Snapshot) *market.Market {
	t.Helper()
	table, err := quotes.NewTable(snapshots)
	require.NoError(t, err)
	return market.New(table)
}

// tick advances the market and runs every strategy on the new date.
func tick(t *testing.T, m *market.Market, strategies ...Strategy) {
	t.Helper()
	require.NoError(t, m.Advance())
	for _, s := range strategies {
		require.NoError(t, s.Run())
	}
}
