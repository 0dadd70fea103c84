// Package market replays a quote table one date at a time and executes trades against it.
package market

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
)

// Market is the execution venue and temporal cursor.
// Strategies read and trade against the current snapshot; only the orchestrator advances it.
type Market struct {
	table   *quotes.Table
	current *quotes.Snapshot
	logger  logrus.FieldLogger
	cursor  int
}

// Option configures a Market.
type Option func(*Market)

// WithLogger sets the execution logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Market) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a market positioned before the first date of table.
func New(table *quotes.Table, opts ...Option) *Market {
	discard := logrus.New()
	discard.Out = io.Discard
	m := &Market{table: table, cursor: -1, logger: discard}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Len returns the number of distinct dates the market will visit.
func (m *Market) Len() int {
	return m.table.Len()
}

// Advance moves to the next date.
func (m *Market) Advance() error {
	next := m.cursor + 1
	if next >= m.table.Len() {
		return ErrExhaustedMarket
	}
	snap := m.table.At(next)
	if m.current != nil && !snap.Date.After(m.current.Date) {
		return models.Violation("market dates not increasing: %s after %s",
			snap.Date.Format(quotes.DateLayout), m.current.Date.Format(quotes.DateLayout))
	}
	m.cursor = next
	m.current = snap
	return nil
}

// Current returns a copy of the current snapshot. Changing it does not affect trading.
func (m *Market) Current() (*quotes.Snapshot, error) {
	snap, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

func (m *Market) snapshot() (*quotes.Snapshot, error) {
	if m.current == nil {
		return nil, ErrUninitializedMarket
	}
	return m.current, nil
}

// CurrentDate returns the current quote date.
func (m *Market) CurrentDate() (time.Time, error) {
	if m.current == nil {
		return time.Time{}, ErrUninitializedMarket
	}
	return m.current.Date, nil
}

// UnderlyingLast returns the underlying price of the current date.
func (m *Market) UnderlyingLast() (decimal.Decimal, error) {
	if m.current == nil {
		return decimal.Zero, ErrUninitializedMarket
	}
	return m.current.UnderlyingLast, nil
}

// SellToOpen writes one put at the contract closest to the ideal strike, with the
// DTE distance breaking ties, priced at its bid. The caller registers the position.
func (m *Market) SellToOpen(idealStrike decimal.Decimal, idealDTE int) (*models.Position, error) {
	snap, err := m.snapshot()
	if err != nil {
		return nil, err
	}

	best := -1
	var bestStrikeDist decimal.Decimal
	var bestDTEDist int
	for i, r := range snap.Rows {
		strikeDist := r.Strike.Sub(idealStrike).Abs()
		dteDist := abs(r.DTE - idealDTE)
		if best < 0 {
			best, bestStrikeDist, bestDTEDist = i, strikeDist, dteDist
			continue
		}
		c := strikeDist.Cmp(bestStrikeDist)
		if c < 0 || (c == 0 && dteDist < bestDTEDist) {
			best, bestStrikeDist, bestDTEDist = i, strikeDist, dteDist
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("no quotes on %s", snap.Date.Format(quotes.DateLayout))
	}

	r := snap.Rows[best]
	pos, err := models.NewPosition(models.NewPut(r.Strike, r.Expiration), -1, r.Bid, snap.Date)
	if err != nil {
		return nil, err
	}
	m.logger.WithFields(logrus.Fields{
		"date":         snap.Date.Format(quotes.DateLayout),
		"ideal_strike": idealStrike.StringFixed(2),
		"ideal_dte":    idealDTE,
		"strike":       r.Strike.String(),
		"dte":          r.DTE,
		"bid":          r.Bid.String(),
	}).Debug("sell to open")
	return pos, nil
}

// Sell returns the bid of the exact contract.
func (m *Market) Sell(option models.Option) (decimal.Decimal, error) {
	r, err := m.lookup(option)
	if err != nil {
		return decimal.Zero, err
	}
	return r.Bid, nil
}

// Buy returns the ask of the exact contract.
func (m *Market) Buy(option models.Option) (decimal.Decimal, error) {
	r, err := m.lookup(option)
	if err != nil {
		return decimal.Zero, err
	}
	return r.Ask, nil
}

// lookup never falls back to a nearby contract.
func (m *Market) lookup(option models.Option) (quotes.Row, error) {
	snap, err := m.snapshot()
	if err != nil {
		return quotes.Row{}, err
	}
	if option.Variant != models.Put {
		return quotes.Row{}, fmt.Errorf("%w: %s", ErrUnsupportedVariant, option.Variant)
	}
	for _, r := range snap.Rows {
		if r.Expiration.Equal(option.Expiration) && r.Strike.Equal(option.Strike) {
			return r, nil
		}
	}
	return quotes.Row{}, &QuoteNotFoundError{Date: snap.Date, Option: option}
}

// Close returns the credit (positive) or debit (negative) of closing p today.
// An expiring, out-of-the-money option closes at zero without a quote lookup.
// Unless dryRun is set, p is stamped closed; the caller books the value into cash.
func (m *Market) Close(p *models.Position, dryRun bool) (decimal.Decimal, error) {
	snap, err := m.snapshot()
	if err != nil {
		return decimal.Zero, err
	}
	if !dryRun && p.IsClosed() {
		return decimal.Zero, models.Violation("position %s already closed", p.ID)
	}

	qty := decimal.NewFromInt(int64(p.Quantity))
	var value decimal.Decimal
	switch {
	case p.IsExpiring(snap.Date) && !p.Option.IsITM(snap.UnderlyingLast):
		value = decimal.Zero
	case p.IsLong():
		bid, err := m.Sell(p.Option)
		if err != nil {
			return decimal.Zero, err
		}
		value = bid.Mul(qty)
		if value.IsNegative() {
			return decimal.Zero, models.Violation("closing long %s yields %s, want >= 0", p, value)
		}
	default:
		ask, err := m.Buy(p.Option)
		if err != nil {
			return decimal.Zero, err
		}
		value = ask.Mul(qty)
		if value.IsPositive() {
			return decimal.Zero, models.Violation("closing short %s yields %s, want <= 0", p, value)
		}
	}

	if dryRun {
		return value, nil
	}
	if err := p.Close(snap.Date, value); err != nil {
		return decimal.Zero, err
	}
	m.logger.WithFields(logrus.Fields{
		"date":     snap.Date.Format(quotes.DateLayout),
		"position": p.String(),
		"value":    value.String(),
	}).Debug("closed position")
	return value, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
