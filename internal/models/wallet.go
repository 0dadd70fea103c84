package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the cash and position ledger of one strategy.
// It is not safe for concurrent use; exactly one strategy owns it.
type Wallet struct {
	Cash      decimal.Decimal `json:"cash"`
	Positions []*Position     `json:"positions"`
}

// NewWallet creates a wallet with the starting capital.
func NewWallet(capital decimal.Decimal) *Wallet {
	return &Wallet{Cash: capital}
}

// AddPosition appends p. With updateCash the cash moves by -quantity*open_cost.
func (w *Wallet) AddPosition(p *Position, updateCash bool) {
	if updateCash {
		w.Cash = w.Cash.Sub(p.OpenCost.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	w.Positions = append(w.Positions, p)
}

// ClosePosition stamps p as closed and books closeValue into cash.
// A second close fails before cash is touched.
func (w *Wallet) ClosePosition(p *Position, date time.Time, closeValue decimal.Decimal) error {
	if err := p.Close(date, closeValue); err != nil {
		return err
	}
	w.Cash = w.Cash.Add(closeValue)
	return nil
}

// OpenPositions returns positions that are neither expired nor closed on date.
// Positions expiring on date are still open.
func (w *Wallet) OpenPositions(date time.Time) []*Position {
	return w.filter(func(p *Position) bool {
		return !p.IsExpired(date) && !p.IsClosed()
	})
}

// ExpiringPositions returns open positions expiring exactly on date.
func (w *Wallet) ExpiringPositions(date time.Time) []*Position {
	return w.filter(func(p *Position) bool {
		return p.IsExpiring(date) && !p.IsClosed()
	})
}

// ExpiredPositions returns positions strictly past expiration, closed or not.
func (w *Wallet) ExpiredPositions(date time.Time) []*Position {
	return w.filter(func(p *Position) bool {
		return p.IsExpired(date)
	})
}

// ClosedPositions returns every position closed through a trade.
func (w *Wallet) ClosedPositions() []*Position {
	return w.filter(func(p *Position) bool {
		return p.IsClosed()
	})
}

func (w *Wallet) filter(keep func(*Position) bool) []*Position {
	var out []*Position
	for _, p := range w.Positions {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
