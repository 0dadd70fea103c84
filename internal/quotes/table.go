// Package quotes holds the immutable, date-ordered option-chain table the market replays.
package quotes

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one put contract quoted on one date.
type Row struct {
	Expiration        time.Time
	Strike            decimal.Decimal
	Bid               decimal.Decimal
	Ask               decimal.Decimal
	StrikeDistance    decimal.Decimal
	StrikeDistancePct decimal.Decimal
	DTE               int
}

// Validate checks the per-row invariants.
func (r Row) Validate() error {
	if r.DTE < 0 {
		return fmt.Errorf("dte must be >= 0 (got %d)", r.DTE)
	}
	if r.Bid.IsNegative() {
		return fmt.Errorf("bid must be >= 0 (got %s)", r.Bid)
	}
	if r.Ask.LessThan(r.Bid) {
		return fmt.Errorf("ask %s below bid %s", r.Ask, r.Bid)
	}
	return nil
}

// Snapshot is the chain on one date.
type Snapshot struct {
	Date           time.Time
	UnderlyingLast decimal.Decimal
	Rows           []Row
}

// Clone returns a copy whose rows can be changed without touching s.
func (s *Snapshot) Clone() *Snapshot {
	rows := make([]Row, len(s.Rows))
	copy(rows, s.Rows)
	return &Snapshot{Date: s.Date, UnderlyingLast: s.UnderlyingLast, Rows: rows}
}

// Table is an ordered, immutable sequence of snapshots with strictly increasing dates.
type Table struct {
	snapshots []*Snapshot
}

// NewTable validates snapshots and orders them by date.
// Rows inside each snapshot are sorted by strike, then expiration.
func NewTable(snapshots []*Snapshot) (*Table, error) {
	out := make([]*Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s == nil {
			return nil, fmt.Errorf("nil snapshot")
		}
		if !s.UnderlyingLast.IsPositive() {
			return nil, fmt.Errorf("snapshot %s: underlying_last must be > 0 (got %s)",
				s.Date.Format(DateLayout), s.UnderlyingLast)
		}
		if len(s.Rows) == 0 {
			return nil, fmt.Errorf("snapshot %s: no rows", s.Date.Format(DateLayout))
		}
		rows := make([]Row, len(s.Rows))
		copy(rows, s.Rows)
		for i, r := range rows {
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("snapshot %s row %d: %w", s.Date.Format(DateLayout), i, err)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if c := rows[i].Strike.Cmp(rows[j].Strike); c != 0 {
				return c < 0
			}
			return rows[i].Expiration.Before(rows[j].Expiration)
		})
		for i := 1; i < len(rows); i++ {
			if rows[i].Strike.Equal(rows[i-1].Strike) && rows[i].Expiration.Equal(rows[i-1].Expiration) {
				return nil, fmt.Errorf("snapshot %s: duplicate contract %s/%s", s.Date.Format(DateLayout),
					rows[i].Strike, rows[i].Expiration.Format(DateLayout))
			}
		}
		out = append(out, &Snapshot{Date: s.Date, UnderlyingLast: s.UnderlyingLast, Rows: rows})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if out[i].Date.Equal(out[i-1].Date) {
			return nil, fmt.Errorf("duplicate snapshot date %s", out[i].Date.Format(DateLayout))
		}
	}
	return &Table{snapshots: out}, nil
}

// Len returns the number of distinct dates.
func (t *Table) Len() int {
	return len(t.snapshots)
}

// At returns a copy of the i-th snapshot in date order.
func (t *Table) At(i int) *Snapshot {
	return t.snapshots[i].Clone()
}

// Dates returns the table's dates in order.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, len(t.snapshots))
	for i, s := range t.snapshots {
		out[i] = s.Date
	}
	return out
}

// Between returns a table restricted to [start, end]. Zero bounds are open.
func (t *Table) Between(start, end time.Time) *Table {
	var out []*Snapshot
	for _, s := range t.snapshots {
		if !start.IsZero() && s.Date.Before(start) {
			continue
		}
		if !end.IsZero() && s.Date.After(end) {
			continue
		}
		out = append(out, s)
	}
	return &Table{snapshots: out}
}
