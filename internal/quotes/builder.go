package quotes

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date format of the canonical table.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// ParseDate parses a quote or expiration date and truncates it to a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Builder groups rows by quote date before building a Table.
type Builder struct {
	byDate map[time.Time]*Snapshot
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{byDate: make(map[time.Time]*Snapshot)}
}

// Add appends row to the snapshot of date.
// All rows of one date must agree on the underlying price.
func (b *Builder) Add(date time.Time, underlying decimal.Decimal, row Row) error {
	s, ok := b.byDate[date]
	if !ok {
		s = &Snapshot{Date: date, UnderlyingLast: underlying}
		b.byDate[date] = s
	} else if !s.UnderlyingLast.Equal(underlying) {
		return fmt.Errorf("date %s: conflicting underlying_last %s and %s",
			date.Format(DateLayout), s.UnderlyingLast, underlying)
	}
	s.Rows = append(s.Rows, row)
	return nil
}

// Merge adds every row of other into b.
func (b *Builder) Merge(other *Builder) error {
	for date, s := range other.byDate {
		for _, r := range s.Rows {
			if err := b.Add(date, s.UnderlyingLast, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of distinct dates collected so far.
func (b *Builder) Len() int {
	return len(b.byDate)
}

// Build creates the Table.
func (b *Builder) Build() (*Table, error) {
	snapshots := make([]*Snapshot, 0, len(b.byDate))
	for _, s := range b.byDate {
		snapshots = append(snapshots, s)
	}
	return NewTable(snapshots)
}
