package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is a signed holding of one option.
// Negative quantity is short (written), positive is long.
type Position struct {
	OpenedAt   time.Time           `json:"opened_at"`
	ClosedAt   *time.Time          `json:"closed_at,omitempty"`
	Option     Option              `json:"option"`
	ID         string              `json:"id"`
	OpenCost   decimal.Decimal     `json:"open_cost"`
	CloseValue decimal.NullDecimal `json:"close_value"`
	Quantity   int                 `json:"quantity"`
}

// NewPosition creates an open position priced at openCost per contract.
func NewPosition(option Option, quantity int, openCost decimal.Decimal, openedAt time.Time) (*Position, error) {
	if quantity == 0 {
		return nil, Violation("position quantity must be non-zero")
	}
	return &Position{
		ID:       uuid.New().String(),
		Option:   option,
		Quantity: quantity,
		OpenCost: openCost,
		OpenedAt: openedAt,
	}, nil
}

// IsLong reports whether the position was bought to open.
func (p *Position) IsLong() bool {
	return p.Quantity > 0
}

// IsClosed reports whether Close has been called.
func (p *Position) IsClosed() bool {
	return p.CloseValue.Valid
}

// IsExpired reports whether the underlying option is past expiration on date.
func (p *Position) IsExpired(date time.Time) bool {
	return p.Option.IsExpired(date)
}

// IsExpiring reports whether the underlying option expires on date.
func (p *Position) IsExpiring(date time.Time) bool {
	return p.Option.IsExpiring(date)
}

// OpenValue is the cash flow of opening: premium received is positive.
func (p *Position) OpenValue() decimal.Decimal {
	return p.OpenCost.Mul(decimal.NewFromInt(int64(-p.Quantity)))
}

// PnL is the realized result of a closed position, or false while still open.
func (p *Position) PnL() (decimal.Decimal, bool) {
	if !p.IsClosed() {
		return decimal.Zero, false
	}
	return p.OpenValue().Add(p.CloseValue.Decimal), true
}

// Close stamps the position as closed. It is irreversible.
func (p *Position) Close(date time.Time, closeValue decimal.Decimal) error {
	if p.IsClosed() {
		return Violation("position %s already closed on %s", p.ID, p.ClosedAt.Format("2006-01-02"))
	}
	p.CloseValue = decimal.NewNullDecimal(closeValue)
	p.ClosedAt = &date
	return nil
}

func (p *Position) String() string {
	return fmt.Sprintf("%+d %s @ %s", p.Quantity, p.Option, p.OpenCost)
}
