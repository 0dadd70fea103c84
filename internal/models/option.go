// Package models provides the option, position and wallet types of the backtester.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Variant is the option right.
type Variant int

const (
	// Put gives the holder the right to sell at the strike.
	Put Variant = iota
	// Call gives the holder the right to buy at the strike.
	// Quotes only carry puts, so the market refuses to trade calls.
	Call
)

func (v Variant) String() string {
	switch v {
	case Put:
		return "put"
	case Call:
		return "call"
	default:
		return "unknown"
	}
}

// Option describes a single contract.
type Option struct {
	Strike     decimal.Decimal `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Variant    Variant         `json:"variant"`
}

// NewPut creates a put option.
func NewPut(strike decimal.Decimal, expiration time.Time) Option {
	return Option{Strike: strike, Expiration: expiration, Variant: Put}
}

// IsITM reports whether the option is in the money for the given underlying price.
func (o Option) IsITM(underlying decimal.Decimal) bool {
	switch o.Variant {
	case Put:
		return underlying.LessThan(o.Strike)
	case Call:
		return underlying.GreaterThan(o.Strike)
	default:
		return false
	}
}

// IsExpiring reports whether date is the expiration date.
func (o Option) IsExpiring(date time.Time) bool {
	return date.Equal(o.Expiration)
}

// IsExpired reports whether date is strictly past expiration.
func (o Option) IsExpired(date time.Time) bool {
	return date.After(o.Expiration)
}

// IntrinsicValue is never negative; callers apply the sign through the position quantity.
func (o Option) IntrinsicValue(underlying decimal.Decimal) decimal.Decimal {
	if !o.IsITM(underlying) {
		return decimal.Zero
	}
	return o.Strike.Sub(underlying).Abs()
}

func (o Option) String() string {
	return fmt.Sprintf("%s(%s, %s)", o.Variant, o.Strike, o.Expiration.Format("2006-01-02"))
}
