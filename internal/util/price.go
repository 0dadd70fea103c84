// Package util provides common utility functions for price calculations.
package util

import "github.com/shopspring/decimal"

// PennyTick is the quoting increment of the synthetic chains.
var PennyTick = decimal.New(1, -2)

// RoundToTick rounds x to the nearest tick increment, ties away from zero.
// For example, with tick=0.01, 1.2345 becomes 1.23 and 1.235 becomes 1.24.
func RoundToTick(x, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return x
	}
	return x.Div(tick).Round(0).Mul(tick)
}
