package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPosition(t *testing.T, strike, expiration string, qty int, cost string) *Position {
	t.Helper()
	p, err := NewPosition(NewPut(d(strike), day(expiration)), qty, d(cost), day("2020-01-01"))
	require.NoError(t, err)
	return p
}

func TestWallet_AddPositionUpdatesCash(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		qty      int
		cost     string
		wantCash string
	}{
		{name: "sell one put", start: "0", qty: -1, cost: "1.0", wantCash: "1.0"},
		{name: "sell three puts", start: "10", qty: -3, cost: "0.5", wantCash: "11.5"},
		{name: "buy one put", start: "10", qty: 1, cost: "2.25", wantCash: "7.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWallet(d(tt.start))
			w.AddPosition(mustPosition(t, "100", "2020-01-08", tt.qty, tt.cost), true)
			assert.True(t, w.Cash.Equal(d(tt.wantCash)), "cash = %s, want %s", w.Cash, tt.wantCash)
			assert.Len(t, w.Positions, 1)
		})
	}
}

func TestWallet_AddPositionWithoutCashUpdate(t *testing.T) {
	w := NewWallet(d("5"))
	w.AddPosition(mustPosition(t, "100", "2020-01-08", -1, "1.0"), false)
	assert.True(t, w.Cash.Equal(d("5")))
}

func TestWallet_Queries(t *testing.T) {
	w := NewWallet(d("0"))
	expired := mustPosition(t, "100", "2020-01-03", -1, "1")
	expiring := mustPosition(t, "100", "2020-01-08", -1, "1")
	future := mustPosition(t, "100", "2020-01-15", -1, "1")
	closed := mustPosition(t, "100", "2020-01-15", -1, "1")
	w.AddPosition(expired, true)
	w.AddPosition(expiring, true)
	w.AddPosition(future, true)
	w.AddPosition(closed, true)
	require.NoError(t, w.ClosePosition(closed, day("2020-01-06"), d("-0.5")))

	date := day("2020-01-08")
	assert.ElementsMatch(t, []*Position{expiring, future}, w.OpenPositions(date))
	assert.ElementsMatch(t, []*Position{expiring}, w.ExpiringPositions(date))
	assert.ElementsMatch(t, []*Position{expired}, w.ExpiredPositions(date))
	assert.ElementsMatch(t, []*Position{closed}, w.ClosedPositions())
}

func TestWallet_ClosePositionNeverDoubleCounts(t *testing.T) {
	w := NewWallet(d("0"))
	p := mustPosition(t, "100", "2020-01-08", -1, "1.0")
	w.AddPosition(p, true)

	require.NoError(t, w.ClosePosition(p, day("2020-01-08"), d("-1.5")))
	assert.True(t, w.Cash.Equal(d("-0.5")))

	err := w.ClosePosition(p, day("2020-01-08"), d("-1.5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, w.Cash.Equal(d("-0.5")), "cash = %s", w.Cash)
}
