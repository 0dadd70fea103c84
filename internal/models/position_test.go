package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPut_IntrinsicValue(t *testing.T) {
	put := NewPut(d("100"), day("2020-01-08"))

	tests := []struct {
		name       string
		underlying string
		want       string
		itm        bool
	}{
		{name: "deep itm", underlying: "80", want: "20", itm: true},
		{name: "slightly itm", underlying: "99.5", want: "0.5", itm: true},
		{name: "at the money", underlying: "100", want: "0", itm: false},
		{name: "otm", underlying: "120", want: "0", itm: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := d(tt.underlying)
			got := put.IntrinsicValue(u)
			if !got.Equal(d(tt.want)) {
				t.Fatalf("IntrinsicValue(%s) = %s, want %s", tt.underlying, got, tt.want)
			}
			if got.IsNegative() {
				t.Fatalf("IntrinsicValue(%s) is negative", tt.underlying)
			}
			if put.IsITM(u) != tt.itm {
				t.Fatalf("IsITM(%s) = %v, want %v", tt.underlying, put.IsITM(u), tt.itm)
			}
		})
	}
}

func TestCall_Moneyness(t *testing.T) {
	call := Option{Strike: d("100"), Expiration: day("2020-01-08"), Variant: Call}
	assert.True(t, call.IsITM(d("101")))
	assert.False(t, call.IsITM(d("99")))
	assert.True(t, call.IntrinsicValue(d("105")).Equal(d("5")))
}

func TestOption_ExpiryPredicates(t *testing.T) {
	put := NewPut(d("100"), day("2020-01-08"))

	assert.False(t, put.IsExpiring(day("2020-01-07")))
	assert.True(t, put.IsExpiring(day("2020-01-08")))
	assert.False(t, put.IsExpired(day("2020-01-08")))
	assert.True(t, put.IsExpired(day("2020-01-09")))
}

func TestNewPosition_RejectsZeroQuantity(t *testing.T) {
	_, err := NewPosition(NewPut(d("100"), day("2020-01-08")), 0, d("1"), day("2020-01-01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, IsFatal(err))
}

func TestPosition_CloseOnce(t *testing.T) {
	p, err := NewPosition(NewPut(d("100"), day("2020-01-08")), -1, d("1.0"), day("2020-01-01"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.IsClosed())

	_, ok := p.PnL()
	assert.False(t, ok)

	require.NoError(t, p.Close(day("2020-01-03"), d("-0.4")))
	assert.True(t, p.IsClosed())
	require.NotNil(t, p.ClosedAt)
	assert.True(t, p.ClosedAt.Equal(day("2020-01-03")))

	pnl, ok := p.PnL()
	require.True(t, ok)
	assert.True(t, pnl.Equal(d("0.6")), "pnl = %s", pnl)

	err = p.Close(day("2020-01-04"), d("-0.1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, p.CloseValue.Decimal.Equal(d("-0.4")), "close value must not change")
}

func TestPosition_String(t *testing.T) {
	p, err := NewPosition(NewPut(d("100"), day("2020-01-08")), -1, d("1.5"), day("2020-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "-1 put(100, 2020-01-08) @ 1.5", p.String())
}

func TestPosition_JSONOmitsCloseFieldsWhileOpen(t *testing.T) {
	p, err := NewPosition(NewPut(d("100"), day("2020-01-08")), -1, d("1.0"), day("2020-01-01"))
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var open map[string]any
	require.NoError(t, json.Unmarshal(raw, &open))
	assert.NotContains(t, open, "closed_at")
	assert.Nil(t, open["close_value"])

	require.NoError(t, p.Close(day("2020-01-03"), d("-0.4")))
	raw, err = json.Marshal(p)
	require.NoError(t, err)

	var back Position
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.ClosedAt)
	assert.True(t, back.ClosedAt.Equal(day("2020-01-03")))
	assert.True(t, back.CloseValue.Decimal.Equal(d("-0.4")))
}
