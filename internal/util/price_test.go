package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		x        string
		tick     string
		expected string
	}{
		{
			name:     "basic rounding down",
			x:        "1.2345",
			tick:     "0.01",
			expected: "1.23",
		},
		{
			name:     "tie rounds away from zero",
			x:        "1.235",
			tick:     "0.01",
			expected: "1.24",
		},
		{
			name:     "negative tie rounds away from zero",
			x:        "-1.235",
			tick:     "0.01",
			expected: "-1.24",
		},
		{
			name:     "negative basic rounding",
			x:        "-1.2345",
			tick:     "0.01",
			expected: "-1.23",
		},
		{
			name:     "larger tick size",
			x:        "1.27",
			tick:     "0.05",
			expected: "1.25",
		},
		{
			name:     "exact multiple",
			x:        "1.25",
			tick:     "0.05",
			expected: "1.25",
		},
		{
			name:     "strike ladder",
			x:        "302.6",
			tick:     "5",
			expected: "305",
		},
		{
			name:     "zero tick returns input",
			x:        "1.2345",
			tick:     "0",
			expected: "1.2345",
		},
		{
			name:     "negative tick returns input",
			x:        "1.2345",
			tick:     "-0.01",
			expected: "1.2345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundToTick(decimal.RequireFromString(tt.x), decimal.RequireFromString(tt.tick))
			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("RoundToTick(%s, %s) = %s, want %s", tt.x, tt.tick, got, tt.expected)
			}
		})
	}
}

func TestPennyTick(t *testing.T) {
	if PennyTick.String() != "0.01" {
		t.Errorf("PennyTick = %s, want 0.01", PennyTick)
	}
}
