package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/scranton_backtest/internal/market"
	"github.com/eddiefleurent/scranton_backtest/internal/strategy"
)

// StrategySpec names one strategy configuration.
type StrategySpec struct {
	Kind          string
	IdealStrike   decimal.Decimal
	HoldTheStrike bool
}

// Sweep expands the cartesian product of kinds, strikes and hold flags, in that
// nesting order. An empty holds list means no hold.
func Sweep(kinds []string, strikes []decimal.Decimal, holds []bool) []StrategySpec {
	if len(holds) == 0 {
		holds = []bool{false}
	}
	specs := make([]StrategySpec, 0, len(kinds)*len(strikes)*len(holds))
	for _, kind := range kinds {
		for _, strike := range strikes {
			for _, hold := range holds {
				specs = append(specs, StrategySpec{Kind: kind, IdealStrike: strike, HoldTheStrike: hold})
			}
		}
	}
	return specs
}

// BuildStrategies creates one strategy per spec, each with its own wallet funded with capital.
func BuildStrategies(m *market.Market, capital decimal.Decimal, specs []StrategySpec) ([]strategy.Strategy, error) {
	out := make([]strategy.Strategy, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		s, err := strategy.New(spec.Kind, m, strategy.Params{
			Capital:       capital,
			IdealStrike:   spec.IdealStrike,
			HoldTheStrike: spec.HoldTheStrike,
		})
		if err != nil {
			return nil, err
		}
		if seen[s.Name()] {
			return nil, fmt.Errorf("duplicate strategy %s", s.Name())
		}
		seen[s.Name()] = true
		out = append(out, s)
	}
	return out, nil
}
