package strategy

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	// KindWeeklyPuts selects WeeklyPuts
	KindWeeklyPuts = "weekly_puts"
	// KindMonthlyPuts selects MonthlyPuts
	KindMonthlyPuts = "monthly_puts"
)

// Params configure a put-writing strategy.
type Params struct {
	Capital       decimal.Decimal
	IdealStrike   decimal.Decimal // multiplier of the underlying: 1.0 is ATM, 0.9 is 10% OTM
	HoldTheStrike bool
}

var constructors = map[string]func(Venue, Params) Strategy{
	KindWeeklyPuts:  func(m Venue, p Params) Strategy { return NewWeeklyPuts(m, p) },
	KindMonthlyPuts: func(m Venue, p Params) Strategy { return NewMonthlyPuts(m, p) },
}

// New builds the strategy registered under kind.
func New(kind string, m Venue, p Params) (Strategy, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown strategy kind %q", kind)
	}
	if !p.IdealStrike.IsPositive() {
		return nil, fmt.Errorf("strategy %s: ideal strike must be > 0 (got %s)", kind, p.IdealStrike)
	}
	return ctor(m, p), nil
}

// Kinds returns the registered strategy kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
