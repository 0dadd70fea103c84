// Package backtest drives strategies over a historical market and collects the results.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/scranton_backtest/internal/market"
	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
	"github.com/eddiefleurent/scranton_backtest/internal/strategy"
)

// Policy decides what a failing strategy does to the rest of the run.
type Policy string

const (
	// PolicyHaltStrategy stops only the failing strategy
	PolicyHaltStrategy Policy = "halt_strategy"
	// PolicyAbort stops the whole run
	PolicyAbort Policy = "abort"
)

// ParsePolicy validates a policy name. The empty string selects PolicyHaltStrategy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyHaltStrategy:
		return PolicyHaltStrategy, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown error policy %q (want %s or %s)", s, PolicyHaltStrategy, PolicyAbort)
	}
}

// Point is one sample of a strategy's state after a tick.
type Point struct {
	Date        time.Time       `json:"date"`
	Cash        decimal.Decimal `json:"cash"`
	Value       decimal.Decimal `json:"value"`
	MarketValue decimal.Decimal `json:"market_value"`
	Underlying  decimal.Decimal `json:"underlying"`
	Open        int             `json:"open"`
}

// StrategyResult is the equity curve and outcome of one strategy.
type StrategyResult struct {
	Name       string     `json:"name"`
	Curve      []Point    `json:"curve"`
	Statistics Statistics `json:"statistics"`
	Halted     bool       `json:"halted"`
	HaltedAt   *time.Time `json:"halted_at,omitempty"`
	HaltReason string     `json:"halt_reason,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	Ticks      int               `json:"ticks"`
	Strategies []*StrategyResult `json:"strategies"`
}

// Runner advances the market and runs every strategy on each snapshot.
type Runner struct {
	market     *market.Market
	logger     logrus.FieldLogger
	policy     Policy
	strategies []strategy.Strategy
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPolicy sets the error policy.
func WithPolicy(p Policy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

// NewRunner creates a runner. The runner is the only thing that may advance m.
func NewRunner(m *market.Market, strategies []strategy.Strategy, opts ...Option) *Runner {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	r := &Runner{
		market:     m,
		strategies: strategies,
		logger:     silent,
		policy:     PolicyHaltStrategy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run walks the market to its end. Under PolicyAbort the first strategy error
// ends the run and is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if len(r.strategies) == 0 {
		return nil, errors.New("no strategies to run")
	}

	result := &Result{Strategies: make([]*StrategyResult, len(r.strategies))}
	for i, s := range r.strategies {
		result.Strategies[i] = &StrategyResult{Name: s.Name()}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run interrupted after %d ticks: %w", result.Ticks, err)
		}
		if err := r.market.Advance(); err != nil {
			if errors.Is(err, market.ErrExhaustedMarket) {
				break
			}
			return nil, err
		}
		date, err := r.market.CurrentDate()
		if err != nil {
			return nil, err
		}
		if result.Ticks == 0 {
			result.Start = date
		}
		result.End = date
		result.Ticks++

		active := 0
		for i, s := range r.strategies {
			sr := result.Strategies[i]
			if sr.Halted {
				continue
			}
			point, err := r.step(date, s)
			if err != nil {
				if r.policy == PolicyAbort {
					return nil, fmt.Errorf("strategy %s on %s: %w", s.Name(), date.Format(quotes.DateLayout), err)
				}
				sr.Halted = true
				haltedAt := date
				sr.HaltedAt = &haltedAt
				sr.HaltReason = err.Error()
				r.logger.WithError(err).WithFields(logrus.Fields{
					"strategy": s.Name(),
					"date":     date.Format(quotes.DateLayout),
				}).Warn("Strategy halted")
				continue
			}
			sr.Curve = append(sr.Curve, point)
			active++
		}

		r.logger.WithFields(logrus.Fields{
			"date":   date.Format(quotes.DateLayout),
			"active": active,
		}).Debug("Tick complete")

		if active == 0 {
			r.logger.Warn("All strategies halted, stopping run")
			break
		}
	}

	for i, s := range r.strategies {
		sr := result.Strategies[i]
		stats, err := ComputeStatistics(s.Wallet(), sr.Curve)
		if err != nil {
			return nil, fmt.Errorf("statistics for %s: %w", s.Name(), err)
		}
		sr.Statistics = stats
	}

	r.logger.WithFields(logrus.Fields{
		"ticks":      result.Ticks,
		"strategies": len(result.Strategies),
	}).Info("Backtest finished")
	return result, nil
}

func (r *Runner) step(date time.Time, s strategy.Strategy) (Point, error) {
	if err := s.Run(); err != nil {
		return Point{}, err
	}
	value, err := s.CurrentValue()
	if err != nil {
		return Point{}, err
	}
	marketValue, err := s.CurrentMarketValue()
	if err != nil {
		return Point{}, err
	}
	open, err := s.OpenPositions()
	if err != nil {
		return Point{}, err
	}
	underlying, err := r.market.UnderlyingLast()
	if err != nil {
		return Point{}, err
	}
	return Point{
		Date:        date,
		Cash:        s.Wallet().Cash,
		Value:       value,
		MarketValue: marketValue,
		Underlying:  underlying,
		Open:        len(open),
	}, nil
}
