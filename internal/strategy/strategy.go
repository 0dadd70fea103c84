// Package strategy implements the per-tick decision engine that trades a market into a wallet.
package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/scranton_backtest/internal/market"
	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

// Strategy is what the orchestrator drives: one Run per market date, then valuation queries.
type Strategy interface {
	Name() string
	Run() error
	Wallet() *models.Wallet
	CurrentValue() (decimal.Decimal, error)
	CurrentMarketValue() (decimal.Decimal, error)
	OpenPositions() ([]*models.Position, error)
}

// Venue is the view of the market a strategy trades against. It cannot move
// the market forward; only the orchestrator advances it.
type Venue interface {
	CurrentDate() (time.Time, error)
	UnderlyingLast() (decimal.Decimal, error)
	SellToOpen(idealStrike decimal.Decimal, idealDTE int) (*models.Position, error)
	Close(p *models.Position, dryRun bool) (decimal.Decimal, error)
	Buy(option models.Option) (decimal.Decimal, error)
	Sell(option models.Option) (decimal.Decimal, error)
}

var _ Venue = (*market.Market)(nil)

// Hooks are the decisions a concrete strategy makes. Base supplies defaults for
// HandleExpiringPositions and HandleOpenPositions; HandleNoOpenPositions is required.
type Hooks interface {
	HandleExpiringPositions(positions []*models.Position) error
	HandleOpenPositions(positions []*models.Position) error
	HandleNoOpenPositions() error
}

// Base owns the wallet and runs the tick state machine over the bound hooks.
type Base struct {
	market Venue
	wallet *models.Wallet
	sm     *TickStateMachine
	hooks  Hooks
	name   string
}

// NewBase creates the shared part of a strategy. Concrete strategies must call Bind.
func NewBase(name string, m Venue, capital decimal.Decimal) *Base {
	return &Base{
		name:   name,
		market: m,
		wallet: models.NewWallet(capital),
		sm:     NewTickStateMachine(),
	}
}

// Bind sets the hooks Run dispatches to, normally the concrete strategy itself.
func (b *Base) Bind(h Hooks) {
	b.hooks = h
}

// Name returns the display name.
func (b *Base) Name() string {
	return b.name
}

// Wallet returns the owned wallet.
func (b *Base) Wallet() *models.Wallet {
	return b.wallet
}

// Market returns the venue the strategy trades.
func (b *Base) Market() Venue {
	return b.market
}

// Phase returns the current tick phase.
func (b *Base) Phase() TickPhase {
	return b.sm.Phase()
}

// Run executes one tick: expiring positions, then open positions, then entry.
func (b *Base) Run() error {
	if b.hooks == nil {
		return fmt.Errorf("strategy %s: hooks not bound", b.name)
	}
	if b.sm.Phase() == PhaseError {
		return models.Violation("strategy %s halted after a failed tick", b.name)
	}
	date, err := b.market.CurrentDate()
	if err != nil {
		return err
	}
	if err := b.sm.Begin(date); err != nil {
		return err
	}

	if expiring := b.wallet.ExpiringPositions(date); len(expiring) > 0 {
		if err := b.hooks.HandleExpiringPositions(expiring); err != nil {
			return b.fail("handling expiring positions", err)
		}
	}
	if err := b.sm.Transition(PhaseManaging, "expiring_handled"); err != nil {
		return err
	}

	if open := b.wallet.OpenPositions(date); len(open) > 0 {
		if err := b.hooks.HandleOpenPositions(open); err != nil {
			return b.fail("handling open positions", err)
		}
	}

	if len(b.wallet.OpenPositions(date)) > 0 {
		return b.sm.Transition(PhaseDone, "positions_held")
	}
	if err := b.sm.Transition(PhaseEntry, "no_open_positions"); err != nil {
		return err
	}
	if err := b.hooks.HandleNoOpenPositions(); err != nil {
		return b.fail("opening positions", err)
	}
	return b.sm.Transition(PhaseDone, "entry_complete")
}

func (b *Base) fail(step string, err error) error {
	if terr := b.sm.Transition(PhaseError, "hook_failed"); terr != nil {
		return fmt.Errorf("%s: %w (state machine: %v)", step, err, terr)
	}
	return fmt.Errorf("%s: %w", step, err)
}

// HandleExpiringPositions closes every expiring position.
func (b *Base) HandleExpiringPositions(positions []*models.Position) error {
	for _, p := range positions {
		if _, err := b.ClosePosition(p); err != nil {
			return err
		}
	}
	return nil
}

// HandleOpenPositions does nothing.
func (b *Base) HandleOpenPositions([]*models.Position) error {
	return nil
}

// WritePut sells one put near the ideal strike and DTE and books the premium.
func (b *Base) WritePut(idealStrike decimal.Decimal, idealDTE int) (*models.Position, error) {
	if !idealStrike.IsPositive() {
		return nil, models.Violation("ideal strike must be > 0 (got %s)", idealStrike)
	}
	if !b.sm.CanTrade() {
		return nil, models.Violation("write put outside a tick (phase %s)", b.sm.Phase())
	}
	p, err := b.market.SellToOpen(idealStrike, idealDTE)
	if err != nil {
		return nil, fmt.Errorf("writing put: %w", err)
	}
	b.wallet.AddPosition(p, true)
	return p, nil
}

// ClosePosition buys back or sells out p at today's quotes and books the value into cash.
func (b *Base) ClosePosition(p *models.Position) (decimal.Decimal, error) {
	if !b.sm.CanTrade() {
		return decimal.Zero, models.Violation("close outside a tick (phase %s)", b.sm.Phase())
	}
	date, err := b.market.CurrentDate()
	if err != nil {
		return decimal.Zero, err
	}
	value, err := b.market.Close(p, true)
	if err != nil {
		return decimal.Zero, fmt.Errorf("closing %s: %w", p, err)
	}
	if err := b.wallet.ClosePosition(p, date, value); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// OpenPositions returns the wallet's open positions on the current date.
func (b *Base) OpenPositions() ([]*models.Position, error) {
	date, err := b.market.CurrentDate()
	if err != nil {
		return nil, err
	}
	return b.wallet.OpenPositions(date), nil
}

// CurrentValue is cash plus the signed intrinsic value of open positions.
func (b *Base) CurrentValue() (decimal.Decimal, error) {
	underlying, err := b.market.UnderlyingLast()
	if err != nil {
		return decimal.Zero, err
	}
	open, err := b.OpenPositions()
	if err != nil {
		return decimal.Zero, err
	}
	value := b.wallet.Cash
	for _, p := range open {
		qty := decimal.NewFromInt(int64(p.Quantity))
		value = value.Add(qty.Mul(p.Option.IntrinsicValue(underlying)))
	}
	return value, nil
}

// CurrentMarketValue is cash plus what closing every open position would realize now.
func (b *Base) CurrentMarketValue() (decimal.Decimal, error) {
	open, err := b.OpenPositions()
	if err != nil {
		return decimal.Zero, err
	}
	value := b.wallet.Cash
	for _, p := range open {
		closeValue, err := b.market.Close(p, true)
		if err != nil {
			return decimal.Zero, fmt.Errorf("valuing %s: %w", p, err)
		}
		value = value.Add(closeValue)
	}
	return value, nil
}
