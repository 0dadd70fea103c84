package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

func TestTickStateMachine_FullTick(t *testing.T) {
	sm := NewTickStateMachine()
	if sm.Phase() != PhaseIdle {
		t.Fatalf("initial phase should be idle, got %s", sm.Phase())
	}

	require.NoError(t, sm.Begin(day("2020-01-01")))
	assert.True(t, sm.CanTrade())
	require.NoError(t, sm.Transition(PhaseManaging, "expiring_handled"))
	require.NoError(t, sm.Transition(PhaseEntry, "no_open_positions"))
	require.NoError(t, sm.Transition(PhaseDone, "entry_complete"))
	assert.False(t, sm.CanTrade())
	assert.Equal(t, PhaseEntry, sm.PreviousPhase())

	require.NoError(t, sm.Begin(day("2020-01-02")))
	assert.Equal(t, 2, sm.TransitionCount(PhaseExpiring))
}

func TestTickStateMachine_RejectsOutOfOrder(t *testing.T) {
	tests := []struct {
		name      string
		to        TickPhase
		condition string
	}{
		{name: "entry before expiring", to: PhaseEntry, condition: "no_open_positions"},
		{name: "managing before expiring", to: PhaseManaging, condition: "expiring_handled"},
		{name: "wrong condition", to: PhaseExpiring, condition: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewTickStateMachine()
			err := sm.Transition(tt.to, tt.condition)
			require.Error(t, err)
			assert.True(t, models.IsFatal(err))
			assert.Equal(t, PhaseIdle, sm.Phase(), "phase must not change after a rejected transition")
		})
	}
}

func TestTickStateMachine_OneTickPerDate(t *testing.T) {
	sm := NewTickStateMachine()
	require.NoError(t, sm.Begin(day("2020-01-02")))
	require.NoError(t, sm.Transition(PhaseManaging, "expiring_handled"))
	require.NoError(t, sm.Transition(PhaseDone, "positions_held"))

	assert.True(t, models.IsFatal(sm.Begin(day("2020-01-02"))))
	assert.True(t, models.IsFatal(sm.Begin(day("2020-01-01"))))
}

func TestTickStateMachine_SkippingEntryIsInvalid(t *testing.T) {
	sm := NewTickStateMachine()
	require.NoError(t, sm.Begin(day("2020-01-02")))
	require.NoError(t, sm.Transition(PhaseManaging, "expiring_handled"))
	require.NoError(t, sm.Transition(PhaseEntry, "no_open_positions"))
	assert.Error(t, sm.Transition(PhaseDone, "positions_held"))
}

func TestBase_RunTwiceOnSameDate(t *testing.T) {
	m := newMarket(t, snapshot("2020-01-01", "100", row("100", "2020-01-03", 2, "1.0", "1.1")))
	s := NewWeeklyPuts(m, Params{IdealStrike: d("1.0")})
	tick(t, m, s)

	err := s.Run()
	assert.True(t, models.IsFatal(err))
	assert.Len(t, s.Wallet().Positions, 1, "second run must not trade")
}

func TestBase_RunBeforeAdvance(t *testing.T) {
	m := newMarket(t, snapshot("2020-01-01", "100", row("100", "2020-01-03", 2, "1.0", "1.1")))
	s := NewWeeklyPuts(m, Params{IdealStrike: d("1.0")})
	assert.Error(t, s.Run())
	_, err := s.CurrentValue()
	assert.Error(t, err)
}

func TestBase_WritePutGuards(t *testing.T) {
	m := newMarket(t, snapshot("2020-01-01", "100", row("100", "2020-01-03", 2, "1.0", "1.1")))
	b := NewBase("raw", m, decimal.Zero)
	require.NoError(t, m.Advance())

	_, err := b.WritePut(d("100"), 2)
	assert.True(t, models.IsFatal(err), "writing outside a tick is rejected")

	require.NoError(t, b.sm.Begin(day("2020-01-01")))
	_, err = b.WritePut(decimal.Zero, 2)
	assert.True(t, models.IsFatal(err), "non-positive strike is rejected")

	p, err := b.WritePut(d("100"), 2)
	require.NoError(t, err)
	assert.True(t, b.Wallet().Cash.Equal(p.OpenCost))
}

// closeAll relies on Base's default expiring handler.
type closeAll struct {
	*Base
	entries int
}

func (c *closeAll) HandleNoOpenPositions() error {
	c.entries++
	_, err := c.WritePut(d("100"), 7)
	return err
}

func TestBase_DefaultExpiringHandlerClosesAll(t *testing.T) {
	m := newMarket(t,
		snapshot("2020-01-01", "100", row("100", "2020-01-03", 2, "1.0", "1.1")),
		snapshot("2020-01-03", "101",
			row("100", "2020-01-03", 0, "0.0", "0.05"),
			row("100", "2020-01-10", 7, "0.7", "0.8"),
		),
	)
	s := &closeAll{Base: NewBase("closer", m, decimal.Zero)}
	s.Bind(s)

	tick(t, m, s)
	tick(t, m, s)

	first := s.Wallet().Positions[0]
	require.True(t, first.IsClosed())
	assert.True(t, first.CloseValue.Decimal.IsZero(), "otm expiry closes at zero")
	assert.Equal(t, 2, s.entries, "a closed position frees the slot the same day")
	assert.True(t, s.Wallet().Cash.Equal(d("1.7")))
}

func TestRegistry(t *testing.T) {
	m := newMarket(t, snapshot("2020-01-01", "100", row("100", "2020-01-03", 2, "1.0", "1.1")))

	assert.Equal(t, []string{KindMonthlyPuts, KindWeeklyPuts}, Kinds())

	s, err := New(KindMonthlyPuts, m, Params{IdealStrike: d("0.9"), HoldTheStrike: true})
	require.NoError(t, err)
	assert.Equal(t, "SellMonthlyPuts(0.90,hold)", s.Name())

	_, err = New("iron_condor", m, Params{IdealStrike: d("1")})
	assert.Error(t, err)
	_, err = New(KindWeeklyPuts, m, Params{})
	assert.Error(t, err)
}
