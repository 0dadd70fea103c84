package strategy

import (
	"time"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

// TickPhase is the step of the per-tick state machine a strategy is in.
type TickPhase string

const (
	// PhaseIdle is the state between ticks
	PhaseIdle TickPhase = "idle"
	// PhaseExpiring handles positions expiring today; it always runs first
	PhaseExpiring TickPhase = "expiring"
	// PhaseManaging adjusts or rolls positions that remain open
	PhaseManaging TickPhase = "managing"
	// PhaseEntry opens new positions when none are open
	PhaseEntry TickPhase = "entry"
	// PhaseDone means the tick finished
	PhaseDone TickPhase = "done"
	// PhaseError means a hook failed; the strategy must not run again
	PhaseError TickPhase = "error"
)

// TickTransition defines a valid phase transition.
type TickTransition struct {
	From        TickPhase
	To          TickPhase
	Condition   string
	Description string
}

// ValidTickTransitions lists every allowed move, in the order a tick walks them.
var ValidTickTransitions = []TickTransition{
	{PhaseIdle, PhaseExpiring, "tick_started", "New market date"},
	{PhaseDone, PhaseExpiring, "tick_started", "Next market date"},
	{PhaseExpiring, PhaseManaging, "expiring_handled", "Expiring positions closed or left to lapse"},
	{PhaseManaging, PhaseEntry, "no_open_positions", "Nothing open, look for an entry"},
	{PhaseManaging, PhaseDone, "positions_held", "Open positions kept"},
	{PhaseEntry, PhaseDone, "entry_complete", "Entry handled"},

	{PhaseExpiring, PhaseError, "hook_failed", "Expiring handler failed"},
	{PhaseManaging, PhaseError, "hook_failed", "Open position handler failed"},
	{PhaseEntry, PhaseError, "hook_failed", "Entry handler failed"},
}

// TickStateMachine enforces the mandatory order of a tick and one tick per date.
type TickStateMachine struct {
	lastDate        time.Time
	transitionCount map[TickPhase]int
	currentPhase    TickPhase
	previousPhase   TickPhase
}

// NewTickStateMachine creates an idle state machine.
func NewTickStateMachine() *TickStateMachine {
	return &TickStateMachine{
		currentPhase:    PhaseIdle,
		previousPhase:   PhaseIdle,
		transitionCount: make(map[TickPhase]int),
	}
}

// Phase returns the current phase.
func (sm *TickStateMachine) Phase() TickPhase {
	return sm.currentPhase
}

// PreviousPhase returns the phase before the last transition.
func (sm *TickStateMachine) PreviousPhase() TickPhase {
	return sm.previousPhase
}

// Begin starts the tick for date. A date can only be run once and dates must increase.
func (sm *TickStateMachine) Begin(date time.Time) error {
	if !sm.lastDate.IsZero() && !date.After(sm.lastDate) {
		return models.Violation("tick for %s already ran (last %s)",
			date.Format("2006-01-02"), sm.lastDate.Format("2006-01-02"))
	}
	if err := sm.Transition(PhaseExpiring, "tick_started"); err != nil {
		return err
	}
	sm.lastDate = date
	return nil
}

// Transition moves to a new phase.
func (sm *TickStateMachine) Transition(to TickPhase, condition string) error {
	if !sm.isTransitionDefined(to, condition) {
		return models.Violation("invalid tick transition from %s to %s with condition '%s'",
			sm.currentPhase, to, condition)
	}
	sm.previousPhase = sm.currentPhase
	sm.currentPhase = to
	sm.transitionCount[to]++
	return nil
}

func (sm *TickStateMachine) isTransitionDefined(to TickPhase, condition string) bool {
	for _, t := range ValidTickTransitions {
		if t.From == sm.currentPhase && t.To == to && t.Condition == condition {
			return true
		}
	}
	return false
}

// TransitionCount returns how many times the machine entered phase.
func (sm *TickStateMachine) TransitionCount(phase TickPhase) int {
	return sm.transitionCount[phase]
}

// CanTrade reports whether the current phase may open or close positions.
func (sm *TickStateMachine) CanTrade() bool {
	switch sm.currentPhase {
	case PhaseExpiring, PhaseManaging, PhaseEntry:
		return true
	default:
		return false
	}
}
