package storage

import (
	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
)

// Interface defines the contract for backtest result persistence.
//
// Implementations must be safe for concurrent use. The provided JSONStorage
// uses sync.RWMutex to serialize access.
type Interface interface {
	// Run management
	AddRun(label string, result *backtest.Result) (*RunRecord, error)
	GetRun(id string) (*RunRecord, error)
	LatestRun() (*RunRecord, error)
	ListRuns() []RunSummary

	// Data persistence
	Save() error
	Load() error
}

// NewStorage creates a new storage implementation (currently JSON-based)
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}

// Ensure JSONStorage implements Interface
var _ Interface = (*JSONStorage)(nil)
