package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
)

// MockStorage implements Interface in memory for testing
type MockStorage struct {
	saveError     error
	loadError     error
	runs          []RunRecord
	saveCallCount int
	loadCallCount int
	mu            sync.Mutex
}

// NewMockStorage creates a new mock storage for testing
func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

// SetSaveError makes Save and AddRun fail with err
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError makes Load fail with err
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// AddRun records the run unless a save error is configured.
func (m *MockStorage) AddRun(label string, result *backtest.Result) (*RunRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("nil result")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++
	if m.saveError != nil {
		return nil, fmt.Errorf("saving run: %w", m.saveError)
	}
	run := RunRecord{ID: uuid.NewString(), Label: label, CreatedAt: time.Now().UTC(), Result: result}
	m.runs = append(m.runs, run)
	return &run, nil
}

func (m *MockStorage) GetRun(id string) (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

func (m *MockStorage) LatestRun() (*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, ErrNoRuns
	}
	run := m.runs[len(m.runs)-1]
	return &run, nil
}

func (m *MockStorage) ListRuns() []RunSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunSummary, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, summarize(run))
	}
	return out
}

// Data persistence methods (mocked)
func (m *MockStorage) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCallCount++
	return m.saveError
}

func (m *MockStorage) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCallCount++
	return m.loadError
}

// GetSaveCallCount returns how many times a save was attempted
func (m *MockStorage) GetSaveCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCallCount
}

// GetLoadCallCount returns how many times Load was called
func (m *MockStorage) GetLoadCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCallCount
}

var _ Interface = (*MockStorage)(nil)
