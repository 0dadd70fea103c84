// Package storage persists backtest results as JSON.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eddiefleurent/scranton_backtest/internal/backtest"
)

// JSONStorage keeps every run in one JSON file, rewritten atomically on save.
type JSONStorage struct {
	data     *StorageData
	filepath string
	mu       sync.RWMutex
}

// StorageData is the on-disk document.
type StorageData struct {
	LastUpdated time.Time   `json:"last_updated"`
	Runs        []RunRecord `json:"runs"`
}

// RunRecord is one stored backtest.
type RunRecord struct {
	CreatedAt time.Time        `json:"created_at"`
	Result    *backtest.Result `json:"result"`
	ID        string           `json:"id"`
	Label     string           `json:"label"`
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	CreatedAt  time.Time `json:"created_at"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Strategies int       `json:"strategies"`
	Ticks      int       `json:"ticks"`
}

// NewJSONStorage opens the store at filepath, loading it when the file exists.
func NewJSONStorage(filepath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filepath,
		data:     &StorageData{},
	}

	// Load existing data if file exists
	if _, err := os.Stat(filepath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}

	return s, nil
}

// Load replaces the in-memory data with the file contents.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}

	loaded := &StorageData{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("decoding %s: %w", s.filepath, err)
	}
	s.data = loaded
	return nil
}

// Save writes the data to disk.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *JSONStorage) saveLocked() error {
	s.data.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first
	tmpFile := s.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmpFile, s.filepath)
}

// AddRun stores result under a new ID and saves.
func (s *JSONStorage) AddRun(label string, result *backtest.Result) (*RunRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("nil result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := RunRecord{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	s.data.Runs = append(s.data.Runs, run)
	if err := s.saveLocked(); err != nil {
		s.data.Runs = s.data.Runs[:len(s.data.Runs)-1]
		return nil, fmt.Errorf("saving run: %w", err)
	}
	return &run, nil
}

// GetRun returns a copy of the run with id.
func (s *JSONStorage) GetRun(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Runs {
		if s.data.Runs[i].ID == id {
			run := s.data.Runs[i]
			return &run, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// LatestRun returns a copy of the most recently added run.
func (s *JSONStorage) LatestRun() (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data.Runs) == 0 {
		return nil, ErrNoRuns
	}
	run := s.data.Runs[len(s.data.Runs)-1]
	return &run, nil
}

// ListRuns summarizes the stored runs, oldest first.
func (s *JSONStorage) ListRuns() []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunSummary, 0, len(s.data.Runs))
	for _, run := range s.data.Runs {
		out = append(out, summarize(run))
	}
	return out
}

func summarize(run RunRecord) RunSummary {
	sum := RunSummary{ID: run.ID, Label: run.Label, CreatedAt: run.CreatedAt}
	if run.Result != nil {
		sum.Start = run.Result.Start
		sum.End = run.Result.End
		sum.Ticks = run.Result.Ticks
		sum.Strategies = len(run.Result.Strategies)
	}
	return sum
}
