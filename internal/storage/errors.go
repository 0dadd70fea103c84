package storage

import "errors"

var (
	// ErrRunNotFound is returned when no stored run has the requested ID
	ErrRunNotFound = errors.New("run not found")
	// ErrNoRuns is returned by LatestRun on an empty store
	ErrNoRuns = errors.New("no runs stored")
)
