package models

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a programming error in strategy logic or corrupted data.
// Runs that hit it must not continue with the affected wallet.
var ErrInvariantViolation = errors.New("invariant violation")

// InvariantViolation carries the broken invariant.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, e.Msg)
}

// Is lets errors.Is match ErrInvariantViolation.
func (e *InvariantViolation) Is(target error) bool {
	return target == ErrInvariantViolation
}

// Violation builds an InvariantViolation from a format string.
func Violation(format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err must abort the affected strategy.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
