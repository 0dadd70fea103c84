package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

var (
	// ErrQuoteNotFound is returned when an exact (expiration, strike) lookup misses.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrExhaustedMarket is returned by Advance when no later date exists.
	ErrExhaustedMarket = errors.New("market exhausted")
	// ErrUninitializedMarket is returned by queries issued before the first Advance.
	ErrUninitializedMarket = errors.New("market not initialized: call Advance first")
	// ErrUnsupportedVariant is returned when trading an option the quotes do not carry.
	ErrUnsupportedVariant = errors.New("unsupported option variant")
)

// QuoteNotFoundError describes the missing contract.
type QuoteNotFoundError struct {
	Date   time.Time
	Option models.Option
}

func (e *QuoteNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s on %s", ErrQuoteNotFound, e.Option, e.Date.Format("2006-01-02"))
}

// Is lets errors.Is match ErrQuoteNotFound.
func (e *QuoteNotFoundError) Is(target error) bool {
	return target == ErrQuoteNotFound
}
