package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient history")
	ErrInvalidInput     = errors.New("invalid input")
)

// InsufficientDataError reports how many usable points a history had
// against the configured minimum.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient history: need at least %d points with positive price and sales, got %d", e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ValidSampleSize counts points usable for analysis (price > 0 and units > 0).
func ValidSampleSize(history []PricePoint) int {
	n := 0
	for _, p := range history {
		if usable(p) {
			n++
		}
	}
	return n
}

// RequireSample returns an *InsufficientDataError when history has fewer
// than min usable points.
func RequireSample(history []PricePoint, min int) error {
	if have := ValidSampleSize(history); have < min {
		return &InsufficientDataError{Have: have, Need: min}
	}
	return nil
}

// ValidateProductPrices rejects non-positive current or cost prices before
// they reach the estimator or the search.
func ValidateProductPrices(currentPrice, costPrice float64) error {
	if costPrice <= 0 {
		return fmt.Errorf("%w: cost price must be positive, got %.2f", ErrInvalidInput, costPrice)
	}
	if currentPrice <= 0 {
		return fmt.Errorf("%w: current price must be positive, got %.2f", ErrInvalidInput, currentPrice)
	}
	return nil
}
