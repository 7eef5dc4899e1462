package risk

import (
	"context"
	"errors"
	"fmt"
)

var ErrPriceChangeBlocked = errors.New("price change blocked")

// DailyApplyCounter abstracts the applied-change counting dependency so
// Guardian can be tested without a real database.
type DailyApplyCounter interface {
	CountAppliedToday(ctx context.Context) (int, error)
}

// Limits holds the price-change thresholds from config.
// A zero value for MaxDailyUpdates disables the daily check; the percent
// bounds are always enforced.
type Limits struct {
	MinChangePercent float64 // e.g. -30 allows at most a 30% cut
	MaxChangePercent float64 // e.g. 50 allows at most a 50% raise
	MaxDailyUpdates  int
}

type Guardian struct {
	limits  Limits
	counter DailyApplyCounter
}

func NewGuardian(limits Limits, counter DailyApplyCounter) *Guardian {
	return &Guardian{limits: limits, counter: counter}
}

// PreApplyCheck validates a price change before it is pushed to the
// marketplace. Returns nil if the change is allowed, an error wrapping
// ErrPriceChangeBlocked otherwise.
func (g *Guardian) PreApplyCheck(ctx context.Context, currentPrice, newPrice float64) error {
	if currentPrice <= 0 || newPrice <= 0 {
		return fmt.Errorf("%w: prices must be positive (current %.2f, new %.2f)",
			ErrPriceChangeBlocked, currentPrice, newPrice)
	}

	change := ChangePercent(currentPrice, newPrice)
	if change < g.limits.MinChangePercent {
		return fmt.Errorf("%w: cut of %.1f%% exceeds limit of %.1f%%",
			ErrPriceChangeBlocked, change, g.limits.MinChangePercent)
	}
	if change > g.limits.MaxChangePercent {
		return fmt.Errorf("%w: raise of %.1f%% exceeds limit of +%.1f%%",
			ErrPriceChangeBlocked, change, g.limits.MaxChangePercent)
	}

	if g.limits.MaxDailyUpdates > 0 && g.counter != nil {
		count, err := g.counter.CountAppliedToday(ctx)
		if err != nil {
			return fmt.Errorf("%w: unable to verify daily update count: %v", ErrPriceChangeBlocked, err)
		}
		if count >= g.limits.MaxDailyUpdates {
			return fmt.Errorf("%w: daily limit of %d price updates reached (%d applied today)",
				ErrPriceChangeBlocked, g.limits.MaxDailyUpdates, count)
		}
	}

	return nil
}

func ChangePercent(currentPrice, newPrice float64) float64 {
	return (newPrice - currentPrice) / currentPrice * 100
}
