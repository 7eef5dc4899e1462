package annotate

import (
	"context"
	"fmt"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

const (
	SourceLLM   = "llm"
	SourceRules = "rules"

	defaultReviewDays = 7
)

// Input is everything an annotator may draw on when explaining a
// recommendation.
type Input struct {
	ProductName  string
	Category     string
	CurrentPrice float64
	OptimalPrice float64
	CostPrice    float64
	Elasticity   pricing.Elasticity

	CurrentDailySales    int
	PredictedDailySales  int
	CurrentDailyProfit   float64
	PredictedDailyProfit float64

	Competitors *pricing.CompetitorSummary
}

func (in Input) changeFraction() float64 {
	if in.CurrentPrice == 0 {
		return 0
	}
	return (in.OptimalPrice - in.CurrentPrice) / in.CurrentPrice
}

type Annotator interface {
	Available() bool
	Annotate(ctx context.Context, in Input) (models.Insights, error)
}

// WithFallback tries primary and falls back to the rule annotator when
// primary is unavailable or fails.
type WithFallback struct {
	primary  Annotator
	fallback Rules
}

func NewWithFallback(primary Annotator) *WithFallback {
	return &WithFallback{primary: primary}
}

func (w *WithFallback) Available() bool { return true }

func (w *WithFallback) Annotate(ctx context.Context, in Input) (models.Insights, error) {
	if w.primary != nil && w.primary.Available() {
		ins, err := w.primary.Annotate(ctx, in)
		if err == nil {
			return ins, nil
		}
		fmt.Printf("[ANNOTATOR] LLM insights failed, using rules: %v\n", err)
	}
	return w.fallback.Annotate(ctx, in)
}
