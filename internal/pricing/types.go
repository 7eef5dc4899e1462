package pricing

import (
	"fmt"
	"strings"
	"time"
)

// PricePoint is one observation of a product's discounted sale price and
// the units sold at that price during the period.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	UnitsSold int       `json:"unitsSold"`
	Revenue   float64   `json:"revenue"`
}

// Elasticity is the result of a log-log regression over a history.
type Elasticity struct {
	Coefficient float64 `json:"coefficient"`
	IsElastic   bool    `json:"isElastic"`
	Confidence  float64 `json:"confidence"`
	SampleSize  int     `json:"sampleSize"`
}

// CompetitorSummary holds price statistics over qualifying competitor listings.
type CompetitorSummary struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

func (c *CompetitorSummary) hasMedian() bool {
	return c != nil && c.Median > 0
}

type Objective string

const (
	ObjectiveProfit   Objective = "profit"
	ObjectiveRevenue  Objective = "revenue"
	ObjectiveBalanced Objective = "balanced"
)

// ParseObjective accepts "profit", "revenue" or "balanced" (case-insensitive).
// An empty string means profit.
func ParseObjective(s string) (Objective, error) {
	switch o := Objective(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return ObjectiveProfit, nil
	case ObjectiveProfit, ObjectiveRevenue, ObjectiveBalanced:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown objective %q, expected profit|revenue|balanced", ErrInvalidInput, s)
	}
}

// Prediction describes the expected performance of one candidate price.
type Prediction struct {
	Units      int     `json:"units"`
	Revenue    float64 `json:"revenue"`
	Profit     float64 `json:"profit"`
	Confidence float64 `json:"confidence"`
	MarginRate float64 `json:"marginRate"`
}

// Outcome is the result of one Search pass.
// Prediction is nil when no candidate was evaluated or none scored above zero.
type Outcome struct {
	OptimalPrice         float64     `json:"optimalPrice"`
	Prediction           *Prediction `json:"prediction,omitempty"`
	MarketMedianDeltaPct *float64    `json:"marketMedianDeltaPct,omitempty"`
}

// Params carries the analysis thresholds used around the core.
type Params struct {
	WindowDays        int
	MinDataPoints     int
	MinPriceChangePct float64
	MaxPriceChangePct float64
}

func DefaultParams() Params {
	return Params{
		WindowDays:        30,
		MinDataPoints:     7,
		MinPriceChangePct: -30,
		MaxPriceChangePct: 50,
	}
}
