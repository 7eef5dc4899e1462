package models

import (
	"encoding/json"
	"time"

	"github.com/kjannette/price-optimizer/internal/pricing"
)

// Recommendation is the assembled result of optimizing one product.
type Recommendation struct {
	NmID               int64    `json:"nmId"`
	ProductName        string   `json:"productName"`
	CurrentPrice       float64  `json:"currentPrice"`
	OptimalPrice       float64  `json:"optimalPrice"`
	PriceChangePercent float64  `json:"priceChangePercent"`
	MarketMedianDelta  *float64 `json:"marketMedianDeltaPct,omitempty"`

	CurrentDailySales     int     `json:"currentDailySales"`
	PredictedDailySales   int     `json:"predictedDailySales"`
	CurrentDailyRevenue   float64 `json:"currentDailyRevenue"`
	PredictedDailyRevenue float64 `json:"predictedDailyRevenue"`
	CurrentDailyProfit    float64 `json:"currentDailyProfit"`
	PredictedDailyProfit  float64 `json:"predictedDailyProfit"`

	Elasticity pricing.Elasticity `json:"elasticity"`

	Recommendation string   `json:"recommendation"`
	RiskLevel      string   `json:"riskLevel"`
	Insights       Insights `json:"insights"`

	Scenarios          []pricing.Scenario  `json:"scenarios"`
	CompetitorAnalysis *CompetitorAnalysis `json:"competitorAnalysis,omitempty"`

	OptimizationID int64     `json:"optimizationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type BulkResult struct {
	TotalProducts                 int              `json:"totalProducts"`
	OptimizedProducts             int              `json:"optimizedProducts"`
	TotalPotentialProfitIncrease  float64          `json:"totalPotentialProfitIncrease"`
	TotalPotentialRevenueIncrease float64          `json:"totalPotentialRevenueIncrease"`
	Recommendations               []Recommendation `json:"recommendations"`
}

// Optimization is a persisted row of optimization_results.
type Optimization struct {
	ID                    int64           `json:"id"`
	NmID                  int64           `json:"nmId"`
	Objective             string          `json:"objective"`
	CurrentPrice          float64         `json:"currentPrice"`
	OptimalPrice          float64         `json:"optimalPrice"`
	PredictedRevenue      float64         `json:"predictedRevenue"`
	PredictedProfit       float64         `json:"predictedProfit"`
	PredictedSales        int             `json:"predictedSales"`
	ElasticityCoefficient float64         `json:"elasticityCoefficient"`
	ConfidenceScore       float64         `json:"confidenceScore"`
	RiskLevel             string          `json:"riskLevel"`
	Recommendation        string          `json:"recommendation"`
	InsightsJSON          json.RawMessage `json:"insights,omitempty"`
	CompetitorJSON        json.RawMessage `json:"competitorData,omitempty"`
	ScenariosJSON         json.RawMessage `json:"scenarios,omitempty"`
	Applied               bool            `json:"applied"`
	AppliedAt             *time.Time      `json:"appliedAt,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// ApplyResult reports an applied price change.
type ApplyResult struct {
	NmID           int64     `json:"nmId"`
	OptimizationID int64     `json:"optimizationId"`
	PreviousPrice  float64   `json:"previousPrice"`
	NewPrice       float64   `json:"newPrice"`
	ChangePercent  float64   `json:"changePercent"`
	AppliedAt      time.Time `json:"appliedAt"`
}

// CurrentPrice is a live price lookup result.
type CurrentPrice struct {
	NmID             int64     `json:"nmId"`
	Price            float64   `json:"price"`
	Source           string    `json:"source"` // cache, wb_api, wb_product_page
	CachedSecondsAgo int       `json:"cachedSecondsAgo"`
	Timestamp        time.Time `json:"timestamp"`
}
