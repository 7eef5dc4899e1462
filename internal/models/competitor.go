package models

import (
	"time"

	"github.com/kjannette/price-optimizer/internal/pricing"
)

// Listing is a marketplace product card reduced to the fields used for
// competitor comparison. Prices are in rubles.
type Listing struct {
	NmID            int64    `json:"nmId"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category"`
	PriceWithDisc   float64  `json:"priceWithDiscount"`
	OriginalPrice   float64  `json:"originalPrice"`
	DiscountPercent float64  `json:"discountPercent"`
	Rating          float64  `json:"rating"`
	ReviewsCount    int      `json:"reviewsCount"`
	Size            string   `json:"size"`
	AvailableSizes  []string `json:"availableSizes,omitempty"`
	SupplierID      int64    `json:"supplierId"`
}

type MarketPosition struct {
	CheaperCompetitors       int     `json:"cheaperCompetitors"`
	MoreExpensiveCompetitors int     `json:"moreExpensiveCompetitors"`
	Percentile               float64 `json:"percentile"`
	Description              string  `json:"description"`
}

type PriceComparison struct {
	VsMin    float64 `json:"vsMin"`
	VsAvg    float64 `json:"vsAvg"`
	VsMedian float64 `json:"vsMedian"`
	VsMax    float64 `json:"vsMax"`
}

type PriceBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type CompetitorAnalysis struct {
	OurProduct       Listing                    `json:"ourProduct"`
	Competitors      []Listing                  `json:"competitors"`
	TotalCompetitors int                        `json:"totalCompetitors"`
	Summary          *pricing.CompetitorSummary `json:"summary,omitempty"`
	Spread           float64                    `json:"spread"`
	Position         *MarketPosition            `json:"position,omitempty"`
	Comparison       *PriceComparison           `json:"comparison,omitempty"`
	OptimalRange     *PriceBand                 `json:"optimalRange,omitempty"`
	Recommendations  []string                   `json:"recommendations,omitempty"`
	TopCompetitors   []Listing                  `json:"topCompetitors,omitempty"`
	Message          string                     `json:"message,omitempty"`
	Timestamp        time.Time                  `json:"timestamp"`
}

// PriceSummary returns the summary usable by the price search, or nil when
// no competitors qualified.
func (a *CompetitorAnalysis) PriceSummary() *pricing.CompetitorSummary {
	if a == nil || a.TotalCompetitors == 0 || a.Summary == nil {
		return nil
	}
	return a.Summary
}
