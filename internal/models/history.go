package models

import (
	"time"

	"github.com/kjannette/price-optimizer/internal/pricing"
)

// HistoryRecord is one sales day for a product as stored in price_history.
type HistoryRecord struct {
	ID         int64     `json:"id"`
	NmID       int64     `json:"nmId"`
	Date       time.Time `json:"date"`
	SalesDay   string    `json:"salesDay"`
	Price      float64   `json:"price"`
	SalesCount int       `json:"salesCount"`
	Revenue    float64   `json:"revenue"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h HistoryRecord) PricePoint() pricing.PricePoint {
	return pricing.PricePoint{
		Timestamp: h.Date,
		Price:     h.Price,
		UnitsSold: h.SalesCount,
		Revenue:   h.Revenue,
	}
}

func PricePoints(records []HistoryRecord) []pricing.PricePoint {
	out := make([]pricing.PricePoint, len(records))
	for i, r := range records {
		out[i] = r.PricePoint()
	}
	return out
}
