package models

import "time"

type Product struct {
	ID           int64     `json:"id"`
	NmID         int64     `json:"nmId"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	CurrentPrice float64   `json:"currentPrice"` // discounted price
	CostPrice    float64   `json:"costPrice"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
