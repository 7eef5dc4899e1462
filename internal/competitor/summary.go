package competitor

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

const topCompetitors = 5

// Filter keeps listings comparable to own: not own, not from the same
// supplier, at least minReviews reviews, offered in own's size when that
// is known, and with a price. At most max listings are kept in search order.
func Filter(own models.Listing, listings []models.Listing, minReviews, max int) []models.Listing {
	var out []models.Listing
	for _, l := range listings {
		if l.NmID == own.NmID {
			continue
		}
		if own.SupplierID != 0 && l.SupplierID == own.SupplierID {
			continue
		}
		if l.ReviewsCount < minReviews {
			continue
		}
		if own.Size != "" && own.Size != "N/A" && !slices.Contains(l.AvailableSizes, own.Size) {
			continue
		}
		if l.PriceWithDisc <= 0 {
			continue
		}
		out = append(out, l)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// Summarize computes min, max, mean and the upper median of the listing
// prices. It returns nil for an empty slice.
func Summarize(listings []models.Listing) *pricing.CompetitorSummary {
	if len(listings) == 0 {
		return nil
	}
	prices := make([]float64, len(listings))
	var sum float64
	for i, l := range listings {
		prices[i] = l.PriceWithDisc
		sum += l.PriceWithDisc
	}
	sort.Float64s(prices)

	return &pricing.CompetitorSummary{
		Min:     prices[0],
		Max:     prices[len(prices)-1],
		Average: round(sum/float64(len(prices)), 2),
		Median:  round(prices[len(prices)/2], 2),
	}
}

// Build assembles the full analysis of own against the qualifying competitors.
func Build(own models.Listing, competitors []models.Listing, now time.Time) *models.CompetitorAnalysis {
	a := &models.CompetitorAnalysis{
		OurProduct:       own,
		Competitors:      competitors,
		TotalCompetitors: len(competitors),
		Timestamp:        now.UTC(),
	}
	if a.Competitors == nil {
		a.Competitors = []models.Listing{}
	}

	s := Summarize(competitors)
	if s == nil {
		a.Message = "no competitors found"
		return a
	}
	a.Summary = s
	a.Spread = round(s.Max-s.Min, 2)

	ours := own.PriceWithDisc
	a.Position = position(ours, competitors)
	if ours > 0 {
		a.Comparison = &models.PriceComparison{
			VsMin:    pctDiff(ours, s.Min),
			VsAvg:    pctDiff(ours, s.Average),
			VsMedian: pctDiff(ours, s.Median),
			VsMax:    pctDiff(ours, s.Max),
		}
	}
	a.OptimalRange = &models.PriceBand{
		Low:  round(s.Median*0.95, 2),
		High: round(s.Median*1.05, 2),
	}
	a.Recommendations = []string{recommendation(ours, s.Median)}

	top := slices.Clone(competitors)
	sort.SliceStable(top, func(i, j int) bool { return top[i].ReviewsCount > top[j].ReviewsCount })
	if len(top) > topCompetitors {
		top = top[:topCompetitors]
	}
	a.TopCompetitors = top

	return a
}

func position(ours float64, competitors []models.Listing) *models.MarketPosition {
	var cheaper, pricier int
	for _, c := range competitors {
		switch {
		case c.PriceWithDisc < ours:
			cheaper++
		case c.PriceWithDisc > ours:
			pricier++
		}
	}
	pct := float64(cheaper) / float64(len(competitors)) * 100

	var desc string
	switch {
	case pct < 25:
		desc = "very low price (cheaper than 75% of competitors)"
	case pct < 50:
		desc = "below average (cheaper than 50-75% of competitors)"
	case pct < 75:
		desc = "above average (pricier than 50-75% of competitors)"
	default:
		desc = "high price (pricier than 75% of competitors)"
	}

	return &models.MarketPosition{
		CheaperCompetitors:       cheaper,
		MoreExpensiveCompetitors: pricier,
		Percentile:               round(pct, 1),
		Description:              desc,
	}
}

func recommendation(ours, median float64) string {
	switch {
	case ours > median*1.2:
		return fmt.Sprintf("Price is 20%%+ above the market median (%.2f). Consider lowering it to stay competitive.", median)
	case ours < median*0.8:
		return fmt.Sprintf("Price is 20%%+ below the market median (%.2f). There is room to raise it without losing competitiveness.", median)
	default:
		return fmt.Sprintf("Price is within range of the market median (%.2f) and competitive.", median)
	}
}

func pctDiff(ours, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return round((ours-ref)/ref*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
