package pricing

import "math"

const (
	// added to a relative price change so a flat period cannot divide by zero
	changeEpsilon       = 1e-10
	defaultElasticity   = 1.0
	minCurveConfidence  = 0.3
	minPredictionPoints = 2
)

// DemandCurve is a constant-elasticity demand curve anchored at the
// historical average price and sales:
//
//	units(p) = avgUnits * (p / avgPrice) ^ -elasticity
type DemandCurve struct {
	AvgPrice   float64
	AvgUnits   float64
	Elasticity float64
}

// NewDemandCurve builds a curve from the usable points of history. When
// elasticity is nil a local estimate is derived from period-over-period
// changes. ok is false when fewer than two usable points exist.
func NewDemandCurve(history []PricePoint, elasticity *float64) (DemandCurve, bool) {
	points := usablePoints(history)
	if len(points) < minPredictionPoints {
		return DemandCurve{}, false
	}

	var sumPrice, sumUnits float64
	for _, p := range points {
		sumPrice += p.Price
		sumUnits += float64(p.UnitsSold)
	}
	n := float64(len(points))

	e := defaultElasticity
	if elasticity != nil {
		e = *elasticity
	} else if local, ok := localElasticity(points); ok {
		e = local
	}

	return DemandCurve{
		AvgPrice:   sumPrice / n,
		AvgUnits:   sumUnits / n,
		Elasticity: e,
	}, true
}

// At returns the truncated unit forecast and a confidence that decays
// linearly with the relative distance from the average price, floored at 0.3.
func (d DemandCurve) At(price float64) (int, float64) {
	if price <= 0 || d.AvgPrice <= 0 {
		return 0, 0
	}

	units := d.AvgUnits * math.Pow(price/d.AvgPrice, -d.Elasticity)
	if math.IsNaN(units) || math.IsInf(units, 0) || units < 0 {
		units = 0
	}
	if units > math.MaxInt32 {
		units = math.MaxInt32
	}

	deviation := math.Abs(price-d.AvgPrice) / d.AvgPrice
	confidence := math.Max(minCurveConfidence, 1.0-deviation)

	return int(units), confidence
}

// Predict projects units sold at targetPrice. It returns (0, 0) when the
// history has fewer than two usable points.
func Predict(history []PricePoint, targetPrice float64, elasticity *float64) (int, float64) {
	curve, ok := NewDemandCurve(history, elasticity)
	if !ok {
		return 0, 0
	}
	return curve.At(targetPrice)
}

// localElasticity is the mean of |Δsales/sales| / (Δprice/price) over
// consecutive points.
func localElasticity(points []PricePoint) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	var sum float64
	pairs := 0
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		priceChange := (cur.Price - prev.Price) / prev.Price
		salesChange := float64(cur.UnitsSold-prev.UnitsSold) / float64(prev.UnitsSold)
		sum += math.Abs(salesChange / (priceChange + changeEpsilon))
		pairs++
	}
	e := sum / float64(pairs)
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return 0, false
	}
	return e, true
}
