package pricing

import (
	"math"
	"sort"
)

const elasticThreshold = 1.0

func usable(p PricePoint) bool {
	return p.Price > 0 && p.UnitsSold > 0
}

// usablePoints returns the points with positive price and sales, ordered
// by timestamp. Points sharing a timestamp keep their input order.
func usablePoints(history []PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(history))
	for _, p := range history {
		if usable(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Estimate fits ln(units) = a + b*ln(price) by ordinary least squares.
// Coefficient is |b| and Confidence is R² of the fit. Histories with fewer
// than three usable points, or with a single distinct price, produce a zero
// result carrying the usable sample size.
func Estimate(history []PricePoint) Elasticity {
	points := usablePoints(history)
	n := len(points)
	if n < 3 {
		return Elasticity{SampleSize: n}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = math.Log(p.Price)
		ys[i] = math.Log(float64(p.UnitsSold))
	}

	fit, ok := linearRegression(xs, ys)
	if !ok {
		return Elasticity{SampleSize: n}
	}

	coef := math.Abs(fit.slope)
	return Elasticity{
		Coefficient: coef,
		IsElastic:   coef > elasticThreshold,
		Confidence:  fit.r * fit.r,
		SampleSize:  n,
	}
}

type regression struct {
	slope     float64
	intercept float64
	r         float64
}

// linearRegression is the closed-form least-squares fit. ok is false when
// every x is identical and the slope is undefined. A constant y gives a
// zero slope and r = 0.
func linearRegression(xs, ys []float64) (regression, bool) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var sxx, syy, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return regression{}, false
	}

	slope := sxy / sxx
	r := 0.0
	if syy > 0 {
		r = sxy / math.Sqrt(sxx*syy)
		// rounding can push |r| a hair past 1
		r = math.Max(-1, math.Min(1, r))
	}
	return regression{
		slope:     slope,
		intercept: meanY - slope*meanX,
		r:         r,
	}, true
}
