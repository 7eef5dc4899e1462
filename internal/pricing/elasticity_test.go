package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func series(prices []float64, units []int) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i := range prices {
		out[i] = PricePoint{
			Timestamp: day0.AddDate(0, 0, i),
			Price:     prices[i],
			UnitsSold: units[i],
			Revenue:   prices[i] * float64(units[i]),
		}
	}
	return out
}

// alternating 1400/1600 with a constant log-log slope of ln(50/35)/ln(1600/1400)
func alternatingHistory() []PricePoint {
	prices := make([]float64, 10)
	units := make([]int, 10)
	for i := range prices {
		if i%2 == 0 {
			prices[i], units[i] = 1400, 50
		} else {
			prices[i], units[i] = 1600, 35
		}
	}
	return series(prices, units)
}

func TestEstimatePerfectFit(t *testing.T) {
	// units = 1000 * price^-2
	h := series([]float64{0.5, 1, 2, 5, 10}, []int{4000, 1000, 250, 40, 10})

	el := Estimate(h)
	assert.InDelta(t, 2.0, el.Coefficient, 1e-9)
	assert.InDelta(t, 1.0, el.Confidence, 1e-9)
	assert.True(t, el.IsElastic)
	assert.Equal(t, 5, el.SampleSize)
}

func TestEstimateTooFewPoints(t *testing.T) {
	cases := map[string][]PricePoint{
		"empty":     nil,
		"one":       series([]float64{100}, []int{5}),
		"two":       series([]float64{100, 120}, []int{5, 4}),
		"filtered":  series([]float64{100, 0, 120, -5}, []int{5, 3, 4, 2}),
		"zeroUnits": series([]float64{100, 110, 120}, []int{5, 0, 4}),
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			el := Estimate(h)
			assert.Zero(t, el.Coefficient)
			assert.Zero(t, el.Confidence)
			assert.False(t, el.IsElastic)
			assert.Equal(t, ValidSampleSize(h), el.SampleSize)
		})
	}
}

func TestEstimateSinglePrice(t *testing.T) {
	h := series([]float64{100, 100, 100, 100}, []int{5, 7, 6, 9})
	el := Estimate(h)
	assert.Zero(t, el.Coefficient)
	assert.Zero(t, el.Confidence)
	assert.Equal(t, 4, el.SampleSize)
}

func TestEstimateConstantSales(t *testing.T) {
	h := series([]float64{100, 110, 120, 130}, []int{5, 5, 5, 5})
	el := Estimate(h)
	assert.Zero(t, el.Coefficient)
	assert.Zero(t, el.Confidence)
	assert.False(t, el.IsElastic)
}

func TestEstimateIgnoresInputOrder(t *testing.T) {
	h := alternatingHistory()
	shuffled := []PricePoint{h[3], h[0], h[9], h[1], h[5], h[2], h[8], h[4], h[7], h[6]}

	assert.Equal(t, Estimate(h), Estimate(shuffled))
}

func TestEstimateAlternatingHistory(t *testing.T) {
	el := Estimate(alternatingHistory())
	require.Equal(t, 10, el.SampleSize)
	assert.InDelta(t, 2.671, el.Coefficient, 0.01)
	assert.True(t, el.IsElastic)
	assert.InDelta(t, 1.0, el.Confidence, 1e-9)
}
