package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptyHistory(t *testing.T) {
	out := Search(nil, 800, Elasticity{}, ObjectiveProfit, nil)
	assert.Equal(t, 1200.0, out.OptimalPrice)
	assert.Nil(t, out.Prediction)
	assert.Nil(t, out.MarketMedianDeltaPct)
}

func TestSearchEndToEnd(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)
	require.True(t, el.IsElastic)

	out := Search(h, 800, el, ObjectiveProfit, nil)
	require.NotNil(t, out.Prediction)

	assert.Greater(t, out.OptimalPrice, 800*1.1)
	assert.Less(t, out.OptimalPrice, 1500*1.5)
	assert.Greater(t, out.Prediction.Profit, 0.0)
	assert.InDelta(t, (out.OptimalPrice-800)/out.OptimalPrice, out.Prediction.MarginRate, 1e-9)
	assert.Nil(t, out.MarketMedianDeltaPct)
}

func TestSearchIdempotent(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)
	comp := &CompetitorSummary{Min: 1200, Max: 1900, Average: 1550, Median: 1500}

	for _, obj := range []Objective{ObjectiveProfit, ObjectiveRevenue, ObjectiveBalanced} {
		a := Search(h, 800, el, obj, comp)
		b := Search(h, 800, el, obj, comp)
		assert.Equal(t, a, b, "objective %s", obj)
	}
}

func TestSearchCompetitorOverridesRange(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)

	base := Search(h, 800, el, ObjectiveProfit, nil)
	comp := Search(h, 800, el, ObjectiveProfit, &CompetitorSummary{Median: 3000, Average: 3000})

	assert.LessOrEqual(t, base.OptimalPrice, 2250.0)
	assert.GreaterOrEqual(t, comp.OptimalPrice, 2400.0)
	assert.LessOrEqual(t, comp.OptimalPrice, 3600.0)
	assert.NotEqual(t, base.OptimalPrice, comp.OptimalPrice)

	require.NotNil(t, comp.MarketMedianDeltaPct)
	assert.InDelta(t, (comp.OptimalPrice-3000)/3000*100, *comp.MarketMedianDeltaPct, 1e-9)
}

func TestSearchZeroMedianIgnored(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)

	a := Search(h, 800, el, ObjectiveProfit, nil)
	b := Search(h, 800, el, ObjectiveProfit, &CompetitorSummary{Average: 900})
	assert.Equal(t, a, b)
}

func TestSearchInvertedRangeUsesLowerBound(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)

	// cost*1.1 = 3300 exceeds avg*1.5 = 2250
	out := Search(h, 3000, el, ObjectiveProfit, nil)
	require.NotNil(t, out.Prediction)
	assert.InDelta(t, 3300.0, out.OptimalPrice, 1e-9)
	assert.Equal(t, 0.3, out.Prediction.Confidence)
}

func TestSearchNoPositiveScore(t *testing.T) {
	h := series([]float64{100, 110}, []int{1, 1})

	// every candidate sits above the average price where the forecast truncates to 0
	out := Search(h, 100, Elasticity{Coefficient: 3}, ObjectiveProfit, nil)
	assert.Nil(t, out.Prediction)
	assert.InDelta(t, 105.0, out.OptimalPrice, 1e-9)
}

func TestSearchObjectives(t *testing.T) {
	h := alternatingHistory()
	el := Estimate(h)

	profit := Search(h, 800, el, ObjectiveProfit, nil)
	revenue := Search(h, 800, el, ObjectiveRevenue, nil)
	balanced := Search(h, 800, el, ObjectiveBalanced, nil)

	// with elastic demand revenue peaks at the cheapest candidate
	assert.InDelta(t, 1050.0, revenue.OptimalPrice, 1e-9)
	assert.GreaterOrEqual(t, profit.OptimalPrice, balanced.OptimalPrice)
	assert.GreaterOrEqual(t, balanced.OptimalPrice, revenue.OptimalPrice)
}

func TestCandidates(t *testing.T) {
	c := candidates(100, 200)
	require.Len(t, c, 50)
	assert.Equal(t, 100.0, c[0])
	assert.Equal(t, 200.0, c[49])
	for i := 1; i < len(c); i++ {
		assert.Greater(t, c[i], c[i-1])
	}

	assert.Equal(t, []float64{300}, candidates(300, 200))
	assert.Len(t, candidates(150, 150), 50)
}

func TestCompetitorBonusBoundaries(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{1000, 1.15},
		{950, 1.15},
		{1099, 1.15},
		{940, 1.15},
		{1100, 1.0},
		{900, 1.25}, // exactly 10% below falls out of parity into undercut
		{880, 1.25},
		{850, 1.0}, // exactly 15% below is outside the undercut band
		{700, 1.0},
		{1500, 1.0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, competitorBonus(tc.price, 1000), "price %.0f", tc.price)
	}
}

func TestParseObjective(t *testing.T) {
	o, err := ParseObjective("")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveProfit, o)

	o, err = ParseObjective(" Balanced ")
	require.NoError(t, err)
	assert.Equal(t, ObjectiveBalanced, o)

	_, err = ParseObjective("volume")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
