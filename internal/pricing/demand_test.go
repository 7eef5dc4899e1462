package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictAtAveragePrice(t *testing.T) {
	h := series([]float64{100, 120, 80}, []int{10, 8, 12})
	e := 1.7

	units, conf := Predict(h, 100, &e)
	assert.Equal(t, 10, units)
	assert.Equal(t, 1.0, conf)

	units, conf = Predict(h, 100, nil)
	assert.Equal(t, 10, units)
	assert.Equal(t, 1.0, conf)
}

func TestPredictNeedsTwoPoints(t *testing.T) {
	e := 1.5
	for _, target := range []float64{1, 100, 1e6} {
		units, conf := Predict(series([]float64{100}, []int{10}), target, &e)
		assert.Zero(t, units)
		assert.Zero(t, conf)

		units, conf = Predict(series([]float64{100, 0, 90}, []int{10, 5, 0}), target, nil)
		assert.Zero(t, units)
		assert.Zero(t, conf)
	}
}

func TestPredictTruncates(t *testing.T) {
	h := series([]float64{100, 110}, []int{10, 9})
	e := 1.0

	// 9.5 * 105/110 = 9.068
	units, _ := Predict(h, 110, &e)
	assert.Equal(t, 9, units)
}

func TestPredictLocalElasticity(t *testing.T) {
	h := series([]float64{100, 110}, []int{10, 9})

	curve, ok := NewDemandCurve(h, nil)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, curve.Elasticity, 1e-6)
	assert.InDelta(t, 105.0, curve.AvgPrice, 1e-9)
	assert.InDelta(t, 9.5, curve.AvgUnits, 1e-9)
}

func TestPredictFlatPriceStaysFinite(t *testing.T) {
	h := series([]float64{100, 100, 100}, []int{10, 12, 9})

	units, conf := Predict(h, 120, nil)
	assert.GreaterOrEqual(t, units, 0)
	assert.InDelta(t, 0.8, conf, 1e-9)
}

func TestPredictConfidenceFloor(t *testing.T) {
	h := series([]float64{100, 100}, []int{10, 10})
	e := 1.0

	_, conf := Predict(h, 500, &e)
	assert.Equal(t, 0.3, conf)

	_, conf = Predict(h, 150, &e)
	assert.InDelta(t, 0.5, conf, 1e-9)
}
