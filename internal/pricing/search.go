package pricing

const (
	candidateCount = 50

	costFloorMarkup    = 1.1
	historyRangeLow    = 0.7
	historyRangeHigh   = 1.5
	competitorRangeLow = 0.8
	competitorRangeHi  = 1.2
	emptyHistoryMarkup = 1.5

	parityBand     = 0.10
	parityBonus    = 1.15
	undercutMin    = 0.05
	undercutMax    = 0.15
	undercutBonus  = 1.25
	balancedProfit = 0.6
	balancedRevnue = 0.4
)

// Search evaluates 50 evenly spaced candidate prices in ascending order and
// returns the best scoring one. The range is
// [max(cost*1.1, avg*0.7), avg*1.5], replaced by
// [max(cost*1.1, median*0.8), median*1.2] when comp carries a positive median.
// A candidate must score strictly above the running best (initially zero at
// the average historical price) to win, so ties keep the lower price.
func Search(history []PricePoint, costPrice float64, el Elasticity, objective Objective, comp *CompetitorSummary) Outcome {
	if len(history) == 0 {
		return Outcome{OptimalPrice: costPrice * emptyHistoryMarkup}
	}

	avgPrice := meanPrice(history)
	lo, hi := candidateRange(avgPrice, costPrice, comp)

	coef := el.Coefficient
	curve, curveOK := NewDemandCurve(history, &coef)

	out := Outcome{OptimalPrice: avgPrice}
	bestScore := 0.0

	for _, price := range candidates(lo, hi) {
		var units int
		var confidence float64
		if curveOK {
			units, confidence = curve.At(price)
		}
		pred := evaluate(price, costPrice, units, confidence)
		score := scoreCandidate(pred, price, costPrice, objective)
		if comp.hasMedian() {
			score *= competitorBonus(price, comp.Median)
		}

		if score > bestScore {
			bestScore = score
			out.OptimalPrice = price
			p := pred
			out.Prediction = &p
		}
	}

	if comp.hasMedian() {
		delta := (out.OptimalPrice - comp.Median) / comp.Median * 100
		out.MarketMedianDeltaPct = &delta
	}
	return out
}

// meanPrice averages the positive prices of history. The candidate range
// anchors on the same points the demand curve uses.
func meanPrice(history []PricePoint) float64 {
	var sum float64
	n := 0
	for _, p := range history {
		if p.Price > 0 {
			sum += p.Price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func candidateRange(avgPrice, costPrice float64, comp *CompetitorSummary) (float64, float64) {
	if comp.hasMedian() {
		return max(costPrice*costFloorMarkup, comp.Median*competitorRangeLow), comp.Median * competitorRangeHi
	}
	return max(costPrice*costFloorMarkup, avgPrice*historyRangeLow), avgPrice * historyRangeHigh
}

// candidates spaces candidateCount prices over [lo, hi] inclusive. An
// inverted range collapses to the single lower bound.
func candidates(lo, hi float64) []float64 {
	if lo > hi {
		return []float64{lo}
	}
	out := make([]float64, candidateCount)
	step := (hi - lo) / float64(candidateCount-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[candidateCount-1] = hi
	return out
}

func evaluate(price, costPrice float64, units int, confidence float64) Prediction {
	return Prediction{
		Units:      units,
		Revenue:    price * float64(units),
		Profit:     (price - costPrice) * float64(units),
		Confidence: confidence,
		MarginRate: marginRate(price, costPrice),
	}
}

func marginRate(price, costPrice float64) float64 {
	if price <= 0 {
		return 0
	}
	return (price - costPrice) / price
}

func scoreCandidate(p Prediction, price, costPrice float64, objective Objective) float64 {
	switch objective {
	case ObjectiveRevenue:
		return p.Revenue * p.Confidence
	case ObjectiveBalanced:
		base := p.Profit*balancedProfit + p.Revenue*balancedRevnue
		return base * p.Confidence * (0.8 + 0.2*marginRate(price, costPrice))
	default:
		return p.Profit * p.Confidence
	}
}

// competitorBonus returns the score multiplier for a candidate relative to
// the market median: 1.15 within 10% of the median, otherwise 1.25 when
// 5%..15% below it, otherwise 1.
func competitorBonus(price, median float64) float64 {
	diff := price - median
	if diff < 0 {
		diff = -diff
	}
	if diff/median < parityBand {
		return parityBonus
	}
	if price < median {
		below := (median - price) / median
		if below > undercutMin && below < undercutMax {
			return undercutBonus
		}
	}
	return 1
}
