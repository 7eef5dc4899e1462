package pricing

import "math"

type ScenarioKind string

const (
	ScenarioConservative ScenarioKind = "conservative"
	ScenarioAggressive   ScenarioKind = "aggressive"
	ScenarioRevenue      ScenarioKind = "revenue_focused"
	ScenarioCompetitive  ScenarioKind = "competitive"
)

// Scenario is a named alternative price with its re-predicted outcome.
type Scenario struct {
	Kind             ScenarioKind `json:"kind"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Price            float64      `json:"price"`
	PredictedUnits   int          `json:"predictedUnits"`
	PredictedRevenue float64      `json:"predictedRevenue"`
	PredictedProfit  float64      `json:"predictedProfit"`
}

type ScenarioInput struct {
	History      []PricePoint
	CurrentPrice float64
	OptimalPrice float64
	CostPrice    float64
	Elasticity   float64
	Competitors  *CompetitorSummary
}

// Scenarios returns conservative, aggressive and revenue-focused
// alternatives, plus a competitive one when a competitor average is known.
// Every scenario is kept regardless of its implied profit.
func Scenarios(in ScenarioInput) []Scenario {
	e := in.Elasticity
	curve, curveOK := NewDemandCurve(in.History, &e)

	build := func(kind ScenarioKind, name, desc string, price float64) Scenario {
		var units int
		if curveOK {
			units, _ = curve.At(price)
		}
		return Scenario{
			Kind:             kind,
			Name:             name,
			Description:      desc,
			Price:            round2(price),
			PredictedUnits:   units,
			PredictedRevenue: round2(price * float64(units)),
			PredictedProfit:  round2((price - in.CostPrice) * float64(units)),
		}
	}

	cur, opt := in.CurrentPrice, in.OptimalPrice

	aggressive := opt * 0.95
	if opt > cur {
		aggressive = opt * 1.1
	}
	revenue := cur * 1.05
	if opt < cur {
		revenue = cur * 0.9
	}

	out := []Scenario{
		build(ScenarioConservative, "Conservative", "Gradual move halfway to the optimal price", cur+(opt-cur)*0.5),
		build(ScenarioAggressive, "Aggressive", "Overshoot the optimal price in its direction", aggressive),
		build(ScenarioRevenue, "Revenue focused", "Favor sales volume and revenue over margin", revenue),
	}
	if in.Competitors != nil && in.Competitors.Average > 0 {
		out = append(out, build(ScenarioCompetitive, "Competitive", "Price 5% below the competitor average", in.Competitors.Average*0.95))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
