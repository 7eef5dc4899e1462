package annotate

import (
	"context"
	"fmt"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/risk"
)

// Rules produces deterministic insights from the elasticity and the size
// of the proposed change.
type Rules struct{}

func (Rules) Available() bool { return true }

func (Rules) Annotate(_ context.Context, in Input) (models.Insights, error) {
	level := risk.Classify(in.changeFraction(), in.Elasticity.Confidence)

	var rec string
	if in.Elasticity.IsElastic {
		direction, effect := "Raising", "a drop in"
		if in.OptimalPrice < in.CurrentPrice {
			direction, effect = "Lowering", "significant growth in"
		}
		rec = fmt.Sprintf("Demand is elastic (coefficient %.2f). %s the price will lead to %s sales.",
			in.Elasticity.Coefficient, direction, effect)
	} else {
		rec = fmt.Sprintf("Demand is inelastic (coefficient %.2f). Changing the price will not strongly affect sales volume.",
			in.Elasticity.Coefficient)
	}

	return models.Insights{
		RiskLevel:              string(level),
		Recommendation:         rec,
		ImplementationStrategy: "Change the price gradually and monitor the results",
		KeyFactors:             []string{"Price elasticity of demand", "Competitive environment", "Seasonality"},
		MonitoringMetrics:      []string{"Daily sales", "Conversion", "Average order value", "Category position"},
		ReviewPeriodDays:       defaultReviewDays,
		Source:                 SourceRules,
	}, nil
}
