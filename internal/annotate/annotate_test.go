package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

func input(current, optimal, confidence float64, elastic bool) Input {
	return Input{
		ProductName:  "Hoodie",
		CurrentPrice: current,
		OptimalPrice: optimal,
		CostPrice:    500,
		Elasticity:   pricing.Elasticity{Coefficient: 1.8, IsElastic: elastic, Confidence: confidence, SampleSize: 20},
	}
}

func TestRulesRiskLevels(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want string
	}{
		{"small change high confidence", input(1000, 1050, 0.9, true), "low"},
		{"medium change", input(1000, 1150, 0.9, true), "medium"},
		{"large change", input(1000, 1250, 0.9, true), "high"},
		{"weak fit", input(1000, 1000, 0.5, true), "high"},
		{"moderate fit", input(1000, 1000, 0.7, true), "medium"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ins, err := Rules{}.Annotate(context.Background(), tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ins.RiskLevel)
			assert.Equal(t, SourceRules, ins.Source)
			assert.Equal(t, 7, ins.ReviewPeriodDays)
		})
	}
}

func TestRulesRecommendationText(t *testing.T) {
	ins, _ := Rules{}.Annotate(context.Background(), input(1000, 900, 0.9, true))
	assert.Contains(t, ins.Recommendation, "elastic")
	assert.Contains(t, ins.Recommendation, "Lowering")

	ins, _ = Rules{}.Annotate(context.Background(), input(1000, 1100, 0.9, false))
	assert.Contains(t, ins.Recommendation, "inelastic")
}

func TestParseResponse(t *testing.T) {
	body := `{"risk_level":"LOW","recommendation":"raise","implementation_strategy":"now","key_factors":["a"],"monitoring_metrics":["b"],"review_period_days":14}`

	for name, content := range map[string]string{
		"plain":       body,
		"json fence":  "Here you go:\n```json\n" + body + "\n```\n",
		"plain fence": "```\n" + body + "\n```",
	} {
		t.Run(name, func(t *testing.T) {
			ins := parseResponse(content)
			assert.Equal(t, "low", ins.RiskLevel)
			assert.Equal(t, "raise", ins.Recommendation)
			assert.Equal(t, 14, ins.ReviewPeriodDays)
			assert.Equal(t, SourceLLM, ins.Source)
		})
	}
}

func TestParseResponseGarbage(t *testing.T) {
	ins := parseResponse("I think you should raise the price.")
	assert.Equal(t, defaultInsights(), ins)
	assert.Equal(t, "medium", ins.RiskLevel)
}

func TestParseResponseUnknownRisk(t *testing.T) {
	ins := parseResponse(`{"risk_level":"extreme","recommendation":"x"}`)
	assert.Equal(t, "medium", ins.RiskLevel)
	assert.Equal(t, 7, ins.ReviewPeriodDays)
}

func TestLLMUnavailableWithoutKey(t *testing.T) {
	l := NewLLM(LLMOptions{})
	assert.False(t, l.Available())
	_, err := l.Annotate(context.Background(), input(1000, 1100, 0.9, true))
	assert.Error(t, err)
}

func TestLLMAgainstServer(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"risk_level\":\"high\",\"recommendation\":\"wait\",\"review_period_days\":3}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	l := NewLLM(LLMOptions{APIKey: "k", BaseURL: srv.URL, Model: "test-model", Temperature: 0.3})
	require.True(t, l.Available())

	ins, err := l.Annotate(context.Background(), input(1000, 1100, 0.9, true))
	require.NoError(t, err)
	assert.Equal(t, "test-model", gotModel)
	assert.Equal(t, "high", ins.RiskLevel)
	assert.Equal(t, "wait", ins.Recommendation)
	assert.Equal(t, 3, ins.ReviewPeriodDays)
}

type failing struct{}

func (failing) Available() bool { return true }
func (failing) Annotate(context.Context, Input) (models.Insights, error) {
	return models.Insights{}, errors.New("boom")
}

func TestWithFallback(t *testing.T) {
	w := NewWithFallback(failing{})
	ins, err := w.Annotate(context.Background(), input(1000, 1050, 0.9, true))
	require.NoError(t, err)
	assert.Equal(t, SourceRules, ins.Source)

	w = NewWithFallback(NewLLM(LLMOptions{}))
	ins, err = w.Annotate(context.Background(), input(1000, 1050, 0.9, true))
	require.NoError(t, err)
	assert.Equal(t, SourceRules, ins.Source)
}

func TestBuildPromptIncludesMarket(t *testing.T) {
	in := input(1000, 1100, 0.9, true)
	assert.NotContains(t, buildPrompt(in), "MARKET")
	in.Competitors = &pricing.CompetitorSummary{Min: 800, Max: 1200, Average: 1000, Median: 990}
	p := buildPrompt(in)
	assert.Contains(t, p, "median 990.00")
	assert.Contains(t, p, "+10.0%")
}
