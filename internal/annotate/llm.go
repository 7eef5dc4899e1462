package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/risk"
)

const systemPrompt = "You are an expert in marketplace pricing. Respond only with JSON."

type LLMOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// LLM asks a chat completion model for insights.
type LLM struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewLLM returns an annotator that reports itself unavailable when no API
// key is configured.
func NewLLM(opts LLMOptions) *LLM {
	if opts.APIKey == "" {
		return &LLM{}
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = openai.GPT4
	}
	return &LLM{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(opts.Temperature),
	}
}

func (l *LLM) Available() bool { return l.client != nil }

func (l *LLM) Annotate(ctx context.Context, in Input) (models.Insights, error) {
	if l.client == nil {
		return models.Insights{}, errors.New("llm annotator not configured")
	}

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: l.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(in)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.Insights{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Insights{}, errors.New("chat completion returned no choices")
	}
	return parseResponse(resp.Choices[0].Message.Content), nil
}

func buildPrompt(in Input) string {
	demand := "inelastic"
	if in.Elasticity.IsElastic {
		demand = "elastic"
	}
	name, category := in.ProductName, in.Category
	if name == "" {
		name = "N/A"
	}
	if category == "" {
		category = "N/A"
	}

	var b strings.Builder
	b.WriteString("You are an expert in pricing and price elasticity of demand on marketplaces.\n\n")
	b.WriteString("PRODUCT:\n")
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Category: %s\n", category)
	fmt.Fprintf(&b, "- Current price: %.2f\n", in.CurrentPrice)
	fmt.Fprintf(&b, "- Optimal price: %.2f\n", in.OptimalPrice)
	fmt.Fprintf(&b, "- Price change: %+.1f%%\n", in.changeFraction()*100)
	fmt.Fprintf(&b, "- Cost price: %.2f\n\n", in.CostPrice)

	b.WriteString("ELASTICITY:\n")
	fmt.Fprintf(&b, "- Coefficient: %.2f\n", in.Elasticity.Coefficient)
	fmt.Fprintf(&b, "- Demand: %s\n", demand)
	fmt.Fprintf(&b, "- Confidence: %.1f%%\n", in.Elasticity.Confidence*100)
	fmt.Fprintf(&b, "- Data points: %d\n\n", in.Elasticity.SampleSize)

	b.WriteString("FORECAST:\n")
	fmt.Fprintf(&b, "- Current sales: %d units/day\n", in.CurrentDailySales)
	fmt.Fprintf(&b, "- Predicted sales: %d units/day\n", in.PredictedDailySales)
	fmt.Fprintf(&b, "- Current profit: %.2f/day\n", in.CurrentDailyProfit)
	fmt.Fprintf(&b, "- Predicted profit: %.2f/day\n", in.PredictedDailyProfit)

	if c := in.Competitors; c != nil {
		b.WriteString("\nMARKET:\n")
		fmt.Fprintf(&b, "- Competitor prices: min %.2f, median %.2f, average %.2f, max %.2f\n", c.Min, c.Median, c.Average, c.Max)
	}

	b.WriteString(`
Assess the risk of the change (low/medium/high), whether and how to implement it,
the key factors to consider, which metrics to monitor and when to review the price.

Respond in JSON:
{
    "risk_level": "low|medium|high",
    "recommendation": "detailed recommendation",
    "implementation_strategy": "how to implement",
    "key_factors": ["factor1", "factor2"],
    "monitoring_metrics": ["metric1", "metric2"],
    "review_period_days": number_of_days
}
`)
	return b.String()
}

type llmResponse struct {
	RiskLevel              string   `json:"risk_level"`
	Recommendation         string   `json:"recommendation"`
	ImplementationStrategy string   `json:"implementation_strategy"`
	KeyFactors             []string `json:"key_factors"`
	MonitoringMetrics      []string `json:"monitoring_metrics"`
	ReviewPeriodDays       int      `json:"review_period_days"`
}

// parseResponse decodes the model output, optionally wrapped in a ``` or
// ```json fence. Anything it cannot decode yields the default insights.
func parseResponse(content string) models.Insights {
	var r llmResponse
	if err := json.Unmarshal([]byte(unfence(content)), &r); err != nil {
		fmt.Printf("[ANNOTATOR] Could not parse model response: %v\n", err)
		return defaultInsights()
	}

	ins := models.Insights{
		RiskLevel:              string(risk.Medium),
		Recommendation:         r.Recommendation,
		ImplementationStrategy: r.ImplementationStrategy,
		KeyFactors:             r.KeyFactors,
		MonitoringMetrics:      r.MonitoringMetrics,
		ReviewPeriodDays:       r.ReviewPeriodDays,
		Source:                 SourceLLM,
	}
	if level, ok := risk.ParseLevel(strings.ToLower(strings.TrimSpace(r.RiskLevel))); ok {
		ins.RiskLevel = string(level)
	}
	if ins.ReviewPeriodDays <= 0 {
		ins.ReviewPeriodDays = defaultReviewDays
	}
	return ins
}

func unfence(s string) string {
	if _, after, ok := strings.Cut(s, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(s, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return s
}

func defaultInsights() models.Insights {
	return models.Insights{
		RiskLevel:              string(risk.Medium),
		Recommendation:         "Additional analysis required",
		ImplementationStrategy: "Change the price gradually",
		KeyFactors:             []string{"Competitor monitoring", "Sales tracking"},
		MonitoringMetrics:      []string{"Sales", "Conversion", "Search position"},
		ReviewPeriodDays:       defaultReviewDays,
		Source:                 SourceLLM,
	}
}
