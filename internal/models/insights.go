package models

// Insights is the narrative layer attached to a recommendation, produced
// either by the LLM annotator or the deterministic rule fallback.
type Insights struct {
	RiskLevel              string   `json:"riskLevel"` // low, medium, high
	Recommendation         string   `json:"recommendation"`
	ImplementationStrategy string   `json:"implementationStrategy"`
	KeyFactors             []string `json:"keyFactors"`
	MonitoringMetrics      []string `json:"monitoringMetrics"`
	ReviewPeriodDays       int      `json:"reviewPeriodDays"`
	Source                 string   `json:"source"` // llm, rules
}
