package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/kjannette/price-optimizer/internal/httputil"
	"github.com/kjannette/price-optimizer/internal/models"
)

const defaultBotName = "PriceOptimizer"

type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewSender(webhookURL, botName string) *Sender {
	if botName == "" {
		botName = defaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	fmt.Printf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), formatted)

	if s.webhookURL == "" {
		return
	}

	payload := s.formatPayload(formatted)
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("[NOTIFY ERROR] marshal: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		fmt.Printf("[NOTIFY ERROR] Failed to send notification after retries: %v\n", err)
		return
	}
	resp.Body.Close()
}

// SendBulkSummary reports the outcome of a bulk optimization run.
func (s *Sender) SendBulkSummary(res *models.BulkResult) {
	if res == nil {
		return
	}
	s.Send(FormatBulkSummary(res))
}

// FormatBulkSummary renders totals and up to three of the largest
// recommended price moves.
func FormatBulkSummary(res *models.BulkResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Optimization run: %d/%d products with confident recommendations, potential %+.2f profit/day, %+.2f revenue/day",
		res.OptimizedProducts, res.TotalProducts, res.TotalPotentialProfitIncrease, res.TotalPotentialRevenueIncrease)

	top := make([]models.Recommendation, len(res.Recommendations))
	copy(top, res.Recommendations)
	sort.SliceStable(top, func(i, j int) bool {
		return math.Abs(top[i].PriceChangePercent) > math.Abs(top[j].PriceChangePercent)
	})
	if len(top) > 3 {
		top = top[:3]
	}
	for _, r := range top {
		fmt.Fprintf(&b, "\n  %d %s: %.2f -> %.2f (%+.1f%%, risk %s)",
			r.NmID, r.ProductName, r.CurrentPrice, r.OptimalPrice, r.PriceChangePercent, r.RiskLevel)
	}
	return b.String()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

