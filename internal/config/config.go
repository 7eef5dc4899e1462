package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjannette/price-optimizer/internal/pricing"
)

type Config struct {
	// Secrets (from .env)
	WBAPIKey        string
	OpenAIAPIKey    string
	WebhookURL      string
	BotName         string
	APIKey          string
	CORSAllowOrigin string

	// Marketplace
	WBAPIBaseURL   string
	WBCardURL      string
	WBSearchURL    string
	WBSiteURL      string
	MarketplaceRPS float64

	// Narrative annotator
	OpenAIBaseURL string
	AIModel       string
	AITemperature float64

	// REST API
	APIPort int

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Cache
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	CompetitorCacheMinutes int
	PriceCacheMinutes      int

	// Scheduled optimization
	OptimizeCron      string
	OptimizeObjective string
	OptimizeWorkers   int

	// Risk Management
	MaxDailyPriceUpdates int

	AnalysisConfigPath string
	Analysis           Analysis
}

// Analysis holds the tunables of the elasticity analysis and the
// competitor lookup. They are passed explicitly to the components that
// use them.
type Analysis struct {
	WindowDays            int     `yaml:"window_days"`
	MinDataPoints         int     `yaml:"min_data_points"`
	MinPriceChangePercent float64 `yaml:"min_price_change_percent"`
	MaxPriceChangePercent float64 `yaml:"max_price_change_percent"`
	MinCompetitorReviews  int     `yaml:"min_competitor_reviews"`
	MaxCompetitors        int     `yaml:"max_competitors"`
	RecentDays            int     `yaml:"recent_days"`
	MinConfidence         float64 `yaml:"min_confidence"`
}

func DefaultAnalysis() Analysis {
	p := pricing.DefaultParams()
	return Analysis{
		WindowDays:            p.WindowDays,
		MinDataPoints:         p.MinDataPoints,
		MinPriceChangePercent: p.MinPriceChangePct,
		MaxPriceChangePercent: p.MaxPriceChangePct,
		MinCompetitorReviews:  500,
		MaxCompetitors:        20,
		RecentDays:            7,
		MinConfidence:         0.6,
	}
}

func (a Analysis) Params() pricing.Params {
	return pricing.Params{
		WindowDays:        a.WindowDays,
		MinDataPoints:     a.MinDataPoints,
		MinPriceChangePct: a.MinPriceChangePercent,
		MaxPriceChangePct: a.MaxPriceChangePercent,
	}
}

// LoadAnalysis starts from the defaults and overlays the YAML file at path.
// A missing file is not an error.
func LoadAnalysis(path string) (Analysis, error) {
	a := DefaultAnalysis()
	if path == "" {
		return a, nil
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return a, fmt.Errorf("read analysis config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &a); err != nil {
			return a, fmt.Errorf("parse analysis config: %w", err)
		}
	}
	return a, nil
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		WBAPIKey:        envStr("WB_API_KEY", ""),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "PriceOptimizer"),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Marketplace
		WBAPIBaseURL:   envStr("WB_API_BASE_URL", "https://suppliers-api.wildberries.ru"),
		WBCardURL:      envStr("WB_CARD_URL", "https://card.wb.ru/cards/v1/detail"),
		WBSearchURL:    envStr("WB_SEARCH_URL", "https://search.wb.ru/exactmatch/ru/common/v4/search"),
		WBSiteURL:      envStr("WB_SITE_URL", "https://www.wildberries.ru"),
		MarketplaceRPS: envFloat("MARKETPLACE_RPS", 3),

		// Narrative annotator
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", ""),
		AIModel:       envStr("AI_MODEL", "gpt-4"),
		AITemperature: envFloat("AI_TEMPERATURE", 0.3),

		APIPort: envInt("API_PORT", 8000),

		// Database
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "price_optimizer"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		// Cache
		RedisAddr:              envStr("REDIS_ADDR", ""),
		RedisPassword:          envStr("REDIS_PASSWORD", ""),
		RedisDB:                envInt("REDIS_DB", 0),
		CompetitorCacheMinutes: envInt("COMPETITOR_CACHE_MINUTES", 60),
		PriceCacheMinutes:      envInt("PRICE_CACHE_MINUTES", 30),

		// Scheduled optimization
		OptimizeCron:      envStr("OPTIMIZE_CRON", ""),
		OptimizeObjective: envStr("OPTIMIZE_OBJECTIVE", string(pricing.ObjectiveProfit)),
		OptimizeWorkers:   envInt("OPTIMIZE_WORKERS", 4),

		// Risk Management
		MaxDailyPriceUpdates: envInt("MAX_DAILY_PRICE_UPDATES", 0),

		AnalysisConfigPath: envStr("ANALYSIS_CONFIG", "analysis.yaml"),
	}

	analysis, err := LoadAnalysis(cfg.AnalysisConfigPath)
	if err != nil {
		return nil, err
	}
	// env wins over the file
	analysis.WindowDays = envInt("ELASTICITY_WINDOW_DAYS", analysis.WindowDays)
	analysis.MinDataPoints = envInt("MIN_DATA_POINTS", analysis.MinDataPoints)
	cfg.Analysis = analysis

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if _, err := pricing.ParseObjective(c.OptimizeObjective); err != nil {
		errs = append(errs, "OPTIMIZE_OBJECTIVE must be profit, revenue or balanced")
	}
	if c.OptimizeWorkers < 1 {
		errs = append(errs, "OPTIMIZE_WORKERS must be at least 1")
	}
	if c.MarketplaceRPS <= 0 {
		errs = append(errs, "MARKETPLACE_RPS must be positive")
	}
	a := c.Analysis
	if a.WindowDays < 1 {
		errs = append(errs, "window_days must be at least 1")
	}
	if a.MinDataPoints < 3 {
		errs = append(errs, "min_data_points must be at least 3")
	}
	if a.MinPriceChangePercent > 0 || a.MaxPriceChangePercent < 0 {
		errs = append(errs, "price change bounds must satisfy min <= 0 <= max")
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		errs = append(errs, "min_confidence must be within [0, 1]")
	}

	if c.WBAPIKey == "" {
		fmt.Println("[WARN] WB_API_KEY not set: sales history is read from the database and prices cannot be applied")
	}
	if c.OpenAIAPIKey == "" {
		fmt.Println("[WARN] OPENAI_API_KEY not set: insights use the rule-based fallback")
	}
	if c.RedisAddr == "" {
		fmt.Println("[WARN] REDIS_ADDR not set: using in-process cache")
	}
	if c.MaxDailyPriceUpdates == 0 {
		fmt.Println("[WARN] MAX_DAILY_PRICE_UPDATES is 0: no daily limit on applied price changes")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set: REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Price Optimizer Configuration ===")
	fmt.Printf("Marketplace API: %s\n", c.WBAPIBaseURL)
	fmt.Printf("  API key: %s\n", boolLabel(c.WBAPIKey != "", "configured", "not set (database history only)"))
	fmt.Printf("  Rate: %.1f req/s\n", c.MarketplaceRPS)
	fmt.Println("--------------------------------------")
	fmt.Println("Analysis:")
	fmt.Printf("  Window: %d days\n", c.Analysis.WindowDays)
	fmt.Printf("  Min data points: %d\n", c.Analysis.MinDataPoints)
	fmt.Printf("  Price change bounds: %.0f%% .. +%.0f%%\n", c.Analysis.MinPriceChangePercent, c.Analysis.MaxPriceChangePercent)
	fmt.Printf("  Competitors: min %d reviews, max %d listings\n", c.Analysis.MinCompetitorReviews, c.Analysis.MaxCompetitors)
	fmt.Printf("  Min confidence (bulk): %.2f\n", c.Analysis.MinConfidence)
	fmt.Println("--------------------------------------")
	fmt.Printf("Insights: %s\n", boolLabel(c.OpenAIAPIKey != "", "LLM ("+c.AIModel+")", "rule-based"))
	fmt.Printf("Cache: %s\n", boolLabel(c.RedisAddr != "", "redis "+c.RedisAddr, "in-process"))
	fmt.Printf("Scheduled optimization: %s\n", boolLabel(c.OptimizeCron != "", c.OptimizeCron+" ("+c.OptimizeObjective+")", "disabled"))
	fmt.Printf("Daily price update limit: %s\n", boolLabel(c.MaxDailyPriceUpdates > 0, strconv.Itoa(c.MaxDailyPriceUpdates), "none"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) CompetitorTTL() time.Duration {
	return time.Duration(c.CompetitorCacheMinutes) * time.Minute
}

func (c *Config) PriceTTL() time.Duration {
	return time.Duration(c.PriceCacheMinutes) * time.Minute
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
