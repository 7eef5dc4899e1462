package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAnalysisDefaults(t *testing.T) {
	a, err := LoadAnalysis(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalysis(), a)
	assert.Equal(t, 30, a.WindowDays)
	assert.Equal(t, 7, a.MinDataPoints)
	assert.Equal(t, -30.0, a.MinPriceChangePercent)
	assert.Equal(t, 50.0, a.MaxPriceChangePercent)
}

func TestLoadAnalysisOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	body := "window_days: 45\nmin_competitor_reviews: 100\nmin_confidence: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	a, err := LoadAnalysis(path)
	require.NoError(t, err)
	assert.Equal(t, 45, a.WindowDays)
	assert.Equal(t, 100, a.MinCompetitorReviews)
	assert.Equal(t, 0.5, a.MinConfidence)
	// untouched keys keep their defaults
	assert.Equal(t, 7, a.MinDataPoints)
	assert.Equal(t, 20, a.MaxCompetitors)

	p := a.Params()
	assert.Equal(t, 45, p.WindowDays)
	assert.Equal(t, 50.0, p.MaxPriceChangePct)
}

func TestLoadAnalysisBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_days: [1, 2"), 0o644))

	_, err := LoadAnalysis(path)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_days: 45\nmin_data_points: 10\n"), 0o644))

	t.Setenv("ANALYSIS_CONFIG", path)
	t.Setenv("ELASTICITY_WINDOW_DAYS", "60")
	t.Setenv("OPTIMIZE_OBJECTIVE", "balanced")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Analysis.WindowDays)
	assert.Equal(t, 10, cfg.Analysis.MinDataPoints)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		OptimizeObjective: "volume",
		OptimizeWorkers:   0,
		MarketplaceRPS:    1,
		Analysis:          DefaultAnalysis(),
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPTIMIZE_OBJECTIVE")
	assert.Contains(t, err.Error(), "OPTIMIZE_WORKERS")

	cfg.OptimizeObjective = "profit"
	cfg.OptimizeWorkers = 2
	cfg.Analysis.MinConfidence = 1.5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: 5433, DBName: "prices"}
	assert.Equal(t, "postgres://u:p@db:5433/prices?sslmode=disable", cfg.DSN())
}
