package optimizer

import (
	"context"
	"time"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

type ProductStore interface {
	Upsert(ctx context.Context, p *models.Product) (*models.Product, error)
	Get(ctx context.Context, nmID int64) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	UpdateCurrentPrice(ctx context.Context, nmID int64, price float64) error
}

type HistoryStore interface {
	UpsertMany(ctx context.Context, nmID int64, points []pricing.PricePoint, source string) (int, error)
	GetRecent(ctx context.Context, nmID int64, days int) ([]models.HistoryRecord, error)
}

type OptimizationStore interface {
	Save(ctx context.Context, o *models.Optimization) (*models.Optimization, error)
	GetLatest(ctx context.Context, nmID int64) (*models.Optimization, error)
	MarkApplied(ctx context.Context, id int64, at time.Time) error
}

// Marketplace is the subset of the marketplace client the service drives.
type Marketplace interface {
	Configured() bool
	SalesHistory(ctx context.Context, nmID int64, days int) ([]pricing.PricePoint, error)
	UpdatePrice(ctx context.Context, nmID int64, price float64) error
	FetchPrice(ctx context.Context, nmID int64) (float64, string, error)
}

type CompetitorSource interface {
	Analyze(ctx context.Context, nmID int64, minReviews int) (*models.CompetitorAnalysis, error)
}

type PriceGuard interface {
	PreApplyCheck(ctx context.Context, currentPrice, newPrice float64) error
}

type Notifier interface {
	Send(msg string)
}
