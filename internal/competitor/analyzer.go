package competitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kjannette/price-optimizer/internal/cache"
	"github.com/kjannette/price-optimizer/internal/models"
)

var ErrListingNotFound = errors.New("product not listed on marketplace")

// Catalog is the part of the marketplace client the analyzer needs.
type Catalog interface {
	ProductCard(ctx context.Context, nmID int64) (*models.Listing, error)
	SearchCatalog(ctx context.Context, query string) ([]models.Listing, error)
}

type Options struct {
	MinReviews     int
	MaxCompetitors int
	CacheTTL       time.Duration
}

type Analyzer struct {
	catalog Catalog
	cache   cache.Store
	opts    Options
	now     func() time.Time
}

func NewAnalyzer(catalog Catalog, store cache.Store, opts Options) *Analyzer {
	if opts.MaxCompetitors <= 0 {
		opts.MaxCompetitors = 20
	}
	return &Analyzer{catalog: catalog, cache: store, opts: opts, now: time.Now}
}

func (a *Analyzer) DefaultMinReviews() int {
	return a.opts.MinReviews
}

// Analyze finds comparable listings for a product and summarizes their
// prices. minReviews <= 0 uses the configured threshold. Results are
// cached per product and threshold.
func (a *Analyzer) Analyze(ctx context.Context, nmID int64, minReviews int) (*models.CompetitorAnalysis, error) {
	if minReviews <= 0 {
		minReviews = a.opts.MinReviews
	}

	key := fmt.Sprintf("competitors:%d:%d", nmID, minReviews)
	if a.cache != nil {
		var cached models.CompetitorAnalysis
		ok, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			fmt.Printf("[COMPETITORS] Cache read failed for %d: %v\n", nmID, err)
		} else if ok {
			return &cached, nil
		}
	}

	own, err := a.catalog.ProductCard(ctx, nmID)
	if err != nil {
		return nil, fmt.Errorf("own listing %d: %w", nmID, err)
	}
	if own == nil {
		return nil, fmt.Errorf("%w: %d", ErrListingNotFound, nmID)
	}

	found, err := a.catalog.SearchCatalog(ctx, own.Category)
	if err != nil {
		return nil, fmt.Errorf("search competitors for %d: %w", nmID, err)
	}
	competitors := Filter(*own, found, minReviews, a.opts.MaxCompetitors)
	fmt.Printf("[COMPETITORS] %d: %d of %d listings in %q qualify\n", nmID, len(competitors), len(found), own.Category)

	analysis := Build(*own, competitors, a.now())

	if a.cache != nil && a.opts.CacheTTL > 0 {
		if err := a.cache.Set(ctx, key, analysis, a.opts.CacheTTL); err != nil {
			fmt.Printf("[COMPETITORS] Cache write failed for %d: %v\n", nmID, err)
		}
	}
	return analysis, nil
}
