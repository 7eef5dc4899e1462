package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kjannette/price-optimizer/internal/annotate"
	"github.com/kjannette/price-optimizer/internal/cache"
	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
	"github.com/kjannette/price-optimizer/internal/risk"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNoRecommendation = errors.New("no optimization result for product")
)

const (
	sourceMarketplace = "wb_api"
	sourceCache       = "cache"
)

type Options struct {
	Params        pricing.Params
	RecentDays    int
	MinConfidence float64
	Workers       int
	PriceTTL      time.Duration
}

type Deps struct {
	Products      ProductStore
	History       HistoryStore
	Optimizations OptimizationStore
	Marketplace   Marketplace
	Competitors   CompetitorSource // optional
	Annotator     annotate.Annotator
	Guard         PriceGuard // optional
	Cache         cache.Store
	Notifier      Notifier // optional
}

type Service struct {
	Deps
	opts Options
	now  func() time.Time
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RecentDays < 1 {
		opts.RecentDays = 7
	}
	if deps.Annotator == nil {
		deps.Annotator = annotate.Rules{}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory()
	}
	return &Service{Deps: deps, opts: opts, now: time.Now}
}

type Request struct {
	Objective           pricing.Objective
	ConsiderCompetitors bool
}

type BulkRequest struct {
	NmIDs               []int64
	Objective           pricing.Objective
	ConsiderCompetitors bool
	// MinConfidence overrides the configured threshold when set.
	MinConfidence *float64
}

// SaveProduct validates and stores a product.
func (s *Service) SaveProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.NmID <= 0 {
		return nil, fmt.Errorf("%w: nm_id must be positive", pricing.ErrInvalidInput)
	}
	if err := pricing.ValidateProductPrices(p.CurrentPrice, p.CostPrice); err != nil {
		return nil, err
	}
	return s.Products.Upsert(ctx, p)
}

// OptimizeProduct runs the full pipeline for one product and persists the
// result.
func (s *Service) OptimizeProduct(ctx context.Context, nmID int64, req Request) (*models.Recommendation, error) {
	product, err := s.Products.Get(ctx, nmID)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", nmID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, nmID)
	}
	return s.optimize(ctx, product, req)
}

func (s *Service) optimize(ctx context.Context, product *models.Product, req Request) (*models.Recommendation, error) {
	nmID := product.NmID
	if err := pricing.ValidateProductPrices(product.CurrentPrice, product.CostPrice); err != nil {
		return nil, fmt.Errorf("product %d: %w", nmID, err)
	}
	objective := req.Objective
	if objective == "" {
		objective = pricing.ObjectiveProfit
	}

	history, err := s.loadHistory(ctx, nmID)
	if err != nil {
		return nil, err
	}
	if err := pricing.RequireSample(history, s.opts.Params.MinDataPoints); err != nil {
		return nil, fmt.Errorf("product %d: %w", nmID, err)
	}

	var analysis *models.CompetitorAnalysis
	if req.ConsiderCompetitors && s.Competitors != nil {
		analysis, err = s.Competitors.Analyze(ctx, nmID, 0)
		if err != nil {
			fmt.Printf("[OPTIMIZER] Competitor analysis for %d failed, continuing without: %v\n", nmID, err)
			analysis = nil
		}
	}
	comp := analysis.PriceSummary()

	el := pricing.Estimate(history)
	outcome := pricing.Search(history, product.CostPrice, el, objective, comp)
	fmt.Printf("[OPTIMIZER] %d: elasticity %.3f (R² %.2f, n=%d), optimal %.2f vs current %.2f\n",
		nmID, el.Coefficient, el.Confidence, el.SampleSize, outcome.OptimalPrice, product.CurrentPrice)

	rec := &models.Recommendation{
		NmID:               nmID,
		ProductName:        product.Name,
		CurrentPrice:       product.CurrentPrice,
		OptimalPrice:       outcome.OptimalPrice,
		PriceChangePercent: risk.ChangePercent(product.CurrentPrice, outcome.OptimalPrice),
		MarketMedianDelta:  outcome.MarketMedianDeltaPct,
		Elasticity:         el,
		CompetitorAnalysis: analysis,
		CreatedAt:          s.now().UTC(),
	}
	s.fillMetrics(rec, history, product.CostPrice, outcome.Prediction)

	ain := annotate.Input{
		ProductName:          product.Name,
		Category:             product.Category,
		CurrentPrice:         product.CurrentPrice,
		OptimalPrice:         outcome.OptimalPrice,
		CostPrice:            product.CostPrice,
		Elasticity:           el,
		CurrentDailySales:    rec.CurrentDailySales,
		PredictedDailySales:  rec.PredictedDailySales,
		CurrentDailyProfit:   rec.CurrentDailyProfit,
		PredictedDailyProfit: rec.PredictedDailyProfit,
		Competitors:          comp,
	}
	rec.Insights, err = s.Annotator.Annotate(ctx, ain)
	if err != nil {
		fmt.Printf("[OPTIMIZER] Insights for %d failed, using rules: %v\n", nmID, err)
		rec.Insights, _ = annotate.Rules{}.Annotate(ctx, ain)
	}
	rec.Recommendation = rec.Insights.Recommendation
	rec.RiskLevel = rec.Insights.RiskLevel

	rec.Scenarios = pricing.Scenarios(pricing.ScenarioInput{
		History:      history,
		CurrentPrice: product.CurrentPrice,
		OptimalPrice: outcome.OptimalPrice,
		CostPrice:    product.CostPrice,
		Elasticity:   el.Coefficient,
		Competitors:  comp,
	})

	saved, err := s.Optimizations.Save(ctx, toOptimization(rec, objective))
	if err != nil {
		return nil, fmt.Errorf("save optimization for %d: %w", nmID, err)
	}
	rec.OptimizationID = saved.ID
	if !saved.CreatedAt.IsZero() {
		rec.CreatedAt = saved.CreatedAt
	}
	return rec, nil
}

// loadHistory pulls sales statistics from the marketplace and stores them,
// or reads the stored window when the marketplace is unavailable.
func (s *Service) loadHistory(ctx context.Context, nmID int64) ([]pricing.PricePoint, error) {
	window := s.opts.Params.WindowDays

	if s.Marketplace != nil && s.Marketplace.Configured() {
		points, err := s.Marketplace.SalesHistory(ctx, nmID, window)
		if err == nil {
			sortByTime(points)
			if _, err := s.History.UpsertMany(ctx, nmID, points, sourceMarketplace); err != nil {
				fmt.Printf("[OPTIMIZER] Storing history for %d failed: %v\n", nmID, err)
			}
			return points, nil
		}
		fmt.Printf("[OPTIMIZER] Marketplace history for %d failed, using stored history: %v\n", nmID, err)
	}

	records, err := s.History.GetRecent(ctx, nmID, window)
	if err != nil {
		return nil, fmt.Errorf("stored history for %d: %w", nmID, err)
	}
	points := models.PricePoints(records)
	sortByTime(points)
	return points, nil
}

// fillMetrics sets the current metrics from the most recent points and the
// predicted ones from the search. With no prediction the current metrics
// carry over.
func (s *Service) fillMetrics(rec *models.Recommendation, history []pricing.PricePoint, cost float64, pred *pricing.Prediction) {
	recent := history
	if len(recent) > s.opts.RecentDays {
		recent = recent[len(recent)-s.opts.RecentDays:]
	}
	var units int
	var revenue float64
	for _, p := range recent {
		units += p.UnitsSold
		revenue += p.Revenue
	}
	if n := len(recent); n > 0 {
		rec.CurrentDailySales = units / n
		rec.CurrentDailyRevenue = revenue / float64(n)
	}
	rec.CurrentDailyProfit = (rec.CurrentPrice - cost) * float64(rec.CurrentDailySales)

	if pred == nil {
		rec.PredictedDailySales = rec.CurrentDailySales
		rec.PredictedDailyRevenue = rec.CurrentDailyRevenue
		rec.PredictedDailyProfit = rec.CurrentDailyProfit
		return
	}
	rec.PredictedDailySales = pred.Units
	rec.PredictedDailyRevenue = pred.Revenue
	rec.PredictedDailyProfit = pred.Profit
}

// OptimizeMany optimizes the given products, or all of them when ids is
// empty, with bounded concurrency. Products that fail are logged and
// skipped. Results keep the input order.
func (s *Service) OptimizeMany(ctx context.Context, req BulkRequest) (*models.BulkResult, error) {
	products, err := s.bulkProducts(ctx, req.NmIDs)
	if err != nil {
		return nil, err
	}
	minConfidence := s.opts.MinConfidence
	if req.MinConfidence != nil {
		minConfidence = *req.MinConfidence
	}
	fmt.Printf("[OPTIMIZER] Optimizing %d products (%s, %d workers)\n", len(products), req.Objective, s.opts.Workers)

	results := make([]*models.Recommendation, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range products {
		p := &products[i]
		g.Go(func() error {
			rec, err := s.optimize(gctx, p, Request{Objective: req.Objective, ConsiderCompetitors: req.ConsiderCompetitors})
			if err != nil {
				fmt.Printf("[OPTIMIZER] Skipping %d: %v\n", p.NmID, err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &models.BulkResult{
		TotalProducts:   len(products),
		Recommendations: []models.Recommendation{},
	}
	for _, rec := range results {
		if rec == nil || rec.Elasticity.Confidence < minConfidence {
			continue
		}
		out.Recommendations = append(out.Recommendations, *rec)
		out.TotalPotentialProfitIncrease += rec.PredictedDailyProfit - rec.CurrentDailyProfit
		out.TotalPotentialRevenueIncrease += rec.PredictedDailyRevenue - rec.CurrentDailyRevenue
	}
	out.OptimizedProducts = len(out.Recommendations)
	fmt.Printf("[OPTIMIZER] Bulk done: %d/%d products above confidence %.2f\n", out.OptimizedProducts, out.TotalProducts, minConfidence)
	return out, nil
}

func (s *Service) bulkProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		products, err := s.Products.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		return products, nil
	}
	var products []models.Product
	for _, id := range ids {
		p, err := s.Products.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", id, err)
		}
		if p == nil {
			fmt.Printf("[OPTIMIZER] Product %d not found, skipping\n", id)
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}

// ApplyOptimalPrice pushes the latest recommended price to the marketplace
// after the risk guard accepts it.
func (s *Service) ApplyOptimalPrice(ctx context.Context, nmID int64) (*models.ApplyResult, error) {
	latest, err := s.Optimizations.GetLatest(ctx, nmID)
	if err != nil {
		return nil, fmt.Errorf("latest optimization for %d: %w", nmID, err)
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoRecommendation, nmID)
	}
	product, err := s.Products.Get(ctx, nmID)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", nmID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, nmID)
	}

	if s.Guard != nil {
		if err := s.Guard.PreApplyCheck(ctx, product.CurrentPrice, latest.OptimalPrice); err != nil {
			fmt.Printf("[OPTIMIZER] Apply for %d blocked: %v\n", nmID, err)
			return nil, err
		}
	}

	if err := s.Marketplace.UpdatePrice(ctx, nmID, latest.OptimalPrice); err != nil {
		return nil, fmt.Errorf("update marketplace price for %d: %w", nmID, err)
	}

	at := s.now().UTC()
	if err := s.Optimizations.MarkApplied(ctx, latest.ID, at); err != nil {
		return nil, fmt.Errorf("mark optimization %d applied: %w", latest.ID, err)
	}
	if err := s.Products.UpdateCurrentPrice(ctx, nmID, latest.OptimalPrice); err != nil {
		return nil, fmt.Errorf("update current price for %d: %w", nmID, err)
	}
	if err := s.Cache.Delete(ctx, priceKey(nmID)); err != nil {
		fmt.Printf("[OPTIMIZER] Price cache invalidation for %d failed: %v\n", nmID, err)
	}

	res := &models.ApplyResult{
		NmID:           nmID,
		OptimizationID: latest.ID,
		PreviousPrice:  product.CurrentPrice,
		NewPrice:       latest.OptimalPrice,
		ChangePercent:  risk.ChangePercent(product.CurrentPrice, latest.OptimalPrice),
		AppliedAt:      at,
	}
	fmt.Printf("[OPTIMIZER] Applied %d: %.2f -> %.2f (%+.1f%%)\n", nmID, res.PreviousPrice, res.NewPrice, res.ChangePercent)
	if s.Notifier != nil {
		s.Notifier.Send(fmt.Sprintf("Price updated for %d (%s): %.2f -> %.2f (%+.1f%%)",
			nmID, product.Name, res.PreviousPrice, res.NewPrice, res.ChangePercent))
	}
	return res, nil
}

type cachedPrice struct {
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CurrentPrice returns the live storefront price, served from cache while
// it is fresh.
func (s *Service) CurrentPrice(ctx context.Context, nmID int64) (*models.CurrentPrice, error) {
	key := priceKey(nmID)
	now := s.now().UTC()

	var hit cachedPrice
	ok, err := s.Cache.Get(ctx, key, &hit)
	if err != nil {
		fmt.Printf("[OPTIMIZER] Price cache read for %d failed: %v\n", nmID, err)
	} else if ok {
		return &models.CurrentPrice{
			NmID:             nmID,
			Price:            hit.Price,
			Source:           sourceCache,
			CachedSecondsAgo: int(now.Sub(hit.FetchedAt).Seconds()),
			Timestamp:        now,
		}, nil
	}

	price, source, err := s.Marketplace.FetchPrice(ctx, nmID)
	if err != nil {
		return nil, fmt.Errorf("fetch price for %d: %w", nmID, err)
	}
	if s.opts.PriceTTL > 0 {
		if err := s.Cache.Set(ctx, key, cachedPrice{Price: price, FetchedAt: now}, s.opts.PriceTTL); err != nil {
			fmt.Printf("[OPTIMIZER] Price cache write for %d failed: %v\n", nmID, err)
		}
	}
	return &models.CurrentPrice{NmID: nmID, Price: price, Source: source, Timestamp: now}, nil
}

func priceKey(nmID int64) string {
	return fmt.Sprintf("price:%d", nmID)
}

func sortByTime(points []pricing.PricePoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
}

func toOptimization(rec *models.Recommendation, objective pricing.Objective) *models.Optimization {
	return &models.Optimization{
		NmID:                  rec.NmID,
		Objective:             string(objective),
		CurrentPrice:          rec.CurrentPrice,
		OptimalPrice:          rec.OptimalPrice,
		PredictedRevenue:      rec.PredictedDailyRevenue,
		PredictedProfit:       rec.PredictedDailyProfit,
		PredictedSales:        rec.PredictedDailySales,
		ElasticityCoefficient: rec.Elasticity.Coefficient,
		ConfidenceScore:       rec.Elasticity.Confidence,
		RiskLevel:             rec.RiskLevel,
		Recommendation:        rec.Recommendation,
		InsightsJSON:          marshalOrNil(rec.Insights),
		CompetitorJSON:        marshalOrNil(rec.CompetitorAnalysis),
		ScenariosJSON:         marshalOrNil(rec.Scenarios),
	}
}

func marshalOrNil(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}
