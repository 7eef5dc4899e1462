package optimizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

var day0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// alternating returns n daily points switching between 1400 (50 units) and
// 1600 (35 units), newest last.
func alternating(n int) []pricing.PricePoint {
	out := make([]pricing.PricePoint, n)
	for i := range out {
		price, units := 1400.0, 50
		if i%2 == 1 {
			price, units = 1600, 35
		}
		out[i] = pricing.PricePoint{
			Timestamp: day0.AddDate(0, 0, i),
			Price:     price,
			UnitsSold: units,
			Revenue:   price * float64(units),
		}
	}
	return out
}

type fakeProducts struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

func newFakeProducts(ps ...models.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]*models.Product{}}
	for i := range ps {
		p := ps[i]
		f.products[p.NmID] = &p
	}
	return f
}

func (f *fakeProducts) Upsert(_ context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.products[p.NmID] = &cp
	return &cp, nil
}

func (f *fakeProducts) Get(_ context.Context, nmID int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[nmID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) List(_ context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) UpdateCurrentPrice(_ context.Context, nmID int64, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[nmID]; ok {
		p.CurrentPrice = price
	}
	return nil
}

type fakeHistory struct {
	mu       sync.Mutex
	stored   map[int64][]pricing.PricePoint
	upserted map[int64]int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{stored: map[int64][]pricing.PricePoint{}, upserted: map[int64]int{}}
}

func (f *fakeHistory) UpsertMany(_ context.Context, nmID int64, points []pricing.PricePoint, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted[nmID] += len(points)
	f.stored[nmID] = points
	return len(points), nil
}

func (f *fakeHistory) GetRecent(_ context.Context, nmID int64, _ int) ([]models.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.HistoryRecord
	for _, p := range f.stored[nmID] {
		out = append(out, models.HistoryRecord{
			NmID:       nmID,
			Date:       p.Timestamp,
			Price:      p.Price,
			SalesCount: p.UnitsSold,
			Revenue:    p.Revenue,
		})
	}
	return out, nil
}

type fakeOptimizations struct {
	mu      sync.Mutex
	saved   []models.Optimization
	applied map[int64]time.Time
}

func (f *fakeOptimizations) Save(_ context.Context, o *models.Optimization) (*models.Optimization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	cp.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, cp)
	return &cp, nil
}

func (f *fakeOptimizations) GetLatest(_ context.Context, nmID int64) (*models.Optimization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].NmID == nmID {
			cp := f.saved[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOptimizations) MarkApplied(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applied == nil {
		f.applied = map[int64]time.Time{}
	}
	f.applied[id] = at
	return nil
}

type fakeMarket struct {
	mu         sync.Mutex
	configured bool
	history    map[int64][]pricing.PricePoint
	historyErr error
	updates    map[int64]float64
	price      float64
	fetches    int
}

func (f *fakeMarket) Configured() bool { return f.configured }

func (f *fakeMarket) SalesHistory(_ context.Context, nmID int64, _ int) ([]pricing.PricePoint, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pricing.PricePoint(nil), f.history[nmID]...), nil
}

func (f *fakeMarket) UpdatePrice(_ context.Context, nmID int64, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[int64]float64{}
	}
	f.updates[nmID] = price
	return nil
}

func (f *fakeMarket) FetchPrice(_ context.Context, _ int64) (float64, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.price == 0 {
		return 0, "", errors.New("price not found")
	}
	return f.price, "wb_api", nil
}

type fakeCompetitors struct {
	analysis *models.CompetitorAnalysis
	err      error
}

func (f fakeCompetitors) Analyze(context.Context, int64, int) (*models.CompetitorAnalysis, error) {
	return f.analysis, f.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Send(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}
