package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/price-optimizer/internal/models"
	"github.com/kjannette/price-optimizer/internal/pricing"
)

const historyColumns = `id, nm_id, date, sales_day, price, sales_count, revenue, source, created_at`

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// UpsertMany stores one row per product per sales day. A later point for
// the same day replaces the earlier one.
func (r *HistoryRepo) UpsertMany(ctx context.Context, nmID int64, points []pricing.PricePoint, source string) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO price_history (nm_id, date, sales_day, price, sales_count, revenue, source)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 ON CONFLICT (nm_id, sales_day) DO UPDATE
			 SET date = EXCLUDED.date,
			     price = EXCLUDED.price,
			     sales_count = EXCLUDED.sales_count,
			     revenue = EXCLUDED.revenue,
			     source = EXCLUDED.source`,
			nmID, p.Timestamp, SalesDay(p.Timestamp), p.Price, p.UnitsSold, p.Revenue, source,
		)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range points {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, err
		}
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(points), nil
}

// GetRecent returns the product's history for the last `days` days in
// ascending date order.
func (r *HistoryRepo) GetRecent(ctx context.Context, nmID int64, days int) ([]models.HistoryRecord, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := r.pool.Query(ctx,
		`SELECT `+historyColumns+` FROM price_history
		 WHERE nm_id = $1 AND date >= $2
		 ORDER BY date ASC`,
		nmID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

// --- scan helpers ---

func scanHistory(row scannable) (*models.HistoryRecord, error) {
	var h models.HistoryRecord
	var sd time.Time
	err := row.Scan(&h.ID, &h.NmID, &h.Date, &sd, &h.Price, &h.SalesCount, &h.Revenue, &h.Source, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	h.SalesDay = sd.Format("2006-01-02")
	return &h, nil
}

func collectHistory(rows rowsIter) ([]models.HistoryRecord, error) {
	var out []models.HistoryRecord
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}
