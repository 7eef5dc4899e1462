package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/price-optimizer/internal/models"
)

const optimizationColumns = `id, nm_id, objective, current_price, optimal_price,
	predicted_revenue, predicted_profit, predicted_sales,
	elasticity_coefficient, confidence_score, risk_level, recommendation,
	insights, competitor_data, scenarios, applied, applied_at, created_at`

type OptimizationRepo struct {
	pool *pgxpool.Pool
}

func NewOptimizationRepo(pool *pgxpool.Pool) *OptimizationRepo {
	return &OptimizationRepo{pool: pool}
}

func (r *OptimizationRepo) Save(ctx context.Context, o *models.Optimization) (*models.Optimization, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO optimization_results
		 (nm_id, objective, current_price, optimal_price,
		  predicted_revenue, predicted_profit, predicted_sales,
		  elasticity_coefficient, confidence_score, risk_level, recommendation,
		  insights, competitor_data, scenarios)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING `+optimizationColumns,
		o.NmID, o.Objective, o.CurrentPrice, o.OptimalPrice,
		o.PredictedRevenue, o.PredictedProfit, o.PredictedSales,
		o.ElasticityCoefficient, o.ConfidenceScore, o.RiskLevel, o.Recommendation,
		jsonOrNull(o.InsightsJSON), jsonOrNull(o.CompetitorJSON), jsonOrNull(o.ScenariosJSON),
	)
	return scanOptimization(row)
}

func (r *OptimizationRepo) GetLatest(ctx context.Context, nmID int64) (*models.Optimization, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+optimizationColumns+` FROM optimization_results
		 WHERE nm_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		nmID,
	)
	o, err := scanOptimization(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OptimizationRepo) GetHistory(ctx context.Context, nmID int64, limit int) ([]models.Optimization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+optimizationColumns+` FROM optimization_results
		 WHERE nm_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		nmID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOptimizations(rows)
}

func (r *OptimizationRepo) MarkApplied(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE optimization_results SET applied = true, applied_at = $1 WHERE id = $2`,
		at, id,
	)
	return err
}

// CountAppliedToday counts price changes applied since the start of the
// current sales day, across all products.
func (r *OptimizationRepo) CountAppliedToday(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM optimization_results WHERE applied AND applied_at >= $1`,
		SalesDayStart(time.Now()),
	).Scan(&count)
	return count, err
}

func jsonOrNull(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// --- scan helpers ---

func scanOptimization(row scannable) (*models.Optimization, error) {
	var o models.Optimization
	err := row.Scan(
		&o.ID, &o.NmID, &o.Objective, &o.CurrentPrice, &o.OptimalPrice,
		&o.PredictedRevenue, &o.PredictedProfit, &o.PredictedSales,
		&o.ElasticityCoefficient, &o.ConfidenceScore, &o.RiskLevel, &o.Recommendation,
		&o.InsightsJSON, &o.CompetitorJSON, &o.ScenariosJSON,
		&o.Applied, &o.AppliedAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOptimizations(rows rowsIter) ([]models.Optimization, error) {
	var out []models.Optimization
	for rows.Next() {
		o, err := scanOptimization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
