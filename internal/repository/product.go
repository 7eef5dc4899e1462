package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/price-optimizer/internal/models"
)

const productColumns = `id, nm_id, name, category, current_price, cost_price, created_at, updated_at`

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// Upsert inserts a product or updates the existing row with the same nm_id.
func (r *ProductRepo) Upsert(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (nm_id, name, category, current_price, cost_price)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (nm_id) DO UPDATE
		 SET name = EXCLUDED.name,
		     category = EXCLUDED.category,
		     current_price = EXCLUDED.current_price,
		     cost_price = EXCLUDED.cost_price,
		     updated_at = NOW()
		 RETURNING `+productColumns,
		p.NmID, p.Name, p.Category, p.CurrentPrice, p.CostPrice,
	)
	return scanProduct(row)
}

func (r *ProductRepo) Get(ctx context.Context, nmID int64) (*models.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE nm_id = $1`,
		nmID,
	)
	p, err := scanProduct(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY nm_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *ProductRepo) UpdateCurrentPrice(ctx context.Context, nmID int64, price float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products SET current_price = $1, updated_at = NOW() WHERE nm_id = $2`,
		price, nmID,
	)
	return err
}

// --- scan helpers ---

func scanProduct(row scannable) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.NmID, &p.Name, &p.Category, &p.CurrentPrice, &p.CostPrice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows rowsIter) ([]models.Product, error) {
	var out []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
