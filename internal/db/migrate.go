package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id            BIGSERIAL PRIMARY KEY,
		nm_id         BIGINT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		current_price DOUBLE PRECISION NOT NULL CHECK (current_price > 0),
		cost_price    DOUBLE PRECISION NOT NULL CHECK (cost_price > 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS price_history (
		id          BIGSERIAL PRIMARY KEY,
		nm_id       BIGINT NOT NULL,
		date        TIMESTAMPTZ NOT NULL,
		sales_day   DATE NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		sales_count INTEGER NOT NULL DEFAULT 0,
		revenue     DOUBLE PRECISION NOT NULL DEFAULT 0,
		source      TEXT NOT NULL DEFAULT 'marketplace',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (nm_id, sales_day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_history_nm_date ON price_history(nm_id, date)`,
	`CREATE TABLE IF NOT EXISTS optimization_results (
		id                     BIGSERIAL PRIMARY KEY,
		nm_id                  BIGINT NOT NULL,
		objective              TEXT NOT NULL DEFAULT 'profit',
		current_price          DOUBLE PRECISION NOT NULL,
		optimal_price          DOUBLE PRECISION NOT NULL,
		predicted_revenue      DOUBLE PRECISION NOT NULL DEFAULT 0,
		predicted_profit       DOUBLE PRECISION NOT NULL DEFAULT 0,
		predicted_sales        INTEGER NOT NULL DEFAULT 0,
		elasticity_coefficient DOUBLE PRECISION NOT NULL DEFAULT 0,
		confidence_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_level             TEXT NOT NULL DEFAULT 'medium',
		recommendation         TEXT NOT NULL DEFAULT '',
		insights               JSONB,
		competitor_data        JSONB,
		scenarios              JSONB,
		applied                BOOLEAN NOT NULL DEFAULT false,
		applied_at             TIMESTAMPTZ,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_optimization_nm_created ON optimization_results(nm_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_optimization_applied_at ON optimization_results(applied_at) WHERE applied`,
}

// Migrate creates the tables the service needs. Statements are idempotent.
func Migrate(ctx context.Context, p *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := p.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	fmt.Printf("[DB] Schema ready (%d statements)\n", len(schema))
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
