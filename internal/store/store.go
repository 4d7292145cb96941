// Package store persists saved import configurations and committed
// batches in PostgreSQL.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the connection pool. All queries go through it.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the tables on startup when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS api_configs (
			id UUID PRIMARY KEY,
			module_type TEXT NOT NULL,
			config_name TEXT NOT NULL,
			platform TEXT NOT NULL DEFAULT '',
			api_url TEXT NOT NULL,
			data_path TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL DEFAULT '',
			shop_name TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (module_type, config_name)
		)`,
		`CREATE TABLE IF NOT EXISTS import_batches (
			id UUID PRIMARY KEY,
			module_type TEXT NOT NULL,
			import_date DATE NOT NULL,
			platform TEXT NOT NULL DEFAULT '',
			shop_name TEXT NOT NULL DEFAULT '',
			row_count INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS import_rows (
			id BIGSERIAL PRIMARY KEY,
			batch_id UUID NOT NULL REFERENCES import_batches(id) ON DELETE CASCADE,
			row_num INTEGER NOT NULL,
			fields JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_import_rows_batch ON import_rows (batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_import_batches_module_date ON import_batches (module_type, import_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
