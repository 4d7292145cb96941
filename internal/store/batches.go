package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sabuysoft/wms-import/internal/importer"
)

// Batch is one committed import run.
type Batch struct {
	ID         string
	ModuleType string
	ImportDate time.Time
	Platform   string
	ShopName   string
	RowCount   int
	CreatedAt  time.Time
}

// InsertBatch writes a batch header and its mapped rows in one
// transaction. Rows go in via COPY, each serialized as a JSONB object.
func (s *Store) InsertBatch(ctx context.Context, b Batch, rows []importer.MappedRow) (Batch, error) {
	if len(rows) == 0 {
		return Batch{}, &importer.NoDataError{}
	}

	b.ID = uuid.NewString()
	b.RowCount = len(rows)
	b.CreatedAt = time.Now().UTC()
	if b.ImportDate.IsZero() {
		b.ImportDate = b.CreatedAt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO import_batches (id, module_type, import_date, platform, shop_name, row_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.ModuleType, b.ImportDate, b.Platform, b.ShopName, b.RowCount, b.CreatedAt)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to insert batch: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"import_rows"},
		[]string{"batch_id", "row_num", "fields"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			fields, err := json.Marshal(rows[i])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			return []any{b.ID, i, fields}, nil
		}))
	if err != nil {
		return Batch{}, fmt.Errorf("failed to copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Batch{}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return b, nil
}

// ListBatches returns recent batches for a module, newest first.
func (s *Store) ListBatches(ctx context.Context, moduleType string, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, module_type, import_date, platform, shop_name, row_count, created_at
		 FROM import_batches
		 WHERE module_type = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, moduleType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.ModuleType, &b.ImportDate, &b.Platform,
			&b.ShopName, &b.RowCount, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
