package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

const configColumns = `id, module_type, config_name, platform, api_url,
	data_path, api_key, shop_name, is_active, created_by, created_at, updated_at`

// ListConfigs returns the saved configurations for a module, oldest
// first. Configurations with an empty module_type predate per-module
// tagging and show up for every module.
func (s *Store) ListConfigs(ctx context.Context, moduleType string) ([]api.SavedConfig, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+configColumns+` FROM api_configs
		 WHERE module_type = $1 OR module_type = ''
		 ORDER BY created_at, id`, moduleType)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var out []api.SavedConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// GetConfig loads one configuration by id.
func (s *Store) GetConfig(ctx context.Context, id string) (api.SavedConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM api_configs WHERE id = $1`, id)

	cfg, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return api.SavedConfig{}, &importer.NotFoundError{Kind: "config", ID: id}
	}
	return cfg, err
}

// SaveConfig inserts a configuration, or updates the existing row with
// the same (module_type, config_name) pair. It reports whether a new
// row was created.
//
// A submitted api_key equal to the masked placeholder means "keep the
// stored credential"; read paths never return the real key.
func (s *Store) SaveConfig(ctx context.Context, cfg api.SavedConfig) (api.SavedConfig, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return api.SavedConfig{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID, existingKey string
	err = tx.QueryRow(ctx,
		`SELECT id, api_key FROM api_configs
		 WHERE module_type = $1 AND config_name = $2
		 FOR UPDATE`,
		cfg.ModuleType, cfg.ConfigName).Scan(&existingID, &existingKey)

	created := false
	now := time.Now().UTC()

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		created = true
		cfg.ID = uuid.NewString()
		cfg.CreatedAt = now
		cfg.UpdatedAt = now
		if cfg.APIKey == api.MaskedCredential {
			cfg.APIKey = ""
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO api_configs (`+configColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			cfg.ID, cfg.ModuleType, cfg.ConfigName, cfg.Platform, cfg.APIURL,
			cfg.DataPath, cfg.APIKey, cfg.ShopName, cfg.IsActive, cfg.CreatedBy,
			cfg.CreatedAt, cfg.UpdatedAt)
		if err != nil {
			return api.SavedConfig{}, false, fmt.Errorf("failed to insert config: %w", err)
		}
	case err != nil:
		return api.SavedConfig{}, false, fmt.Errorf("failed to look up config: %w", err)
	default:
		cfg.ID = existingID
		cfg.UpdatedAt = now
		if cfg.APIKey == api.MaskedCredential {
			cfg.APIKey = existingKey
		}
		_, err = tx.Exec(ctx,
			`UPDATE api_configs SET
				platform = $2, api_url = $3, data_path = $4, api_key = $5,
				shop_name = $6, is_active = $7, updated_at = $8
			 WHERE id = $1`,
			cfg.ID, cfg.Platform, cfg.APIURL, cfg.DataPath, cfg.APIKey,
			cfg.ShopName, cfg.IsActive, cfg.UpdatedAt)
		if err != nil {
			return api.SavedConfig{}, false, fmt.Errorf("failed to update config: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return api.SavedConfig{}, false, fmt.Errorf("failed to commit config save: %w", err)
	}
	return cfg, created, nil
}

// DeleteConfig removes a configuration by id.
func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &importer.NotFoundError{Kind: "config", ID: id}
	}
	return nil
}

func scanConfig(row pgx.Row) (api.SavedConfig, error) {
	var cfg api.SavedConfig
	err := row.Scan(
		&cfg.ID, &cfg.ModuleType, &cfg.ConfigName, &cfg.Platform, &cfg.APIURL,
		&cfg.DataPath, &cfg.APIKey, &cfg.ShopName, &cfg.IsActive, &cfg.CreatedBy,
		&cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return api.SavedConfig{}, err
	}
	return cfg, nil
}
