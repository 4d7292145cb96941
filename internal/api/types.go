// Package api defines the JSON wire types exchanged between the import
// workflow, the command-line client, and the HTTP server. Both sides of
// every endpoint marshal through these structs so the shapes cannot
// drift apart.
package api

import (
	"time"

	"github.com/sabuysoft/wms-import/internal/importer"
)

// MaskedCredential is the placeholder returned in place of a stored API
// key on every read path. A save request carrying this exact value keeps
// the credential already on record.
const MaskedCredential = "********"

// PreviewRequest asks the server to fetch rows from an external source
// and return them with a suggested mapping.
type PreviewRequest struct {
	SourceURL  string `json:"sourceUrl"`
	DataPath   string `json:"dataPath,omitempty"`
	Credential string `json:"apiKey,omitempty"`
	Platform   string `json:"platform,omitempty"`
	ShopName   string `json:"shopName,omitempty"`
	UseCache   bool   `json:"useCache"`
}

// PreviewResponse carries the fetched dataset, the suggested mapping and
// a preview of the mapped rows.
type PreviewResponse struct {
	Data         []importer.RawRow    `json:"data"`
	Mapping      importer.Mapping     `json:"mapping"`
	Preview      []importer.MappedRow `json:"preview"`
	TotalRows    int                  `json:"total_rows"`
	FromCache    bool                 `json:"from_cache"`
	CacheExpires string               `json:"cache_expires,omitempty"`
}

// ImportRequest commits a previewed dataset under the given mapping.
type ImportRequest struct {
	Platform string            `json:"platform,omitempty"`
	ShopName string            `json:"shopName,omitempty"`
	Data     []importer.RawRow `json:"data"`
	Mapping  importer.Mapping  `json:"mapping"`
}

// ImportResponse reports a committed batch.
type ImportResponse struct {
	Imported   int    `json:"imported"`
	ImportDate string `json:"import_date,omitempty"`
}

// ErrorResponse is the error envelope for the preview and import
// endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SavedConfig is a stored import configuration as it appears on the
// wire. APIKey holds MaskedCredential on read paths.
type SavedConfig struct {
	ID         string    `json:"id"`
	ModuleType string    `json:"module_type"`
	ConfigName string    `json:"config_name"`
	Platform   string    `json:"platform,omitempty"`
	APIURL     string    `json:"api_url"`
	DataPath   string    `json:"data_path,omitempty"`
	APIKey     string    `json:"api_key,omitempty"`
	ShopName   string    `json:"shop_name,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConfigListResponse is the envelope for GET /api/configs.
type ConfigListResponse struct {
	Success bool          `json:"success"`
	Configs []SavedConfig `json:"configs"`
	Error   string        `json:"error,omitempty"`
}

// ConfigResponse is the envelope for single-config reads and saves.
type ConfigResponse struct {
	Success bool         `json:"success"`
	Config  *SavedConfig `json:"config,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ConfigDeleteResponse is the envelope for DELETE /api/configs/{id}.
type ConfigDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Masked returns a copy of the config safe to hand to read paths: the
// stored credential replaced with the placeholder when one is present.
func (c SavedConfig) Masked() SavedConfig {
	if c.APIKey != "" {
		c.APIKey = MaskedCredential
	}
	return c
}
