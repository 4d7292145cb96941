// Package service implements the import operations behind the HTTP
// endpoints: preview an external dataset and commit a mapped batch.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
	"github.com/sabuysoft/wms-import/internal/source"
	"github.com/sabuysoft/wms-import/internal/store"
)

// Fetcher pulls row datasets from external sources.
type Fetcher interface {
	Fetch(ctx context.Context, module string, p source.Params, useCache bool) (*source.Result, error)
}

// BatchWriter persists committed batches.
type BatchWriter interface {
	InsertBatch(ctx context.Context, b store.Batch, rows []importer.MappedRow) (store.Batch, error)
}

// Service wires the fetcher and the batch store behind the import
// endpoints.
type Service struct {
	fetcher Fetcher
	batches BatchWriter
	log     *slog.Logger
}

func New(fetcher Fetcher, batches BatchWriter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{fetcher: fetcher, batches: batches, log: log}
}

// Preview fetches the dataset, suggests a mapping against the module's
// canonical fields and returns the first mapped rows.
func (s *Service) Preview(ctx context.Context, moduleKey string, req api.PreviewRequest) (*api.PreviewResponse, error) {
	mod, ok := importer.GetModule(moduleKey)
	if !ok {
		return nil, &importer.NotFoundError{Kind: "module", ID: moduleKey}
	}

	res, err := s.fetcher.Fetch(ctx, mod.Key, source.Params{
		SourceURL:  req.SourceURL,
		DataPath:   req.DataPath,
		Credential: req.Credential,
		Platform:   req.Platform,
		ShopName:   req.ShopName,
	}, req.UseCache)
	if err != nil {
		return nil, err
	}

	mapping := importer.SuggestMapping(mod, importer.SourceFields(res.Rows))

	resp := &api.PreviewResponse{
		Data:      res.Rows,
		Mapping:   mapping,
		Preview:   importer.PreviewSlice(res.Rows, mapping),
		TotalRows: len(res.Rows),
		FromCache: res.FromCache,
	}
	if res.FromCache {
		resp.CacheExpires = res.ExpiresAt.UTC().Format(time.RFC3339)
	}

	s.log.InfoContext(ctx, "preview fetched",
		"module", mod.Key,
		"rows", resp.TotalRows,
		"from_cache", resp.FromCache,
	)
	return resp, nil
}

// Import validates the request against the module's rules, remaps every
// row and writes the batch.
func (s *Service) Import(ctx context.Context, moduleKey string, req api.ImportRequest) (*api.ImportResponse, error) {
	mod, ok := importer.GetModule(moduleKey)
	if !ok {
		return nil, &importer.NotFoundError{Kind: "module", ID: moduleKey}
	}

	if mod.RequirePlatform && strings.TrimSpace(req.Platform) == "" {
		return nil, importer.Validationf("platform is required for %s imports", mod.Key)
	}
	if mod.RequireShopName && strings.TrimSpace(req.ShopName) == "" {
		return nil, importer.Validationf("shop name is required for %s imports", mod.Key)
	}
	if len(req.Data) == 0 {
		return nil, &importer.NoDataError{}
	}

	mapped := importer.ApplyMapping(req.Data, importer.NormalizeDomain(mod, req.Mapping))

	batch, err := s.batches.InsertBatch(ctx, store.Batch{
		ModuleType: mod.Key,
		Platform:   req.Platform,
		ShopName:   req.ShopName,
	}, mapped)
	if err != nil {
		return nil, &importer.CommitError{Msg: "failed to store import batch", Err: err}
	}

	s.log.InfoContext(ctx, "batch committed",
		"module", mod.Key,
		"batch_id", batch.ID,
		"rows", batch.RowCount,
	)

	return &api.ImportResponse{
		Imported:   batch.RowCount,
		ImportDate: batch.ImportDate.UTC().Format("2006-01-02"),
	}, nil
}
