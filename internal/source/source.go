// Package source fetches row datasets from external HTTP endpoints for
// preview. Responses are JSON, optionally nested under a dot-separated
// data path, and successful fetches can be cached per module and URL.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sabuysoft/wms-import/internal/importer"
)

// Params identifies one external dataset.
type Params struct {
	SourceURL  string
	DataPath   string
	Credential string
	Platform   string
	ShopName   string
}

// Result is a fetched dataset plus its cache provenance.
type Result struct {
	Rows      []importer.RawRow
	FromCache bool
	ExpiresAt time.Time
}

// Fetcher pulls datasets over HTTP and keeps successful fetches in a
// cache for the configured TTL.
type Fetcher struct {
	client   *http.Client
	cache    Cache
	ttl      time.Duration
	maxBytes int64
}

// Options tunes a Fetcher. Zero values fall back to sane defaults.
type Options struct {
	Client   *http.Client
	Cache    Cache
	TTL      time.Duration
	MaxBytes int64
}

const (
	defaultTTL      = 5 * time.Minute
	defaultMaxBytes = 32 << 20
)

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:   opts.Client,
		cache:    opts.Cache,
		ttl:      opts.TTL,
		maxBytes: opts.MaxBytes,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 30 * time.Second}
	}
	if f.cache == nil {
		f.cache = NewMemoryCache()
	}
	if f.ttl <= 0 {
		f.ttl = defaultTTL
	}
	if f.maxBytes <= 0 {
		f.maxBytes = defaultMaxBytes
	}
	return f
}

// Fetch returns the dataset at p.SourceURL. When useCache is set and an
// unexpired entry exists for the same module and URL, the cached rows
// are returned without a network call.
func (f *Fetcher) Fetch(ctx context.Context, module string, p Params, useCache bool) (*Result, error) {
	if strings.TrimSpace(p.SourceURL) == "" {
		return nil, importer.Validationf("source URL is required")
	}

	key := cacheKey(module, p.SourceURL)
	if useCache {
		if rows, expires, ok := f.cache.Get(ctx, key); ok {
			return &Result{Rows: rows, FromCache: true, ExpiresAt: expires}, nil
		}
	}

	rows, err := f.fetch(ctx, p)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(f.ttl)
	f.cache.Set(ctx, key, rows, f.ttl)

	return &Result{Rows: rows, ExpiresAt: expires}, nil
}

func (f *Fetcher) fetch(ctx context.Context, p Params) ([]importer.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.SourceURL, nil)
	if err != nil {
		return nil, importer.Validationf("invalid source URL: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+p.Credential)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &importer.FetchError{Msg: "failed to reach data source: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &importer.FetchError{
			Msg:    fmt.Sprintf("data source returned status %d", resp.StatusCode),
			Status: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &importer.FetchError{Msg: "failed reading response body", Err: err}
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &importer.FetchError{Msg: "response is not valid JSON", Err: err}
	}

	rows, err := extractRows(payload, p.DataPath)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// extractRows drills into the decoded payload along the dot-separated
// path ("data.items") and coerces the value found there into rows.
func extractRows(payload any, dataPath string) ([]importer.RawRow, error) {
	cur := payload
	if path := strings.TrimSpace(dataPath); path != "" {
		for _, seg := range strings.Split(path, ".") {
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, importer.Validationf("data path %q does not match the response shape", dataPath)
			}
			cur, ok = obj[seg]
			if !ok {
				return nil, importer.Validationf("data path segment %q not found in response", seg)
			}
		}
	}

	switch v := cur.(type) {
	case []any:
		rows := make([]importer.RawRow, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, importer.Validationf("element %d at data path is not an object", i)
			}
			rows = append(rows, importer.RawRow(obj))
		}
		return rows, nil
	case map[string]any:
		// A single object counts as a one-row dataset.
		return []importer.RawRow{importer.RawRow(v)}, nil
	default:
		return nil, importer.Validationf("response contains no row data; set a data path pointing at the array")
	}
}

func cacheKey(module, sourceURL string) string {
	return module + "|" + sourceURL
}
