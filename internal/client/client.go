// Package client talks to the import server over HTTP. It implements
// flow.Backend for the preview/commit workflow and exposes the saved
// configuration endpoints, including the two-phase delete.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Preview calls POST /api/import/{module}/preview.
func (c *Client) Preview(ctx context.Context, module string, req api.PreviewRequest) (*api.PreviewResponse, error) {
	var resp api.PreviewResponse
	err := c.post(ctx, fmt.Sprintf("/api/import/%s/preview", module), req, &resp, func(status int, errMsg string) error {
		return &importer.FetchError{Msg: errMsg, Status: status}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Import calls POST /api/import/{module}/import.
func (c *Client) Import(ctx context.Context, module string, req api.ImportRequest) (*api.ImportResponse, error) {
	var resp api.ImportResponse
	err := c.post(ctx, fmt.Sprintf("/api/import/%s/import", module), req, &resp, func(status int, errMsg string) error {
		return &importer.CommitError{Msg: errMsg, Status: status}
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends the request body as JSON and decodes either the success
// payload or the {"error": ...} envelope, which wrapErr turns into the
// caller's error type.
func (c *Client) post(ctx context.Context, path string, body, out any, wrapErr func(status int, msg string) error) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapErr(0, "failed to reach import server: "+err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return wrapErr(resp.StatusCode, "failed reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope api.ErrorResponse
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return wrapErr(resp.StatusCode, envelope.Error)
		}
		return wrapErr(resp.StatusCode, fmt.Sprintf("server returned status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
