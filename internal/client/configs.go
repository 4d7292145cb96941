package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

// ListConfigs returns the saved configurations visible to a module.
func (c *Client) ListConfigs(ctx context.Context, module string) ([]api.SavedConfig, error) {
	var resp api.ConfigListResponse
	path := "/api/configs?module_type=" + url.QueryEscape(module)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &importer.ConfigError{Msg: orDefault(resp.Error, "failed to list configurations")}
	}
	return resp.Configs, nil
}

// GetConfig loads one configuration by id. The api_key comes back
// masked.
func (c *Client) GetConfig(ctx context.Context, id string) (*api.SavedConfig, error) {
	var resp api.ConfigResponse
	if err := c.getJSON(ctx, "/api/configs/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Config == nil {
		return nil, &importer.NotFoundError{Kind: "config", ID: id}
	}
	return resp.Config, nil
}

// SaveConfig creates or updates a configuration. Required fields are
// checked against the module's rules before anything hits the wire.
func (c *Client) SaveConfig(ctx context.Context, cfg api.SavedConfig) (*api.SavedConfig, error) {
	mod, ok := importer.GetModule(cfg.ModuleType)
	if !ok {
		return nil, importer.Validationf("unknown module %q", cfg.ModuleType)
	}
	if strings.TrimSpace(cfg.ConfigName) == "" {
		return nil, importer.Validationf("configuration name is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, importer.Validationf("API URL is required")
	}
	if mod.RequirePlatform && strings.TrimSpace(cfg.Platform) == "" {
		return nil, importer.Validationf("platform is required for %s configurations", mod.Key)
	}
	if mod.RequireShopName && strings.TrimSpace(cfg.ShopName) == "" {
		return nil, importer.Validationf("shop name is required for %s configurations", mod.Key)
	}

	var resp api.ConfigResponse
	err := c.post(ctx, "/api/configs", cfg, &resp, func(status int, msg string) error {
		return &importer.ConfigError{Msg: msg}
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Config == nil {
		return nil, &importer.ConfigError{Msg: orDefault(resp.Error, "failed to save configuration")}
	}
	return resp.Config, nil
}

// PendingDelete is a delete that has been started but not confirmed.
// Confirm executes it at most once.
type PendingDelete struct {
	Config api.SavedConfig

	client *Client
	done   atomic.Bool
}

// StartDelete begins a two-phase delete: it loads the configuration so
// the caller can show what is about to be removed, then waits for
// Confirm.
func (c *Client) StartDelete(ctx context.Context, id string) (*PendingDelete, error) {
	cfg, err := c.GetConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PendingDelete{Config: *cfg, client: c}, nil
}

// Confirm performs the delete. Calling it again is a no-op.
func (p *PendingDelete) Confirm(ctx context.Context) error {
	if !p.done.CompareAndSwap(false, true) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.client.baseURL+"/api/configs/"+url.PathEscape(p.Config.ID), nil)
	if err != nil {
		return err
	}

	resp, err := p.client.http.Do(req)
	if err != nil {
		return &importer.ConfigError{Msg: "failed to reach import server: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusNotFound {
		return &importer.NotFoundError{Kind: "config", ID: p.Config.ID}
	}

	var envelope api.ConfigDeleteResponse
	if json.Unmarshal(data, &envelope) == nil && !envelope.Success && envelope.Error != "" {
		return &importer.ConfigError{Msg: envelope.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &importer.ConfigError{Msg: fmt.Sprintf("delete failed with status %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &importer.ConfigError{Msg: "failed to reach import server: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return &importer.ConfigError{Msg: "failed reading response", Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &importer.ConfigError{Msg: "failed to decode response", Err: err}
	}
	return nil
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
