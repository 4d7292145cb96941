package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
	"github.com/sabuysoft/wms-import/internal/store"
)

type fakeService struct {
	previewResp *api.PreviewResponse
	previewErr  error
	importResp  *api.ImportResponse
	importErr   error

	gotModule string
}

func (f *fakeService) Preview(_ context.Context, module string, _ api.PreviewRequest) (*api.PreviewResponse, error) {
	f.gotModule = module
	return f.previewResp, f.previewErr
}

func (f *fakeService) Import(_ context.Context, module string, _ api.ImportRequest) (*api.ImportResponse, error) {
	f.gotModule = module
	return f.importResp, f.importErr
}

type fakeConfigs struct {
	configs map[string]api.SavedConfig
	listErr error
}

func newFakeConfigs(cfgs ...api.SavedConfig) *fakeConfigs {
	f := &fakeConfigs{configs: make(map[string]api.SavedConfig)}
	for _, c := range cfgs {
		f.configs[c.ID] = c
	}
	return f
}

func (f *fakeConfigs) ListConfigs(_ context.Context, _ string) ([]api.SavedConfig, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []api.SavedConfig
	for _, c := range f.configs {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeConfigs) GetConfig(_ context.Context, id string) (api.SavedConfig, error) {
	c, ok := f.configs[id]
	if !ok {
		return api.SavedConfig{}, &importer.NotFoundError{Kind: "config", ID: id}
	}
	return c, nil
}

// SaveConfig mirrors the store's upsert: the (module_type, config_name)
// pair identifies the record, and a masked credential keeps the stored one.
func (f *fakeConfigs) SaveConfig(_ context.Context, cfg api.SavedConfig) (api.SavedConfig, bool, error) {
	for id, existing := range f.configs {
		if existing.ModuleType == cfg.ModuleType && existing.ConfigName == cfg.ConfigName {
			cfg.ID = id
			if cfg.APIKey == api.MaskedCredential {
				cfg.APIKey = existing.APIKey
			}
			f.configs[id] = cfg
			return cfg, false, nil
		}
	}
	cfg.ID = fmt.Sprintf("cfg-%d", len(f.configs)+1)
	f.configs[cfg.ID] = cfg
	return cfg, true, nil
}

func (f *fakeConfigs) DeleteConfig(_ context.Context, id string) error {
	if _, ok := f.configs[id]; !ok {
		return &importer.NotFoundError{Kind: "config", ID: id}
	}
	delete(f.configs, id)
	return nil
}

type fakeBatches struct {
	batches []store.Batch
}

func (f *fakeBatches) ListBatches(_ context.Context, _ string, _ int) ([]store.Batch, error) {
	return f.batches, nil
}

func newTestServer(svc ImportService, cfgs ConfigStore, batches BatchReader) *Server {
	return NewServer(Options{Service: svc, Configs: cfgs, Batches: batches})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandlePreview(t *testing.T) {
	svc := &fakeService{previewResp: &api.PreviewResponse{
		Data:      []importer.RawRow{{"orderId": "1"}},
		Mapping:   importer.Mapping{"order_id": "orderId"},
		TotalRows: 1,
	}}
	s := newTestServer(svc, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/import/orders/preview",
		api.PreviewRequest{SourceURL: "https://api.example.com/orders"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if svc.gotModule != "orders" {
		t.Errorf("module = %q", svc.gotModule)
	}

	var resp api.PreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalRows != 1 {
		t.Errorf("TotalRows = %d", resp.TotalRows)
	}
}

func TestHandlePreview_UnknownModule(t *testing.T) {
	s := newTestServer(&fakeService{}, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/import/returns/preview",
		api.PreviewRequest{SourceURL: "u"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlePreview_FetchFailure(t *testing.T) {
	svc := &fakeService{previewErr: &importer.FetchError{Msg: "data source returned status 403", Status: 403}}
	s := newTestServer(svc, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/import/orders/preview",
		api.PreviewRequest{SourceURL: "u"})

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp api.ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "data source returned status 403" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestHandleImport(t *testing.T) {
	svc := &fakeService{importResp: &api.ImportResponse{Imported: 3, ImportDate: "2026-03-14"}}
	s := newTestServer(svc, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/import/orders/import", api.ImportRequest{
		Platform: "shopee",
		ShopName: "main",
		Data:     []importer.RawRow{{"orderId": "1"}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp api.ImportResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Imported != 3 {
		t.Errorf("Imported = %d", resp.Imported)
	}
}

func TestHandleImport_Validation(t *testing.T) {
	svc := &fakeService{importErr: importer.Validationf("platform is required for orders imports")}
	s := newTestServer(svc, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/import/orders/import", api.ImportRequest{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListModules(t *testing.T) {
	s := newTestServer(&fakeService{}, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodGet, "/api/modules", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var mods []moduleInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &mods); err != nil {
		t.Fatal(err)
	}
	if len(mods) != 4 {
		t.Errorf("modules = %d, want 4", len(mods))
	}
}

func TestHandleHistory(t *testing.T) {
	batches := &fakeBatches{batches: []store.Batch{{ID: "b1", ModuleType: "orders", RowCount: 9, CreatedAt: time.Now()}}}
	s := newTestServer(&fakeService{}, newFakeConfigs(), batches)

	rec := doJSON(t, s, http.MethodGet, "/api/import/orders/history", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []store.Batch
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 1 || got[0].RowCount != 9 {
		t.Errorf("batches = %+v", got)
	}
}

func TestHandleListConfigs_MasksCredential(t *testing.T) {
	cfgs := newFakeConfigs(api.SavedConfig{ID: "c1", ModuleType: "orders", ConfigName: "shopee daily", APIKey: "real-secret"})
	s := newTestServer(&fakeService{}, cfgs, &fakeBatches{})

	rec := doJSON(t, s, http.MethodGet, "/api/configs?module_type=orders", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("real-secret")) {
		t.Fatal("stored credential leaked in list response")
	}

	var resp api.ConfigListResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success || len(resp.Configs) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Configs[0].APIKey != api.MaskedCredential {
		t.Errorf("api_key = %q, want masked", resp.Configs[0].APIKey)
	}
}

func TestHandleGetConfig_MasksCredential(t *testing.T) {
	cfgs := newFakeConfigs(api.SavedConfig{ID: "c1", ModuleType: "orders", ConfigName: "shopee daily", APIKey: "real-secret"})
	s := newTestServer(&fakeService{}, cfgs, &fakeBatches{})

	rec := doJSON(t, s, http.MethodGet, "/api/configs/c1", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("real-secret")) {
		t.Fatal("stored credential leaked in get response")
	}
}

func TestHandleGetConfig_NotFound(t *testing.T) {
	s := newTestServer(&fakeService{}, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodGet, "/api/configs/missing", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp api.ConfigResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Success {
		t.Error("success = true on not found")
	}
}

func TestHandleSaveConfig(t *testing.T) {
	cfgs := newFakeConfigs()
	s := newTestServer(&fakeService{}, cfgs, &fakeBatches{})

	rec := doJSON(t, s, http.MethodPost, "/api/configs", api.SavedConfig{
		ModuleType: "orders",
		ConfigName: "shopee daily",
		Platform:   "shopee",
		ShopName:   "main",
		APIURL:     "https://api.example.com/orders",
		APIKey:     "secret",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp api.ConfigResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Success || resp.Config == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Config.APIKey != api.MaskedCredential {
		t.Errorf("save response api_key = %q, want masked", resp.Config.APIKey)
	}
}

// Saving twice under the same (module_type, config_name) must update the
// existing record, not create a second one.
func TestHandleSaveConfig_UpsertByName(t *testing.T) {
	cfgs := newFakeConfigs()
	s := newTestServer(&fakeService{}, cfgs, &fakeBatches{})

	body := api.SavedConfig{
		ModuleType: "stock",
		ConfigName: "warehouse sync",
		APIURL:     "https://api.example.com/stock/v1",
	}

	rec := doJSON(t, s, http.MethodPost, "/api/configs", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first save status = %d, want 201", rec.Code)
	}
	var first api.ConfigResponse
	json.Unmarshal(rec.Body.Bytes(), &first)

	body.APIURL = "https://api.example.com/stock/v2"
	rec = doJSON(t, s, http.MethodPost, "/api/configs", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("second save status = %d, want 200", rec.Code)
	}

	var second api.ConfigResponse
	json.Unmarshal(rec.Body.Bytes(), &second)
	if second.Message != "configuration updated" {
		t.Errorf("message = %q, want %q", second.Message, "configuration updated")
	}
	if second.Config.ID != first.Config.ID {
		t.Errorf("update changed the id: %q -> %q", first.Config.ID, second.Config.ID)
	}

	if len(cfgs.configs) != 1 {
		t.Errorf("stored configs = %d, want exactly 1", len(cfgs.configs))
	}
	if got := cfgs.configs[second.Config.ID].APIURL; got != "https://api.example.com/stock/v2" {
		t.Errorf("stored api_url = %q, update not applied", got)
	}
}

func TestHandleSaveConfig_Validation(t *testing.T) {
	s := newTestServer(&fakeService{}, newFakeConfigs(), &fakeBatches{})

	tests := []struct {
		name string
		cfg  api.SavedConfig
	}{
		{"unknown module", api.SavedConfig{ModuleType: "returns", ConfigName: "x", APIURL: "u"}},
		{"missing name", api.SavedConfig{ModuleType: "orders", APIURL: "u", Platform: "shopee", ShopName: "main"}},
		{"missing url", api.SavedConfig{ModuleType: "orders", ConfigName: "x", Platform: "shopee", ShopName: "main"}},
		{"missing platform", api.SavedConfig{ModuleType: "orders", ConfigName: "x", APIURL: "u", ShopName: "main"}},
		{"missing shop name", api.SavedConfig{ModuleType: "orders", ConfigName: "x", APIURL: "u", Platform: "shopee"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/configs", tt.cfg)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleDeleteConfig(t *testing.T) {
	cfgs := newFakeConfigs(api.SavedConfig{ID: "c1", ModuleType: "orders", ConfigName: "x"})
	s := newTestServer(&fakeService{}, cfgs, &fakeBatches{})

	rec := doJSON(t, s, http.MethodDelete, "/api/configs/c1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/configs/c1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(&fakeService{}, newFakeConfigs(), &fakeBatches{})

	rec := doJSON(t, s, http.MethodGet, "/api/modules", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	s := NewServer(Options{
		Service:   &fakeService{},
		Configs:   newFakeConfigs(),
		Batches:   &fakeBatches{},
		RateLimit: 3,
	})

	var last int
	for i := 0; i < 4; i++ {
		rec := doJSON(t, s, http.MethodGet, "/api/modules", nil)
		last = rec.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("4th request status = %d, want 429", last)
	}
}
