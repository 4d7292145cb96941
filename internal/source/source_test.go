package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sabuysoft/wms-import/internal/importer"
)

func TestFetch_PlainArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"orderId":"1","qty":2},{"orderId":"2","qty":3}]`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	res, err := f.Fetch(context.Background(), "orders", Params{SourceURL: srv.URL}, false)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.FromCache {
		t.Error("first fetch reported FromCache")
	}
	if res.Rows[0]["orderId"] != "1" {
		t.Errorf("row 0 orderId = %v, want %q", res.Rows[0]["orderId"], "1")
	}
}

func TestFetch_DataPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","data":{"items":[{"sku":"A-1"}]}}`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	res, err := f.Fetch(context.Background(), "stock", Params{SourceURL: srv.URL, DataPath: "data.items"}, false)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(res.Rows) != 1 || res.Rows[0]["sku"] != "A-1" {
		t.Errorf("rows = %v, want one row with sku A-1", res.Rows)
	}
}

func TestFetch_DataPathMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"sku":"A-1"}]}`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	_, err := f.Fetch(context.Background(), "stock", Params{SourceURL: srv.URL, DataPath: "data.items"}, false)

	var verr *importer.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestFetch_BackendStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	_, err := f.Fetch(context.Background(), "orders", Params{SourceURL: srv.URL}, false)

	var ferr *importer.FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if ferr.Status != http.StatusForbidden {
		t.Errorf("Status = %d, want %d", ferr.Status, http.StatusForbidden)
	}
}

func TestFetch_EmptyURL(t *testing.T) {
	f := NewFetcher(Options{})
	_, err := f.Fetch(context.Background(), "orders", Params{}, true)

	var verr *importer.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestFetch_CredentialHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{})
	if _, err := f.Fetch(context.Background(), "orders", Params{SourceURL: srv.URL, Credential: "secret"}, false); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
}

func TestFetch_CacheHit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"sku":"A-1"}]`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{TTL: time.Minute})
	p := Params{SourceURL: srv.URL}

	first, err := f.Fetch(context.Background(), "stock", p, true)
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	second, err := f.Fetch(context.Background(), "stock", p, true)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("backend calls = %d, want 1", calls)
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache = %v/%v, want false/true", first.FromCache, second.FromCache)
	}
	if second.ExpiresAt.IsZero() {
		t.Error("cached result lost its expiry")
	}
}

func TestFetch_CacheBypass(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"sku":"A-1"}]`))
	}))
	defer srv.Close()

	f := NewFetcher(Options{TTL: time.Minute})
	p := Params{SourceURL: srv.URL}

	f.Fetch(context.Background(), "stock", p, true)
	res, err := f.Fetch(context.Background(), "stock", p, false)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if calls != 2 {
		t.Errorf("backend calls = %d, want 2 with cache bypassed", calls)
	}
	if res.FromCache {
		t.Error("bypass fetch reported FromCache")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	c.Set(ctx, "k", []importer.RawRow{{"a": 1}}, -time.Second)

	if _, _, ok := c.Get(ctx, "k"); ok {
		t.Error("expired entry still served")
	}
}

