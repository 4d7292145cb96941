// Package web provides the HTTP server for the import API: dataset
// preview, batch commit and saved configuration management.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
	"github.com/sabuysoft/wms-import/internal/store"
)

// ImportService runs previews and commits for one module.
type ImportService interface {
	Preview(ctx context.Context, module string, req api.PreviewRequest) (*api.PreviewResponse, error)
	Import(ctx context.Context, module string, req api.ImportRequest) (*api.ImportResponse, error)
}

// ConfigStore persists saved import configurations.
type ConfigStore interface {
	ListConfigs(ctx context.Context, moduleType string) ([]api.SavedConfig, error)
	GetConfig(ctx context.Context, id string) (api.SavedConfig, error)
	SaveConfig(ctx context.Context, cfg api.SavedConfig) (api.SavedConfig, bool, error)
	DeleteConfig(ctx context.Context, id string) error
}

// BatchReader lists committed batches for the history endpoint.
type BatchReader interface {
	ListBatches(ctx context.Context, moduleType string, limit int) ([]store.Batch, error)
}

// Server is the HTTP server for the import API.
type Server struct {
	service ImportService
	configs ConfigStore
	batches BatchReader
	log     *slog.Logger
	router  *chi.Mux
	server  *http.Server
}

// Options carries the server dependencies and tuning knobs.
type Options struct {
	Service ImportService
	Configs ConfigStore
	Batches BatchReader
	Logger  *slog.Logger

	// RateLimit is requests per minute per IP. Zero disables limiting.
	RateLimit int
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		service: opts.Service,
		configs: opts.Configs,
		batches: opts.Batches,
		log:     opts.Logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware(opts.RateLimit)
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware(rateLimit int) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(securityHeaders)

	if rateLimit > 0 {
		limiter := newRateLimiter(rateLimit, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.handleListModules)

		r.Route("/import/{module}", func(r chi.Router) {
			r.Post("/preview", s.handlePreview)
			r.Post("/import", s.handleImport)
			r.Get("/history", s.handleHistory)
		})

		r.Route("/configs", func(r chi.Router) {
			r.Get("/", s.handleListConfigs)
			r.Post("/", s.handleSaveConfig)
			r.Get("/{id}", s.handleGetConfig)
			r.Delete("/{id}", s.handleDeleteConfig)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) module(r *http.Request) (importer.ImportModule, bool) {
	return importer.GetModule(chi.URLParam(r, "module"))
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return importer.Validationf("invalid request body: %v", err)
	}
	return nil
}
