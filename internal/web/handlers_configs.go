package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

// handleListConfigs returns the saved configurations for a module,
// credentials masked.
func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	moduleType := r.URL.Query().Get("module_type")

	configs, err := s.configs.ListConfigs(r.Context(), moduleType)
	if err != nil {
		s.configError(w, r, err)
		return
	}

	masked := make([]api.SavedConfig, len(configs))
	for i, cfg := range configs {
		masked[i] = cfg.Masked()
	}
	writeJSON(w, http.StatusOK, api.ConfigListResponse{Success: true, Configs: masked})
}

// handleGetConfig returns one configuration, credential masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.GetConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.configError(w, r, err)
		return
	}

	masked := cfg.Masked()
	writeJSON(w, http.StatusOK, api.ConfigResponse{Success: true, Config: &masked})
}

// handleSaveConfig creates a configuration, or updates the one sharing
// its (module_type, config_name) pair.
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg api.SavedConfig
	if err := decodeJSON(r, &cfg); err != nil {
		s.configError(w, r, err)
		return
	}

	if err := validateConfig(cfg); err != nil {
		s.configError(w, r, err)
		return
	}

	saved, created, err := s.configs.SaveConfig(r.Context(), cfg)
	if err != nil {
		s.configError(w, r, err)
		return
	}

	status := http.StatusOK
	message := "configuration updated"
	if created {
		status = http.StatusCreated
		message = "configuration saved"
	}

	masked := saved.Masked()
	writeJSON(w, status, api.ConfigResponse{Success: true, Config: &masked, Message: message})
}

// handleDeleteConfig removes a configuration by id.
func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.configs.DeleteConfig(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.configError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ConfigDeleteResponse{Success: true, Message: "configuration deleted"})
}

func validateConfig(cfg api.SavedConfig) error {
	mod, ok := importer.GetModule(cfg.ModuleType)
	if !ok {
		return importer.Validationf("unknown module %q", cfg.ModuleType)
	}
	if strings.TrimSpace(cfg.ConfigName) == "" {
		return importer.Validationf("configuration name is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return importer.Validationf("API URL is required")
	}
	if mod.RequirePlatform && strings.TrimSpace(cfg.Platform) == "" {
		return importer.Validationf("platform is required for %s configurations", mod.Key)
	}
	if mod.RequireShopName && strings.TrimSpace(cfg.ShopName) == "" {
		return importer.Validationf("shop name is required for %s configurations", mod.Key)
	}
	return nil
}

// configError writes the {success:false, error} envelope used by the
// configuration endpoints.
func (s *Server) configError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.log.ErrorContext(r.Context(), "config request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, api.ConfigResponse{Success: false, Error: clientMessage(err)})
}
