package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sabuysoft/wms-import/internal/api"
	"github.com/sabuysoft/wms-import/internal/importer"
)

type moduleInfo struct {
	Key             string            `json:"key"`
	Label           string            `json:"label"`
	Fields          []importer.Field  `json:"fields"`
	Labels          map[string]string `json:"labels"`
	RequirePlatform bool              `json:"require_platform"`
	RequireShopName bool              `json:"require_shop_name"`
}

// handleListModules returns the registered import modules and their
// canonical fields.
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	mods := importer.Modules()
	out := make([]moduleInfo, 0, len(mods))
	for _, m := range mods {
		out = append(out, moduleInfo{
			Key:             m.Key,
			Label:           m.Label,
			Fields:          m.Fields,
			Labels:          m.Labels(),
			RequirePlatform: m.RequirePlatform,
			RequireShopName: m.RequireShopName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePreview fetches the external dataset and returns it with a
// suggested mapping and the first mapped rows.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	mod, ok := s.module(r)
	if !ok {
		s.importError(w, r, &importer.NotFoundError{Kind: "module", ID: chi.URLParam(r, "module")})
		return
	}

	var req api.PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.importError(w, r, err)
		return
	}

	resp, err := s.service.Preview(r.Context(), mod.Key, req)
	if err != nil {
		s.importError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleImport commits a previewed dataset.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mod, ok := s.module(r)
	if !ok {
		s.importError(w, r, &importer.NotFoundError{Kind: "module", ID: chi.URLParam(r, "module")})
		return
	}

	var req api.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.importError(w, r, err)
		return
	}

	resp, err := s.service.Import(r.Context(), mod.Key, req)
	if err != nil {
		s.importError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory lists recent batches for a module.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	mod, ok := s.module(r)
	if !ok {
		s.importError(w, r, &importer.NotFoundError{Kind: "module", ID: chi.URLParam(r, "module")})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	batches, err := s.batches.ListBatches(r.Context(), mod.Key, limit)
	if err != nil {
		s.importError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// importError writes the {"error": ...} envelope used by the preview
// and import endpoints.
func (s *Server) importError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.log.ErrorContext(r.Context(), "request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, api.ErrorResponse{Error: clientMessage(err)})
}
