package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/pathstore"
	"github.com/dgallion1/brandgest/internal/strategy"
)

const defaultListLimit = 50

// handleListStrategies lists archived strategies for a brand.
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "strategy archive is not configured", http.StatusServiceUnavailable)
		return
	}
	slug := strategy.Slugify(chi.URLParam(r, "brand"))
	if slug == "" {
		jsonError(w, "invalid brand", http.StatusBadRequest)
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.archive.List(r.Context(), slug, limit)
	if err != nil {
		s.log.Error("list strategies failed", zap.String("brand", slug), zap.Error(err))
		jsonError(w, "failed to list strategies", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"brand":      slug,
		"strategies": records,
	})
}

// handleDeleteStrategy removes one archived strategy.
func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "strategy archive is not configured", http.StatusServiceUnavailable)
		return
	}
	slug := strategy.Slugify(chi.URLParam(r, "brand"))
	jobID := chi.URLParam(r, "jobID")

	err := s.archive.Delete(r.Context(), slug, jobID)
	switch {
	case errors.Is(err, pathstore.ErrNotFound):
		jsonError(w, "strategy not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.Error("delete strategy failed", zap.String("brand", slug), zap.String("job_id", jobID), zap.Error(err))
		jsonError(w, "failed to delete strategy", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"brand":   slug,
		"job_id":  jobID,
		"deleted": true,
	})
}
