package server

import (
	"net/http"
)

// handleSourceList handles GET /api/sources.
func (s *Server) handleSourceList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	sources, err := s.app.EntryService.ListSources(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("Failed to list sources")
		WriteError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

// handleSourceVisibility handles PUT /api/sources/{id}/visibility.
func (s *Server) handleSourceVisibility(w http.ResponseWriter, r *http.Request, sourceID string) {
	if !RequireMethod(w, r, http.MethodPut, http.MethodPatch) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Visible == nil {
		WriteError(w, http.StatusBadRequest, "visible is required")
		return
	}

	if err := s.app.EntryService.SetSourceVisibility(r.Context(), userID, sourceID, *req.Visible); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to update visibility")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"id": sourceID, "visible": *req.Visible})
}
