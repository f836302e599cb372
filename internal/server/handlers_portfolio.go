package server

import (
	"net/http"
)

// handlePortfolio handles GET /api/portfolio. The metrics snapshot is
// recomputed on each request; it is never persisted.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	metrics, err := s.app.MetricsService.ComputeMetrics(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("Failed to compute portfolio metrics")
		WriteError(w, http.StatusInternalServerError, "failed to compute portfolio metrics")
		return
	}
	WriteJSON(w, http.StatusOK, metrics)
}
