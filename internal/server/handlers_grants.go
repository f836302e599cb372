package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/mwillis/coinfolio/internal/models"
	"github.com/mwillis/coinfolio/internal/services/grants"
)

// handleGrants handles GET /api/grants and POST /api/grants.
func (s *Server) handleGrants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGrantList(w, r)
	case http.MethodPost:
		s.handleGrantRequest(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleGrantList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := s.app.GrantService.ListGrants(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("Failed to list grants")
		WriteError(w, http.StatusInternalServerError, "failed to list grants")
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleGrantRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Sharer string `json:"sharer"` // user id or handle
		models.GrantFilters
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	grant, err := s.app.GrantService.RequestAccess(r.Context(), userID, req.Sharer, req.GrantFilters)
	if err != nil {
		writeGrantError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, grant)
}

func (s *Server) handleGrantApprove(w http.ResponseWriter, r *http.Request, grantID string) {
	s.handleGrantTransition(w, r, grantID, s.app.GrantService.Approve, "granted")
}

func (s *Server) handleGrantDeny(w http.ResponseWriter, r *http.Request, grantID string) {
	s.handleGrantTransition(w, r, grantID, s.app.GrantService.Deny, "denied")
}

func (s *Server) handleGrantRevoke(w http.ResponseWriter, r *http.Request, grantID string) {
	s.handleGrantTransition(w, r, grantID, s.app.GrantService.Revoke, "revoked")
}

func (s *Server) handleGrantTransition(w http.ResponseWriter, r *http.Request, grantID string, transition func(ctx context.Context, actorID, grantID string) error, result string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := transition(r.Context(), userID, grantID); err != nil {
		writeGrantError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"id": grantID, "status": result})
}

func writeGrantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, grants.ErrSelfTarget),
		errors.Is(err, grants.ErrNoSharedTypes):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, grants.ErrUnknownUser):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, grants.ErrDuplicateGrant):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "duplicate_grant")
	case errors.Is(err, grants.ErrNotSharer):
		WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, grants.ErrNotPending), errors.Is(err, grants.ErrNotGranted):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "invalid_transition")
	case isNotFound(err):
		WriteError(w, http.StatusNotFound, "grant not found")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
