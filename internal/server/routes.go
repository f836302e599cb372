package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Users and auth
	mux.HandleFunc("/api/users", s.handleUserRegister)
	mux.HandleFunc("/api/users/me", s.handleUserMe)
	mux.HandleFunc("/api/users/", s.routeUserByID)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)

	// Entries
	mux.HandleFunc("/api/entries/", s.routeEntryByID)
	mux.HandleFunc("/api/entries", s.handleEntries)

	// Grants
	mux.HandleFunc("/api/grants/", s.routeGrantActions)
	mux.HandleFunc("/api/grants", s.handleGrants)

	// Data sources
	mux.HandleFunc("/api/sources/", s.routeSourceActions)
	mux.HandleFunc("/api/sources", s.handleSourceList)

	// Portfolio and prices
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/prices/reload", s.handlePriceReload)
	mux.HandleFunc("/api/prices/markets", s.handleMarketData)
	mux.HandleFunc("/api/prices", s.handlePrices)
}

// routeEntryByID dispatches /api/entries/{id} by method.
func (s *Server) routeEntryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		s.handleEntryUpdate(w, r, id)
	case http.MethodDelete:
		s.handleEntryDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodPut, http.MethodPatch, http.MethodDelete)
	}
}

// routeUserByID dispatches /api/users/{id}. The exact /api/users/me pattern
// is registered separately and wins over this prefix route.
func (s *Server) routeUserByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleUserSummary(w, r, id)
}

// routeGrantActions dispatches /api/grants/{id}/{action}.
func (s *Server) routeGrantActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/grants/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch parts[1] {
	case "approve":
		s.handleGrantApprove(w, r, parts[0])
	case "deny":
		s.handleGrantDeny(w, r, parts[0])
	case "revoke":
		s.handleGrantRevoke(w, r, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeSourceActions dispatches /api/sources/{id}/visibility.
func (s *Server) routeSourceActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 2 && parts[0] != "" && parts[1] == "visibility" {
		s.handleSourceVisibility(w, r, parts[0])
		return
	}
	WriteError(w, http.StatusNotFound, "Not found")
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// requireUser resolves the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := common.ResolveUserID(r.Context())
	if userID == "" {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
