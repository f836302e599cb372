package server

import (
	"errors"
	"net/http"

	"github.com/mwillis/coinfolio/internal/models"
	"github.com/mwillis/coinfolio/internal/services/entries"
)

// handleEntries handles GET /api/entries (combined stream) and POST /api/entries.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleEntryList(w, r)
	case http.MethodPost:
		s.handleEntryCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleEntryList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	combined, err := s.app.EntryService.GetCombinedEntries(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user", userID).Msg("Failed to load combined entries")
		WriteError(w, http.StatusInternalServerError, "failed to load entries")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": combined,
		"count":   len(combined),
	})
}

func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var entry models.Entry
	if !DecodeJSON(w, r, &entry) {
		return
	}

	created, err := s.app.EntryService.CreateEntry(r.Context(), userID, &entry)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEntryUpdate(w http.ResponseWriter, r *http.Request, entryID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var entry models.Entry
	if !DecodeJSON(w, r, &entry) {
		return
	}
	entry.ID = entryID

	updated, err := s.app.EntryService.UpdateEntry(r.Context(), userID, &entry)
	if err != nil {
		writeEntryError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request, entryID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.app.EntryService.DeleteEntry(r.Context(), userID, entryID); err != nil {
		writeEntryError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": entryID})
}

func writeEntryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entries.ErrNotOwner):
		WriteErrorWithCode(w, http.StatusForbidden, err.Error(), "read_only")
	case isNotFound(err):
		WriteError(w, http.StatusNotFound, "entry not found")
	default:
		WriteError(w, http.StatusBadRequest, err.Error())
	}
}
