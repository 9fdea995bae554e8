package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/internal/repository"
	"github.com/freeeve/territory/internal/service"
)

// MatchHandler serves recorded and running matches.
type MatchHandler struct {
	matchSvc *service.MatchService
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(matchSvc *service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// ListMatches handles GET /api/v1/matches?source=&limit=
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source != "" && source != model.SourceSelfPlay && source != model.SourceContest {
		writeError(w, http.StatusBadRequest, "source must be selfplay or contest")
		return
	}
	limit := repository.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, repository.MaxListLimit)
	}

	matches, err := h.matchSvc.ListMatches(r.Context(), source, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if matches == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// ActiveMatches handles GET /api/v1/matches/active
func (h *MatchHandler) ActiveMatches(w http.ResponseWriter, r *http.Request) {
	ids, err := h.matchSvc.ActiveMatches(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"matches": ids})
}

// GetMatch handles GET /api/v1/matches/{id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.matchSvc.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTurns handles GET /api/v1/matches/{id}/turns
func (h *MatchHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := h.matchSvc.ListTurns(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if turns == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, turns)
}

// LiveField handles GET /api/v1/matches/{id}/field
// Returns the current board and, while the match runs, the last acts.
func (h *MatchHandler) LiveField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f, err := h.matchSvc.LiveField(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	acts, err := h.matchSvc.LastActs(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": f, "acts": acts})
}

// DeleteMatch handles DELETE /api/v1/matches/{id}
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matchSvc.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
