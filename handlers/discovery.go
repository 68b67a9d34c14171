package handlers

import (
	"context"
	"net/http"
	"strings"

	"reelay/models"
	"reelay/services/continuewatching"
	"reelay/services/recommend"
)

type continueWatchingService interface {
	List(ctx context.Context, userID string, limit, offset int) (models.ContinueWatchingPage, error)
}

type suggestionService interface {
	Recommend(ctx context.Context, userID string) ([]models.SuggestionGroup, error)
}

var (
	_ continueWatchingService = (*continuewatching.Service)(nil)
	_ suggestionService       = (*recommend.Service)(nil)
)

// DiscoveryHandler serves the two aggregator endpoints built from telemetry:
// continue watching and suggestions.
type DiscoveryHandler struct {
	ContinueWatching continueWatchingService
	Suggestions      suggestionService
}

func NewDiscoveryHandler(cw continueWatchingService, suggestions suggestionService) *DiscoveryHandler {
	return &DiscoveryHandler{ContinueWatching: cw, Suggestions: suggestions}
}

// ListContinueWatching returns the user's in-progress shelf, enriched with
// catalog metadata where available.
func (h *DiscoveryHandler) ListContinueWatching(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, models.CodeUserIDRequired, "user id is required")
		return
	}

	limit, ok := intParam(r, "limit", 20)
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer")
		return
	}

	page, err := h.ContinueWatching.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListSuggestions returns the ranked suggestion groups for a user. Partial
// catalog failures degrade groups rather than failing the request.
func (h *DiscoveryHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, models.CodeUserIDRequired, "user id is required")
		return
	}

	groups, err := h.Suggestions.Recommend(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *DiscoveryHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
