package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"reelay/models"
	"reelay/services/history"
)

type historyService interface {
	AppendHistory(ctx context.Context, a models.HistoryAppend) (models.HistoryEntry, error)
	ListHistory(ctx context.Context, q models.HistoryQuery) (models.HistoryPage, error)
	PurgeHistory(ctx context.Context, userID string) (int64, error)
}

var _ historyService = (*history.Service)(nil)

// HistoryHandler serves the /watch-history endpoints.
type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// Append records one viewing session snapshot.
func (h *HistoryHandler) Append(w http.ResponseWriter, r *http.Request) {
	var a models.HistoryAppend
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	entry, err := h.Service.AppendHistory(r.Context(), a)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// List returns a page of history entries within the requested day window.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, models.CodeUserIDRequired, "user id is required")
		return
	}

	days, ok := intParam(r, "days", history.DefaultSinceDays)
	if !ok || days < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be a non-negative integer")
		return
	}
	limit, ok := intParam(r, "limit", 50)
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok || offset < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer")
		return
	}

	var contentType models.ContentType
	if raw := strings.TrimSpace(q.Get("contentType")); raw != "" {
		parsed, ok := models.ParseContentType(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, models.CodeInvalidContentType, "contentType must be movie or series")
			return
		}
		contentType = parsed
	}

	page, err := h.Service.ListHistory(r.Context(), models.HistoryQuery{
		UserID:      userID,
		SinceDays:   days,
		ContentType: contentType,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history":    page.Entries,
		"pagination": page.Pagination,
		"filters": map[string]any{
			"days":        days,
			"contentType": string(contentType),
		},
	})
}

// Purge is the administrative wipe of a user's history log.
func (h *HistoryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, models.CodeUserIDRequired, "user id is required")
		return
	}

	deleted, err := h.Service.PurgeHistory(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *HistoryHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
