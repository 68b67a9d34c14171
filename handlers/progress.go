package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelay/models"
	"reelay/services/progress"
)

type progressService interface {
	UpsertProgress(ctx context.Context, up models.ProgressUpsert) (models.ProgressRecord, bool, error)
	GetProgress(ctx context.Context, userID, contentID string, contentType models.ContentType) (*models.ProgressRecord, error)
	ListInProgress(ctx context.Context, userID string, limit, offset int) ([]models.ProgressRecord, int, error)
	DeleteProgress(ctx context.Context, id string) (*models.ProgressRecord, error)
}

var _ progressService = (*progress.Service)(nil)

// ProgressHandler serves the /watch-progress endpoints.
type ProgressHandler struct {
	Service progressService
}

func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{Service: service}
}

// Upsert creates or overwrites the progress record for the request's key.
func (h *ProgressHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var up models.ProgressUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&up); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	rec, created, err := h.Service.UpsertProgress(r.Context(), up)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

// Get serves both shapes of GET /watch-progress: a point lookup when
// contentId is supplied, otherwise the paginated in-progress list.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, models.CodeUserIDRequired, "user id is required")
		return
	}

	if contentID := strings.TrimSpace(q.Get("contentId")); contentID != "" {
		contentType, ok := models.ParseContentType(q.Get("contentType"))
		if !ok {
			writeError(w, http.StatusBadRequest, models.CodeInvalidContentType, "contentType must be movie or series")
			return
		}

		rec, err := h.Service.GetProgress(r.Context(), userID, contentID, contentType)
		if err != nil {
			writeServiceError(w, err, progress.ErrNotFound, models.CodeProgressNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
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

	records, total, err := h.Service.ListInProgress(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"progress": records,
		"pagination": models.Pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: limit > 0 && offset+len(records) < total,
		},
	})
}

// Delete removes one progress record by id ("remove from continue watching").
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID_REQUIRED", "record id is required")
		return
	}

	deleted, err := h.Service.DeleteProgress(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, progress.ErrNotFound, models.CodeProgressNotFound)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (h *ProgressHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
