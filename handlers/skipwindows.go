package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"reelay/models"
	"reelay/services/skipwindows"
)

type skipWindowService interface {
	GetWindow(ctx context.Context, contentID string, contentType models.ContentType) (*models.SkipWindow, error)
	UpsertWindow(ctx context.Context, up models.SkipWindowUpsert) (models.SkipWindow, bool, error)
	UpdateWindow(ctx context.Context, id string, up models.SkipWindowUpsert) (models.SkipWindow, error)
	DeleteWindow(ctx context.Context, id string) error
}

var _ skipWindowService = (*skipwindows.Service)(nil)

// SkipWindowHandler serves the /skip-timestamps endpoints.
type SkipWindowHandler struct {
	Service skipWindowService
}

func NewSkipWindowHandler(service skipWindowService) *SkipWindowHandler {
	return &SkipWindowHandler{Service: service}
}

// Get looks up the window for one content item. Most content has none
// configured, so 404 here is routine.
func (h *SkipWindowHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contentID := strings.TrimSpace(q.Get("contentId"))
	if contentID == "" {
		writeError(w, http.StatusBadRequest, models.CodeContentIDRequired, "content id is required")
		return
	}
	contentType, ok := models.ParseContentType(q.Get("contentType"))
	if !ok {
		writeError(w, http.StatusBadRequest, models.CodeInvalidContentType, "contentType must be movie or series")
		return
	}

	window, err := h.Service.GetWindow(r.Context(), contentID, contentType)
	if err != nil {
		writeServiceError(w, err, skipwindows.ErrNotFound, models.CodeTimestampsNotFound)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Upsert merges the posted bounds into any existing window for the content.
func (h *SkipWindowHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var up models.SkipWindowUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&up); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	window, created, err := h.Service.UpsertWindow(r.Context(), up)
	if err != nil {
		writeServiceError(w, err, nil, "")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, window)
}

// Update edits an existing window by id.
func (h *SkipWindowHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID_REQUIRED", "window id is required")
		return
	}

	var up models.SkipWindowUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&up); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	window, err := h.Service.UpdateWindow(r.Context(), id, up)
	if err != nil {
		writeServiceError(w, err, skipwindows.ErrNotFound, models.CodeTimestampsNotFound)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Delete removes a window by id.
func (h *SkipWindowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID_REQUIRED", "window id is required")
		return
	}

	if err := h.Service.DeleteWindow(r.Context(), id); err != nil {
		writeServiceError(w, err, skipwindows.ErrNotFound, models.CodeTimestampsNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SkipWindowHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
