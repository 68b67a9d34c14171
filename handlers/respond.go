package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"reelay/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// writeServiceError maps service failures onto the HTTP surface: coded
// validation errors become 400, the supplied not-found sentinel becomes 404,
// anything else is a 500.
func writeServiceError(w http.ResponseWriter, err error, notFound error, notFoundCode string) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	if notFound != nil && errors.Is(err, notFound) {
		writeError(w, http.StatusNotFound, notFoundCode, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

// intParam parses an integer query parameter, falling back to def when the
// parameter is absent. The ok result is false for non-numeric input.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
