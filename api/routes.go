package api

import (
	"net/http"

	"reelay/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	progressHandler *handlers.ProgressHandler,
	historyHandler *handlers.HistoryHandler,
	skipHandler *handlers.SkipWindowHandler,
	discoveryHandler *handlers.DiscoveryHandler,
) {
	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	// Playback progress
	r.HandleFunc("/watch-progress", progressHandler.Upsert).Methods(http.MethodPost)
	r.HandleFunc("/watch-progress", progressHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/watch-progress", progressHandler.Options).Methods(http.MethodOptions)
	r.HandleFunc("/watch-progress/{id}", progressHandler.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/watch-progress/{id}", progressHandler.Options).Methods(http.MethodOptions)

	// Watch history
	r.HandleFunc("/watch-history", historyHandler.Append).Methods(http.MethodPost)
	r.HandleFunc("/watch-history", historyHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/watch-history", historyHandler.Purge).Methods(http.MethodDelete)
	r.HandleFunc("/watch-history", historyHandler.Options).Methods(http.MethodOptions)

	// Intro/outro skip windows
	r.HandleFunc("/skip-timestamps", skipHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/skip-timestamps", skipHandler.Upsert).Methods(http.MethodPost)
	r.HandleFunc("/skip-timestamps", skipHandler.Options).Methods(http.MethodOptions)
	r.HandleFunc("/skip-timestamps/{id}", skipHandler.Update).Methods(http.MethodPut)
	r.HandleFunc("/skip-timestamps/{id}", skipHandler.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/skip-timestamps/{id}", skipHandler.Options).Methods(http.MethodOptions)

	// Aggregated shelves
	r.HandleFunc("/continue-watching", discoveryHandler.ListContinueWatching).Methods(http.MethodGet)
	r.HandleFunc("/continue-watching", handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/suggestions", discoveryHandler.ListSuggestions).Methods(http.MethodGet)
	r.HandleFunc("/suggestions", handleOptions).Methods(http.MethodOptions)
}
