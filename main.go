package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"reelay/api"
	"reelay/config"
	"reelay/handlers"
	"reelay/internal/database"
	"reelay/services/catalog"
	"reelay/services/continuewatching"
	"reelay/services/history"
	"reelay/services/progress"
	"reelay/services/recommend"
	"reelay/services/skipwindows"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {

	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 reelay Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("REELAY_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	logger := slog.Default()
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			logger = slog.New(slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
				Level: parseLogLevel(settings.Log.Level),
			}))
			slog.SetDefault(logger)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Open the telemetry database (runs migrations)
	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Build services on top of the repositories
	policy := progress.PolicyFromName(settings.Playback.OverwritePolicy)
	progressService := progress.NewService(db.Progress, policy, settings.Playback.CompletionThreshold)
	historyService := history.NewService(db.History)
	skipService := skipwindows.NewService(db.SkipWindows)
	catalogClient := catalog.NewClient(settings.Catalog.BaseURL, settings.Catalog.APIKey, settings.Catalog.Language, nil)
	continueWatchingService := continuewatching.NewService(progressService, catalogClient, logger)
	recommendService := recommend.NewService(historyService, catalogClient, logger)

	fmt.Printf("⚖️ Progress overwrite policy: %s\n", policy.Name())

	// Construct router and mount API routes
	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewProgressHandler(progressService),
		handlers.NewHistoryHandler(historyService),
		handlers.NewSkipWindowHandler(skipService),
		handlers.NewDiscoveryHandler(continueWatchingService, recommendService),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
