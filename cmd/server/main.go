package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"folio/internal/app"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/handler"
	"folio/internal/metrics"
	"folio/internal/middleware"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run owns every resource so that deferred cleanup happens before main exits.
func run() error {
	// Load configuration
	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, "server")
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"metadata_backend", cfg.MetadataBackend,
		"storage_backend", cfg.StorageBackend,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	defer application.Close()
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}

	// Create handlers
	explorerHandler := handler.NewExplorerHandler(application.Tree, logger)
	folderHandler := handler.NewFolderHandler(application.Mutations, application.Tree, logger)
	fileHandler := handler.NewFileHandler(
		application.Mutations,
		application.Uploads,
		application.Previews,
		application.Policy.MaxSizeBytes,
		logger,
	)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler(application.Registry))
	mux.Handle("GET /api/events", application.Broker)
	mux.HandleFunc("GET /api/session", handler.GetSession)

	// Browsing
	mux.HandleFunc("GET /api/explorer", explorerHandler.List)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/path", folderHandler.GetPath)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.UploadFiles)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)
	mux.HandleFunc("GET /api/files/{id}/preview", fileHandler.Preview)
	mux.HandleFunc("GET /api/files/{id}/download", fileHandler.Download)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → RequestLog → Routes
	h = middleware.RequestLog(logger)(h)
	if cfg.SupabaseURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			return fmt.Errorf("create JWT verifier: %w", err)
		}
		defer jwtVerifier.Close()
		h = middleware.OptionalAuth(jwtVerifier, application.Authorizer, logger)(h)
	} else {
		logger.Warn("SUPABASE_URL not set, every request is served as a visitor")
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Minute, // Large multipart uploads
		WriteTimeout: 0,               // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutting down")
		// SSE clients hold their connections open until the broker closes
		application.Broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-shutdownDone
		return fmt.Errorf("listen: %w", err)
	}
	<-shutdownDone
	logger.Info("server stopped")
	return nil
}
