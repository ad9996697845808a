package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"transmem/internal/auth"
	"transmem/internal/config"
	"transmem/internal/handler"
	"transmem/internal/handler/sse"
	"transmem/internal/middleware"
	"transmem/internal/repository/postgres"
	"transmem/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verification is optional in dev: no JWKS URL, no auth.
	var verifier auth.Verifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else {
		logger.Warn("JWKS_URL not set, request authentication disabled")
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	segRepo := postgres.NewSegmentRepository(repoConfig)
	memRepo := postgres.NewMemoryRepository(repoConfig)
	catalogRepo := postgres.NewCatalogRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Notification hub: post-commit payloads fan out to SSE subscribers
	hub := sse.NewHub(logger)

	// Create services
	confirmationService := service.NewConfirmationService(segRepo, memRepo, catalogRepo, txManager, hub, logger)
	matchService := service.NewMatchService(memRepo, segRepo, catalogRepo, logger)
	batchService := service.NewBatchService(segRepo, memRepo, catalogRepo, confirmationService, logger)
	segmentQuery := service.NewSegmentQueryService(segRepo, logger)

	// Create handlers
	segmentHandler := handler.NewSegmentHandler(confirmationService, segmentQuery, logger)
	matchHandler := handler.NewMatchHandler(matchService, logger)
	batchHandler := handler.NewBatchHandler(batchService, logger)
	projectHandler := handler.NewProjectHandler(catalogRepo, memRepo, logger)
	eventsHandler := handler.NewEventsHandler(hub, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", segmentHandler.HealthCheck)

	// Project routes (read-only catalog surface)
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("GET /api/projects/{id}/files", projectHandler.ListProjectFiles)
	mux.HandleFunc("GET /api/projects/{id}/memories", projectHandler.ListProjectMounts)
	mux.HandleFunc("GET /api/projects/{id}/events", eventsHandler.StreamProjectEvents)

	// Segment routes
	mux.HandleFunc("GET /api/segments/{id}", segmentHandler.GetSegment)
	mux.HandleFunc("PATCH /api/segments/{id}", segmentHandler.UpdateSegment)
	mux.HandleFunc("POST /api/segments/{id}/confirm", segmentHandler.ConfirmSegment)
	mux.HandleFunc("GET /api/segments/{id}/matches", matchHandler.GetSegmentMatches)
	mux.HandleFunc("POST /api/segments/updates", segmentHandler.UpdateSegmentsAtomically)
	mux.HandleFunc("POST /api/segments/undo", segmentHandler.ApplyUndo)

	// File routes
	mux.HandleFunc("GET /api/files/{id}/segments", segmentHandler.ListFileSegments)
	mux.HandleFunc("POST /api/files/{id}/batch-match", batchHandler.BatchMatchFile)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	root = middleware.Auth(verifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
