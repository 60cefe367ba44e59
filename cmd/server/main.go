package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"jacc/internal/auth"
	"jacc/internal/config"
	"jacc/internal/corpus"
	"jacc/internal/embeddings"
	"jacc/internal/handler"
	"jacc/internal/middleware"
	"jacc/internal/repository/postgres"
	"jacc/internal/search/external"
	"jacc/internal/service/catalog"
	"jacc/internal/service/ingest"
	"jacc/internal/service/retrieval"
	"jacc/internal/service/review"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := io.Writer(os.Stdout)
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

	// JWT verifier against the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	sessions := auth.NewMemorySessionStore()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	faqRepo := postgres.NewFAQRepository(repoConfig)
	reviewRepo := postgres.NewReviewRepository(repoConfig)
	chatRepo := postgres.NewChatRepository(repoConfig)
	stagingRepo := postgres.NewStagingRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Corpus: curated lexical index + permission-tagged vector store
	embedder := embeddings.NewOllamaClient(cfg.OllamaURL, cfg.EmbeddingModel)

	curatedIndex, err := corpus.OpenCurated(cfg.CuratedIndexDir)
	if err != nil {
		log.Fatalf("Failed to open curated index: %v", err)
	}
	defer curatedIndex.Close()

	vectorStore, err := corpus.NewVectorStore(cfg.VectorStoreDir, embedder, logger)
	if err != nil {
		log.Fatalf("Failed to open vector store: %v", err)
	}

	vectorizer := corpus.NewVectorizer(docRepo, vectorStore, logger)
	workerCtx, stopWorker := context.WithCancel(ctx)
	vectorizer.Start(workerCtx)
	defer stopWorker()

	corpusIndex := corpus.NewIndex(curatedIndex, vectorStore, faqRepo, vectorizer, logger)
	if err := corpusIndex.Warm(ctx); err != nil {
		log.Fatalf("Failed to warm curated index: %v", err)
	}

	// Retrieval tuning (thresholds, timeouts)
	retrievalCfg, err := config.LoadRetrievalConfig(cfg.RetrievalConfigPath)
	if err != nil {
		log.Fatalf("Failed to load retrieval config: %v", err)
	}

	// Tier-3 web search is optional; without a key the cascade stops
	// at the document tier
	var webSearch external.SearchClient
	if cfg.TavilyAPIKey != "" {
		webSearch = external.NewTavilyClient(cfg.TavilyAPIKey, retrievalCfg.WebSearchTimeout, retrievalCfg.WebSearchMaxResults)
	} else {
		logger.Warn("no web search API key configured, Tier-3 disabled")
	}

	synthesizer := retrieval.NewOpenAISynthesizer(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	// Services
	ingestService := ingest.NewService(docRepo, folderRepo, stagingRepo, txManager, corpusIndex, logger)
	catalogService := catalog.NewService(docRepo, folderRepo, corpusIndex, logger)
	cascade := retrieval.NewCascade(corpusIndex, synthesizer, webSearch, *retrievalCfg, logger)
	reviewService := review.NewService(reviewRepo, chatRepo, corpusIndex, logger)

	// Handlers
	docHandler := handler.NewDocumentHandler(ingestService, catalogService, logger)
	folderHandler := handler.NewFolderHandler(catalogService, logger)
	faqHandler := handler.NewFAQHandler(corpusIndex, logger)
	askHandler := handler.NewAskHandler(cascade, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	healthHandler := handler.NewHealthHandler(pool, embedder)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Upload pipeline
	mux.HandleFunc("POST /api/documents/stage", docHandler.Stage)
	mux.HandleFunc("POST /api/documents/place", docHandler.Place)

	// Document management
	mux.HandleFunc("GET /api/documents", docHandler.List)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.Get)
	mux.HandleFunc("PATCH /api/documents/{id}/permissions", docHandler.UpdatePermissions)
	mux.HandleFunc("DELETE /api/documents/{id}", middleware.RequireAdmin(docHandler.Delete))

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.Create)
	mux.HandleFunc("GET /api/folders", folderHandler.List)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.Get)
	mux.HandleFunc("DELETE /api/folders/{id}", middleware.RequireAdmin(folderHandler.Delete))

	// Curated Q&A
	mux.HandleFunc("GET /api/faqs/search", faqHandler.Search)
	mux.HandleFunc("POST /api/admin/faqs", middleware.RequireAdmin(faqHandler.Upsert))
	mux.HandleFunc("PATCH /api/admin/faqs/{id}/active", middleware.RequireAdmin(faqHandler.SetActive))

	// Retrieval cascade
	mux.HandleFunc("POST /api/ask", askHandler.Ask)

	// Review loop (admin only)
	mux.HandleFunc("PUT /api/admin/chats/{chatID}/review", middleware.RequireAdmin(reviewHandler.Record))
	mux.HandleFunc("GET /api/admin/chats/{chatID}/review", middleware.RequireAdmin(reviewHandler.Get))
	mux.HandleFunc("POST /api/admin/chats/{chatID}/corrections", middleware.RequireAdmin(reviewHandler.AddCorrection))
	mux.HandleFunc("POST /api/admin/corrections/{id}/promote", middleware.RequireAdmin(reviewHandler.Promote))
	mux.HandleFunc("GET /api/admin/reviews/stats", middleware.RequireAdmin(reviewHandler.Stats))

	// Staging sweep, for an external cron
	mux.HandleFunc("POST /api/admin/staging/sweep", middleware.RequireAdmin(docHandler.SweepStaging))

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var httpHandler http.Handler = mux
	httpHandler = middleware.AuthMiddleware(jwtVerifier, sessions)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - must wrap auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop accepting requests, then drain the
	// vectorization queue
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdown
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
		vectorizer.Stop()
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
