package main

import (
	"context"
	"time"

	"orgdesk/internal/chat"
	orgdeskconfig "orgdesk/internal/config"
	"orgdesk/internal/directory"
	"orgdesk/internal/rag"
	"orgdesk/internal/schedule"
	"orgdesk/pkg/config"
	"orgdesk/pkg/database"
	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
	"orgdesk/pkg/monitoring"
	"orgdesk/pkg/server"
)

const version = "0.3.0"

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("orgdesk")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting OrgDesk (AI Organization Assistant API)")

	cfg := orgdeskconfig.LoadConfig()
	jwtSecret := []byte(cfg.JWTSecret)

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("orgdesk", version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}))

	llmProvider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize LLM provider")
		llmProvider = nil
	}

	embeddingClient, err := llm.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize embedding client")
		embeddingClient = nil
	}

	// Align the vector column with the configured embedding model before any
	// chunk is written. A live probe beats trusting EMBEDDING_DIMENSIONS.
	if embeddingClient != nil {
		dimensions := cfg.EmbeddingDimensions
		probeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if probed, probeErr := llm.ProbeEmbeddingDimensions(probeCtx, embeddingClient); probeErr != nil {
			logger.WithError(probeErr).Warn("Embedding dimension probe failed; using configured dimensions")
		} else {
			dimensions = probed
		}
		cancel()

		migrated, migrateErr := rag.EnsureEmbeddingDimensions(context.Background(), db, dimensions)
		if migrateErr != nil {
			logger.WithError(migrateErr).Warn("Failed to align policy chunk vector dimensions")
		} else if migrated {
			logger.WithField("dimensions", dimensions).Info("Policy chunk vector column migrated")
		}
	}

	directoryStore := directory.NewStore(db)
	scheduleStore := schedule.NewStore(db)
	chunkStore := rag.NewStore(db)

	var searcher *rag.Searcher
	if embeddingClient != nil {
		searcher = rag.NewSearcher(chunkStore, embeddingClient, cfg.RAGTopK)
	} else {
		logger.Warn("Embedding client unavailable - policy search tools disabled")
	}

	builder := chat.NewRegistryBuilder()
	chat.RegisterScheduleTools(builder, scheduleStore)
	chat.RegisterDirectoryTools(builder, directoryStore, searcher)

	orchestrator := chat.NewOrchestrator(llmProvider, cfg.AgentMaxSteps, logger)
	var router *chat.Router
	if searcher != nil {
		router = chat.NewRouter(searcher, cfg.RAGTopK, logger)
	}
	sessions := chat.NewMemorySessionStore(cfg.ChatHistoryWindow)
	assistant := chat.NewAssistant(orchestrator, builder, router, sessions, directoryStore, logger)
	chatHandler := chat.NewHandler(assistant, logger)

	// Setup router with health and metrics endpoints
	ginRouter := server.SetupServiceRouter(logger, "orgdesk", healthChecker)
	chatHandler.RegisterRoutes(ginRouter, jwtSecret)

	// Indexing admin endpoints require an embedding client. Do not hard-fail
	// startup when LLM config is unset; keep the base service running.
	if embeddingClient == nil {
		logger.Warn("Skipping indexing admin API: embedding client not configured")
	} else {
		indexer := rag.NewIndexer(chunkStore, embeddingClient, cfg.DocumentFetchTimeout, cfg.ChunkMaxChars, cfg.ChunkOverlap, logger)
		adminAPI, adminErr := rag.NewAdminAPI(chunkStore, indexer, directoryStore, logger)
		if adminErr != nil {
			logger.WithError(adminErr).Warn("Skipping indexing admin API: failed to initialize")
		} else {
			adminAPI.RegisterRoutes(ginRouter, jwtSecret)
		}
	}

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("orgdesk", cfg.Port)
	if err := server.Start(serverConfig, ginRouter, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
