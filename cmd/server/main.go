// Package main provides the corpus server entry point: HTTP API, MCP
// transport, and Prometheus metrics over one listener.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/corpus-server/internal/chunker"
	"github.com/bull/corpus-server/internal/config"
	"github.com/bull/corpus-server/internal/embedding"
	"github.com/bull/corpus-server/internal/ingest"
	mcpserver "github.com/bull/corpus-server/internal/mcp"
	"github.com/bull/corpus-server/internal/search"
	"github.com/bull/corpus-server/internal/server"
	"github.com/bull/corpus-server/internal/source"
	"github.com/bull/corpus-server/internal/storage"
	"github.com/bull/corpus-server/internal/tagging"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize storage
	var store storage.Store
	var health server.HealthChecker
	if cfg.StoreBackend == "memory" {
		logger.Warn("Using in-memory store; nothing will survive a restart")
		store = storage.NewMemoryStore()
	} else {
		qdrant, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			log.Fatalf("failed to connect to Qdrant: %v", err)
		}
		defer qdrant.Close()
		if err := qdrant.EnsureCollection(ctx); err != nil {
			log.Fatalf("failed to ensure collection: %v", err)
		}
		store = qdrant
		health = qdrant
	}

	// Initialize embedding and tagging clients
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size
	tagger := tagging.NewGenerator(embeddingClient.Client())

	// Source adapters: filesystem by default, github via "github:" refs
	router := source.NewRouter(source.NewFilesystemAdapter(cfg.DocsRoot))
	if gh, err := source.NewGitHubAdapter(); err != nil {
		logger.Warn("GitHub adapter unavailable", "error", err)
	} else {
		router.Register("github", gh)
	}

	pipeline := ingest.NewPipeline(ingest.Config{
		Source:      router,
		Store:       store,
		Embedder:    embedder,
		Tagger:      tagger,
		Splitter:    chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		Concurrency: cfg.Concurrency,
		TagCount:    cfg.TagCount,
		Logger:      logger,
	})

	engine := search.NewEngine(store, embedder, logger)

	mcpSrv := mcpserver.NewServer(&mcpserver.Config{
		Store:  store,
		Engine: engine,
	})

	// Stdio mode serves MCP over stdin/stdout for local clients and
	// skips the HTTP listener entirely.
	if os.Getenv("MCP_STDIO") == "true" {
		logger.Info("Starting MCP server (stdio mode)")
		if err := mcpSrv.Run(ctx); err != nil {
			logger.Error("MCP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	httpSrv := server.New(server.Options{
		Ingestor:       pipeline,
		Searcher:       engine,
		HealthChecker:  health,
		MCPHandler:     mcpserver.NewHTTPHandler(mcpSrv, nil),
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitPerSecond,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if err := httpSrv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
