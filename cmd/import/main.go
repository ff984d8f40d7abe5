// Package main provides the batch import CLI for the corpus server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/corpus-server/internal/chunker"
	"github.com/bull/corpus-server/internal/config"
	"github.com/bull/corpus-server/internal/embedding"
	"github.com/bull/corpus-server/internal/ingest"
	"github.com/bull/corpus-server/internal/source"
	"github.com/bull/corpus-server/internal/storage"
	"github.com/bull/corpus-server/internal/tagging"
)

var (
	flagOwner       string
	flagRoot        string
	flagConcurrency int
)

var rootCmd = &cobra.Command{
	Use:   "corpus-import",
	Short: "Corpus batch import tool",
	Long:  "CLI tool for bulk-ingesting documents into the corpus store",
}

var importCmd = &cobra.Command{
	Use:   "import [ref...]",
	Short: "Ingest documents for one owner",
	Long: `Ingests the given source references for one owner. With no
references, every markdown and text file under the docs root is
imported.

References resolve through the source adapters: a bare path reads from
the docs root; "github:owner/repo/path.md" reads from GitHub.

Duplicate content is detected per owner and skipped, so re-running an
import is safe.

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings and tags (required)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)
  DOCS_ROOT      Filesystem adapter root (default: ./docs)`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagOwner, "owner", "", "Owner of the ingested documents (required)")
	importCmd.Flags().StringVar(&flagRoot, "root", "", "Override the docs root for this run")
	importCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Worker cap for parallel ingestion")
	_ = importCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(importCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagRoot != "" {
		cfg.DocsRoot = flagRoot
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}

	// 1. Connect to storage
	var store storage.Store
	if cfg.StoreBackend == "memory" {
		fmt.Println("Using in-memory store (nothing persists past this run)")
		store = storage.NewMemoryStore()
	} else {
		fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
		qdrant, err := storage.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		defer qdrant.Close()

		if err := qdrant.Health(ctx); err != nil {
			return fmt.Errorf("qdrant health check failed: %w", err)
		}
		fmt.Println("Qdrant healthy")

		if err := qdrant.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("failed to ensure collection: %w", err)
		}
		store = qdrant
	}

	// 2. Initialize providers
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size
	tagger := tagging.NewGenerator(embeddingClient.Client())

	// 3. Source adapters
	fsAdapter := source.NewFilesystemAdapter(cfg.DocsRoot)
	router := source.NewRouter(fsAdapter)
	if gh, err := source.NewGitHubAdapter(); err == nil {
		router.Register("github", gh)
	}

	// 4. Resolve references: explicit args, or everything under the root
	refs := args
	if len(refs) == 0 {
		refs, err = fsAdapter.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list documents under %s: %w", cfg.DocsRoot, err)
		}
		if len(refs) == 0 {
			fmt.Printf("No documents found under %s\n", cfg.DocsRoot)
			return nil
		}
	}

	// 5. Run the batch
	fmt.Println()
	fmt.Printf("Importing %d document(s) for owner %s...\n", len(refs), flagOwner)

	pipeline := ingest.NewPipeline(ingest.Config{
		Source:      router,
		Store:       store,
		Embedder:    embedder,
		Tagger:      tagger,
		Splitter:    chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		Concurrency: cfg.Concurrency,
		TagCount:    cfg.TagCount,
		Logger:      slog.Default(),
	})

	batch := pipeline.IngestAll(ctx, flagOwner, refs)

	// 6. Print results
	fmt.Println()
	fmt.Println("Import complete!")
	fmt.Printf("  Created:  %d\n", batch.Created)
	fmt.Printf("  Existing: %d\n", batch.Existing)
	fmt.Printf("  Partial:  %d\n", batch.Partial)
	fmt.Printf("  Failed:   %d\n", batch.Failed)
	fmt.Printf("  Duration: %s\n", batch.Duration.Round(time.Second))

	var hadFailures bool
	for _, result := range batch.Results {
		switch result.Status {
		case ingest.StatusFailed:
			if !hadFailures {
				fmt.Println()
				fmt.Println("Failed documents:")
				hadFailures = true
			}
			fmt.Printf("  - %s: %v\n", result.SourceRef, result.Err)
		case ingest.StatusPartial:
			fmt.Printf("  ~ %s: %d chunk(s) stored without vectors\n", result.SourceRef, len(result.FailedOrdinals))
		}
	}

	if batch.Failed > 0 {
		return fmt.Errorf("%d document(s) failed to import", batch.Failed)
	}
	return nil
}
