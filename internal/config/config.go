// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bull/corpus-server/internal/chunker"
	"github.com/bull/corpus-server/internal/ingest"
)

// Config carries every tunable the server and CLI read at startup.
// Values come from the environment; a .env file is loaded by the
// entrypoints before this runs.
type Config struct {
	// HTTP API
	ListenAddr string

	// Storage. Backend "memory" swaps Qdrant for the in-process store,
	// for development without a running Qdrant.
	StoreBackend string
	QdrantHost   string
	QdrantPort   int

	// Source adapters
	DocsRoot    string // Filesystem adapter root
	GitHubToken string // Optional; raises the GitHub API rate limit

	// Pipeline tuning
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
	TagCount     int

	// Per-client rate limiting for the HTTP API
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from the environment, applying defaults for
// everything optional. It fails only on values that parse but make no
// sense, never on absence.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:       getEnv("STORE_BACKEND", "qdrant"),
		QdrantHost:         getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:         getEnvInt("QDRANT_PORT", 6334),
		DocsRoot:           getEnv("DOCS_ROOT", "./docs"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		ChunkSize:          getEnvInt("CHUNK_SIZE", chunker.DefaultTargetSize),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", chunker.DefaultOverlap),
		Concurrency:        getEnvInt("INGEST_CONCURRENCY", ingest.DefaultConcurrency),
		TagCount:           getEnvInt("TAG_COUNT", 0),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
	}

	if cfg.StoreBackend != "qdrant" && cfg.StoreBackend != "memory" {
		return nil, fmt.Errorf("STORE_BACKEND must be qdrant or memory, got %q", cfg.StoreBackend)
	}
	if cfg.ChunkSize < 1 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative, got %d", cfg.ChunkOverlap)
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("INGEST_CONCURRENCY must be positive, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
