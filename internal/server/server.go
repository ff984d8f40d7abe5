// Package server exposes the ingestion pipeline and search engine over a
// JSON HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bull/corpus-server/internal/ingest"
	"github.com/bull/corpus-server/internal/search"
)

// Ingestor runs the pipeline for a single source reference.
type Ingestor interface {
	Ingest(ctx context.Context, ownerID, sourceRef string) (*ingest.Result, error)
}

// Searcher answers owner-scoped queries.
type Searcher interface {
	Search(ctx context.Context, ownerID, query string, mode search.Mode, limit int) ([]search.Result, error)
}

// HealthChecker reports backend reachability for the health endpoint.
// The storage layer implements this via its Health method.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Ingestor      Ingestor
	Searcher      Searcher
	HealthChecker HealthChecker // nil means always healthy
	MCPHandler    http.Handler  // Mounted at /mcp when set
	Logger        *slog.Logger
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
}

// Server is the HTTP front of the corpus service.
type Server struct {
	ingestor Ingestor
	searcher Searcher
	health   HealthChecker
	logger   *slog.Logger
	router   chi.Router
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		ingestor: opts.Ingestor,
		searcher: opts.Searcher,
		health:   opts.HealthChecker,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		r.Use(newIPRateLimiter(opts.RateLimitRPS, burst).middleware)
	}

	r.Post("/ingest", s.handleIngest)
	r.Post("/search", s.handleSearch)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if opts.MCPHandler != nil {
		r.Handle("/mcp", opts.MCPHandler)
	}

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the context is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
