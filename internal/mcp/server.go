package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/corpus-server/internal/search"
	"github.com/bull/corpus-server/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server *mcp.Server
	store  storage.Store
	engine *search.Engine
}

// Config holds server dependencies.
type Config struct {
	Store  storage.Store
	Engine *search.Engine
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "corpus-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_corpus",
		Description: "Search an owner's ingested documents lexically or semantically. Returns document metadata; use get_document for details.",
	}, makeSearchHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_document",
		Description: "Retrieve one document's metadata by ID, scoped to its owner.",
	}, makeGetDocumentHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "corpus_status",
		Description: "Summarize an owner's corpus: document count, source paths, and the last ingestion time.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server: server,
		store:  cfg.Store,
		engine: cfg.Engine,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
