// Package search answers lexical and semantic queries over an owner's
// ingested documents.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bull/corpus-server/internal/metrics"
	"github.com/bull/corpus-server/internal/storage"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 10

// overscan widens the chunk-level vector query so document-level dedup
// still fills the requested result count.
const overscan = 3

// Embedder derives the query vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is one matching document.
type Result struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Score      float64  `json:"score"`
}

// Engine serves search requests against a store.
type Engine struct {
	store    storage.Store
	embedder Embedder
	logger   *slog.Logger
}

// NewEngine creates a search engine. The embedder may be nil when only
// lexical search is needed.
func NewEngine(store storage.Store, embedder Embedder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, embedder: embedder, logger: logger}
}

// Search dispatches to the requested mode. Results never cross owners.
func (e *Engine) Search(ctx context.Context, ownerID, query string, mode Mode, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var results []Result
	var err error
	switch mode {
	case ModeSemantic:
		results, err = e.semantic(ctx, ownerID, query, limit)
	case ModeLexical, "":
		results, err = e.lexical(ctx, ownerID, query, limit)
		mode = ModeLexical
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordSearch(string(mode))
	e.logger.Debug("Search complete", "owner", ownerID, "mode", mode, "results", len(results))
	return results, nil
}

// lexical matches the query as a case-insensitive substring of a
// document's title or any of its tags. Matches keep store order and all
// score 1.0; there is no lexical relevance ranking.
func (e *Engine) lexical(ctx context.Context, ownerID, query string, limit int) ([]Result, error) {
	docs, err := e.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	results := make([]Result, 0, limit)
	for _, doc := range docs {
		if !lexicalMatch(doc, needle) {
			continue
		}
		results = append(results, Result{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Tags:       doc.Tags,
			Score:      1.0,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func lexicalMatch(doc *storage.Document, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(doc.Title), needle) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// semantic embeds the query, ranks chunks by cosine similarity, then
// collapses chunks to documents keeping each document's best chunk score.
func (e *Engine) semantic(ctx context.Context, ownerID, query string, limit int) ([]Result, error) {
	if e.embedder == nil {
		return nil, fmt.Errorf("semantic search unavailable: no embedder configured")
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := e.store.VectorSearch(ctx, ownerID, vector, limit*overscan)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	best := make(map[string]float64)
	var order []string
	for _, sc := range scored {
		docID := sc.Chunk.DocumentID
		if prev, seen := best[docID]; !seen || sc.Score > prev {
			if !seen {
				order = append(order, docID)
			}
			best[docID] = sc.Score
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return best[order[i]] > best[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	results := make([]Result, 0, len(order))
	for _, docID := range order {
		doc, err := e.store.GetDocument(ctx, ownerID, docID)
		if err != nil {
			// The chunk hit a document this owner cannot read; skip it
			// rather than leak the ID.
			e.logger.Warn("Dropping unreadable search hit", "document", docID, "error", err)
			continue
		}
		results = append(results, Result{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Tags:       doc.Tags,
			Score:      best[docID],
		})
	}
	return results, nil
}
