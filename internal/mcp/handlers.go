package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/corpus-server/internal/search"
	"github.com/bull/corpus-server/internal/storage"
)

// makeSearchHandler creates the search_corpus tool handler. Results are
// document-level: the engine already collapses chunk hits to their parent
// documents, so the handler only applies the score threshold.
func makeSearchHandler(engine *search.Engine) func(
	context.Context, *mcp.CallToolRequest, SearchCorpusInput,
) (*mcp.CallToolResult, SearchCorpusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchCorpusInput) (
		*mcp.CallToolResult, SearchCorpusOutput, error,
	) {
		if input.OwnerID == "" {
			return nil, SearchCorpusOutput{}, fmt.Errorf("owner_id is required")
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		mode := search.Mode(input.Mode)
		if mode == "" {
			mode = search.ModeSemantic
		}
		minScore := input.MinScore
		if minScore <= 0 && mode == search.ModeSemantic {
			minScore = 0.4
		}

		hits, err := engine.Search(ctx, input.OwnerID, input.Query, mode, maxResults)
		if err != nil {
			return nil, SearchCorpusOutput{}, fmt.Errorf("search failed: %w", err)
		}

		results := make([]DocumentMatch, 0, len(hits))
		for _, hit := range hits {
			if hit.Score < minScore {
				continue
			}
			tags := hit.Tags
			if tags == nil {
				tags = []string{} // Ensure non-nil for JSON marshaling
			}
			results = append(results, DocumentMatch{
				DocumentID: hit.DocumentID,
				Title:      hit.Title,
				Tags:       tags,
				Score:      hit.Score,
			})
		}

		if len(results) == 0 {
			return nil, SearchCorpusOutput{
				Results: []DocumentMatch{},
				Message: "No matching documents found. Try broader search terms.",
			}, nil
		}
		return nil, SearchCorpusOutput{Results: results}, nil
	}
}

// makeGetDocumentHandler creates the get_document tool handler. A document
// belonging to another owner reports not found, never an error.
func makeGetDocumentHandler(store storage.Store) func(
	context.Context, *mcp.CallToolRequest, GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentInput) (
		*mcp.CallToolResult, GetDocumentOutput, error,
	) {
		if input.OwnerID == "" || input.DocumentID == "" {
			return nil, GetDocumentOutput{}, fmt.Errorf("owner_id and document_id are required")
		}

		doc, err := store.GetDocument(ctx, input.OwnerID, input.DocumentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, GetDocumentOutput{
					Found:      false,
					DocumentID: input.DocumentID,
				}, nil
			}
			return nil, GetDocumentOutput{}, fmt.Errorf("failed to fetch document: %w", err)
		}

		tags := doc.Tags
		if tags == nil {
			tags = []string{}
		}
		return nil, GetDocumentOutput{
			Found:      true,
			DocumentID: doc.ID,
			Title:      doc.Title,
			Tags:       tags,
			SourcePath: doc.SourcePath,
			SourceType: doc.SourceType,
			CreatedAt:  doc.CreatedAt,
		}, nil
	}
}

// makeStatusHandler creates the corpus_status tool handler.
func makeStatusHandler(store storage.Store) func(
	context.Context, *mcp.CallToolRequest, CorpusStatusInput,
) (*mcp.CallToolResult, CorpusStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CorpusStatusInput) (
		*mcp.CallToolResult, CorpusStatusOutput, error,
	) {
		if input.OwnerID == "" {
			return nil, CorpusStatusOutput{}, fmt.Errorf("owner_id is required")
		}

		docs, err := store.ListByOwner(ctx, input.OwnerID)
		if err != nil {
			return nil, CorpusStatusOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		paths := make([]string, 0, len(docs))
		var newest time.Time
		for _, doc := range docs {
			paths = append(paths, doc.SourcePath)
			if doc.CreatedAt.After(newest) {
				newest = doc.CreatedAt
			}
		}

		output := CorpusStatusOutput{
			TotalDocs:   len(docs),
			SourcePaths: paths,
		}
		if !newest.IsZero() {
			output.LastIngestTime = newest.Format(time.RFC3339)
		}
		return nil, output, nil
	}
}
