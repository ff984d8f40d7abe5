// Package mcp exposes the corpus over the Model Context Protocol.
package mcp

import "time"

// SearchCorpusInput defines the input parameters for the search_corpus tool.
type SearchCorpusInput struct {
	// OwnerID scopes the search to one owner's corpus.
	OwnerID string `json:"owner_id" jsonschema:"required,description=Owner whose corpus to search"`
	// Query is the search text.
	Query string `json:"query" jsonschema:"required,description=The search query"`
	// Mode selects lexical or semantic retrieval.
	Mode string `json:"mode,omitempty" jsonschema:"default=semantic,description=Search mode: lexical or semantic"`
	// MaxResults is the maximum number of documents to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of documents to return"`
	// MinScore is the minimum relevance threshold (0-1). Semantic mode only.
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,default=0.4,description=Minimum relevance score threshold (0-1)"`
}

// SearchCorpusOutput contains the search results.
type SearchCorpusOutput struct {
	Results []DocumentMatch `json:"results"`
	// Message provides informational context (e.g., "No matching documents found").
	Message string `json:"message,omitempty"`
}

// DocumentMatch is a single document hit.
type DocumentMatch struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags"`
	Score      float64  `json:"score"`
}

// GetDocumentInput defines the input parameters for the get_document tool.
type GetDocumentInput struct {
	// OwnerID scopes the lookup; documents of other owners are invisible.
	OwnerID string `json:"owner_id" jsonschema:"required,description=Owner whose corpus holds the document"`
	// DocumentID is the ID returned from ingestion or search.
	DocumentID string `json:"document_id" jsonschema:"required,description=The document ID to retrieve"`
}

// GetDocumentOutput contains the document metadata.
type GetDocumentOutput struct {
	Found      bool      `json:"found"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Tags       []string  `json:"tags"`
	SourcePath string    `json:"source_path"`
	SourceType string    `json:"source_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// CorpusStatusInput defines the input parameters for the corpus_status tool.
type CorpusStatusInput struct {
	// OwnerID selects whose corpus to summarize.
	OwnerID string `json:"owner_id" jsonschema:"required,description=Owner whose corpus to summarize"`
}

// CorpusStatusOutput summarizes one owner's corpus.
type CorpusStatusOutput struct {
	// TotalDocs is the number of ingested documents.
	TotalDocs int `json:"total_docs"`
	// SourcePaths lists every ingested document's source path.
	SourcePaths []string `json:"source_paths"`
	// LastIngestTime is the creation time of the newest document.
	LastIngestTime string `json:"last_ingest_time,omitempty"`
}
