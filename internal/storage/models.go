package storage

import "time"

// Document represents one ingested text document owned by a single tenant.
// Documents are immutable once created; re-ingesting identical content is
// deduplicated by (OwnerID, Checksum).
type Document struct {
	ID         string // UUID
	OwnerID    string // Tenant boundary; every read and write is scoped by this
	SourcePath string // Where the content came from: file path, repo path, URL
	SourceType string // Attached by the source adapter: "filesystem", "github", ...
	Checksum   string // Hex SHA-256 of normalized content; dedup key per owner
	Title      string
	Tags       []string // LLM-generated labels, insertion order preserved
	CreatedAt  time.Time
}

// Chunk is one overlapping passage of a document, the unit of embedding
// and semantic retrieval. Ordinals are contiguous starting at 0.
type Chunk struct {
	ID         string // UUID
	DocumentID string // Links to parent Document.ID
	Ordinal    int    // Position in document (0, 1, 2...)
	Text       string
	TokenCount int       // Whitespace-delimited token estimate
	Embedding  []float32 // 1536-dim vector, nil when embedding failed
}

// ScoredChunk pairs a chunk with its similarity score for a query vector.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// CollectionName is the single Qdrant collection holding documents and chunks.
const CollectionName = "corpus"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
