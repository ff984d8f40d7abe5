package storage

import "context"

// Store is the durable, owner-scoped persistence layer for documents and
// their chunks. It is the sole writer of Document/Chunk state; both entity
// kinds are created once and never updated in place.
type Store interface {
	// InsertDocument persists a new document. Returns ErrConflict if a
	// document with the same (OwnerID, Checksum) already exists; this is
	// the authoritative guard against racing duplicate ingests.
	InsertDocument(ctx context.Context, doc *Document) error

	// InsertChunks persists a batch of chunks for a document. The batch is
	// best-effort: a failure on one chunk does not roll back siblings that
	// were already written.
	InsertChunks(ctx context.Context, documentID string, chunks []*Chunk) error

	// FindByChecksum looks up a document by its dedup key.
	// Returns ErrNotFound when no document matches.
	FindByChecksum(ctx context.Context, ownerID, checksum string) (*Document, error)

	// GetDocument retrieves a document by ID, scoped to the owner.
	// Returns ErrNotFound when the document doesn't exist or belongs to
	// a different owner.
	GetDocument(ctx context.Context, ownerID, id string) (*Document, error)

	// ListByOwner returns all documents for an owner in insertion order.
	ListByOwner(ctx context.Context, ownerID string) ([]*Document, error)

	// VectorSearch ranks the owner's chunks by cosine similarity to the
	// query vector, descending, ties broken by ascending chunk ID. Chunks
	// persisted without a vector are excluded from ranking.
	VectorSearch(ctx context.Context, ownerID string, vector []float32, limit int) ([]ScoredChunk, error)
}
