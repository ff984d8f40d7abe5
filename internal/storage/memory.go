package storage

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Ensure MemoryStore implements the interface.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of Store. It backs unit tests
// and store-less local development. The conflict check in InsertDocument is
// atomic under the mutex, so it is safe for concurrent ingests.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*Document   // document ID -> document
	byOwner   map[string][]string    // owner ID -> document IDs in insertion order
	checksums map[string]string      // owner ID + "\x00" + checksum -> document ID
	chunks    map[string][]*Chunk    // document ID -> chunks ordered by ordinal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*Document),
		byOwner:   make(map[string][]string),
		checksums: make(map[string]string),
		chunks:    make(map[string][]*Chunk),
	}
}

func checksumKey(ownerID, checksum string) string {
	return ownerID + "\x00" + checksum
}

// InsertDocument stores a new document, rejecting duplicates by
// (owner, checksum).
func (s *MemoryStore) InsertDocument(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := checksumKey(doc.OwnerID, doc.Checksum)
	if _, exists := s.checksums[key]; exists {
		return ErrConflict
	}

	copied := *doc
	copied.Tags = append([]string(nil), doc.Tags...)
	s.documents[doc.ID] = &copied
	s.byOwner[doc.OwnerID] = append(s.byOwner[doc.OwnerID], doc.ID)
	s.checksums[key] = doc.ID
	return nil
}

// InsertChunks appends the batch to the document's chunk list.
func (s *MemoryStore) InsertChunks(_ context.Context, documentID string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		copied := *chunk
		copied.Embedding = append([]float32(nil), chunk.Embedding...)
		if chunk.Embedding == nil {
			copied.Embedding = nil
		}
		s.chunks[documentID] = append(s.chunks[documentID], &copied)
	}
	return nil
}

// FindByChecksum looks up the dedup key for an owner.
func (s *MemoryStore) FindByChecksum(_ context.Context, ownerID, checksum string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.checksums[checksumKey(ownerID, checksum)]
	if !ok {
		return nil, ErrNotFound
	}
	doc := *s.documents[id]
	return &doc, nil
}

// GetDocument retrieves a document by ID, owner-scoped.
func (s *MemoryStore) GetDocument(_ context.Context, ownerID, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// ListByOwner returns the owner's documents in insertion order.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOwner[ownerID]
	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		copied := *s.documents[id]
		docs = append(docs, &copied)
	}
	return docs, nil
}

// VectorSearch ranks the owner's embedded chunks by cosine similarity.
// Chunks without a vector are skipped. Ties break by ascending chunk ID
// so results are deterministic.
func (s *MemoryStore) VectorSearch(_ context.Context, ownerID string, vector []float32, limit int) ([]ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []ScoredChunk
	for _, docID := range s.byOwner[ownerID] {
		for _, chunk := range s.chunks[docID] {
			if chunk.Embedding == nil {
				continue
			}
			copied := *chunk
			scored = append(scored, ScoredChunk{
				Chunk: &copied,
				Score: cosineSimilarity(vector, chunk.Embedding),
			})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
