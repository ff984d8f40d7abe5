package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/corpus-server/internal/storage"
)

// staticEmbedder returns one fixed vector for every query.
type staticEmbedder struct {
	vector []float32
}

func (e *staticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.vector, nil
}

func seedDocument(t *testing.T, store *storage.MemoryStore, ownerID, id, title string, tags []string, chunkVectors ...[]float32) {
	t.Helper()
	err := store.InsertDocument(context.Background(), &storage.Document{
		ID:        id,
		OwnerID:   ownerID,
		Checksum:  id + "-checksum",
		Title:     title,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	chunks := make([]*storage.Chunk, len(chunkVectors))
	for i, vec := range chunkVectors {
		chunks[i] = &storage.Chunk{
			ID:         id + "-chunk-" + string(rune('a'+i)),
			DocumentID: id,
			Ordinal:    i,
			Text:       "chunk text",
			Embedding:  vec,
		}
	}
	require.NoError(t, store.InsertChunks(context.Background(), id, chunks))
}

func TestLexical_TitleAndTagMatching(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-1", "Kubernetes Networking", nil)
	seedDocument(t, store, "owner-a", "doc-2", "Grocery List", []string{"shopping", "Networking Basics"})
	seedDocument(t, store, "owner-a", "doc-3", "Unrelated", []string{"cooking"})

	engine := NewEngine(store, nil, nil)
	ctx := context.Background()

	results, err := engine.Search(ctx, "owner-a", "NETWORKING", ModeLexical, 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Store order, not relevance order.
	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, "doc-2", results[1].DocumentID)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 1.0, results[1].Score)
}

func TestLexical_NoMatches(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-1", "Kubernetes Networking", nil)

	engine := NewEngine(store, nil, nil)

	results, err := engine.Search(context.Background(), "owner-a", "pottery", ModeLexical, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLexical_Limit(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-1", "note one", nil)
	seedDocument(t, store, "owner-a", "doc-2", "note two", nil)
	seedDocument(t, store, "owner-a", "doc-3", "note three", nil)

	engine := NewEngine(store, nil, nil)

	results, err := engine.Search(context.Background(), "owner-a", "note", ModeLexical, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, "doc-2", results[1].DocumentID)
}

func TestSemantic_RanksByBestChunk(t *testing.T) {
	store := storage.NewMemoryStore()
	// doc-far's only chunk is orthogonal to the query; doc-near has one
	// weak and one strong chunk, and must rank by the strong one.
	seedDocument(t, store, "owner-a", "doc-far", "Far", nil, []float32{0, 1, 0})
	seedDocument(t, store, "owner-a", "doc-near", "Near", nil, []float32{1, 1, 0}, []float32{1, 0, 0})

	engine := NewEngine(store, &staticEmbedder{vector: []float32{1, 0, 0}}, nil)

	results, err := engine.Search(context.Background(), "owner-a", "anything", ModeSemantic, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "doc-near", results[0].DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "doc-far", results[1].DocumentID)
}

func TestSemantic_DeduplicatesChunksOfOneDocument(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-1", "Multi", nil,
		[]float32{1, 0, 0}, []float32{1, 1, 0}, []float32{1, 2, 0})

	engine := NewEngine(store, &staticEmbedder{vector: []float32{1, 0, 0}}, nil)

	results, err := engine.Search(context.Background(), "owner-a", "anything", ModeSemantic, 10)
	require.NoError(t, err)
	require.Len(t, results, 1, "three chunk hits collapse to one document")
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSemantic_SkipsChunksWithoutVectors(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-1", "Partial", nil, []float32{1, 0, 0}, nil)

	engine := NewEngine(store, &staticEmbedder{vector: []float32{1, 0, 0}}, nil)

	results, err := engine.Search(context.Background(), "owner-a", "anything", ModeSemantic, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1", results[0].DocumentID)
}

// TestSearch_OwnerIsolation: neither mode may surface another owner's
// documents, even when the content is identical.
func TestSearch_OwnerIsolation(t *testing.T) {
	store := storage.NewMemoryStore()
	seedDocument(t, store, "owner-a", "doc-a", "Shared Notes", []string{"shared"}, []float32{1, 0, 0})
	seedDocument(t, store, "owner-b", "doc-b", "Shared Notes", []string{"shared"}, []float32{1, 0, 0})

	engine := NewEngine(store, &staticEmbedder{vector: []float32{1, 0, 0}}, nil)
	ctx := context.Background()

	for _, mode := range []Mode{ModeLexical, ModeSemantic} {
		results, err := engine.Search(ctx, "owner-a", "shared", mode, 10)
		require.NoError(t, err)
		require.Len(t, results, 1, "mode %s", mode)
		assert.Equal(t, "doc-a", results[0].DocumentID, "mode %s", mode)
	}
}

func TestSearch_UnknownMode(t *testing.T) {
	engine := NewEngine(storage.NewMemoryStore(), nil, nil)

	_, err := engine.Search(context.Background(), "owner-a", "q", Mode("fuzzy"), 10)
	assert.Error(t, err)
}

func TestSemantic_WithoutEmbedder(t *testing.T) {
	engine := NewEngine(storage.NewMemoryStore(), nil, nil)

	_, err := engine.Search(context.Background(), "owner-a", "q", ModeSemantic, 10)
	assert.Error(t, err)
}
