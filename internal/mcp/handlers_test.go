package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/corpus-server/internal/search"
	"github.com/bull/corpus-server/internal/storage"
)

type staticEmbedder struct {
	vector []float32
}

func (e *staticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.vector, nil
}

func seedCorpus(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.InsertDocument(ctx, &storage.Document{
		ID:         "doc-1",
		OwnerID:    "owner-a",
		SourcePath: "guides/setup.md",
		SourceType: "filesystem",
		Checksum:   "c1",
		Title:      "Setup Guide",
		Tags:       []string{"setup", "install"},
		CreatedAt:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.InsertChunks(ctx, "doc-1", []*storage.Chunk{
		{ID: "doc-1-a", DocumentID: "doc-1", Ordinal: 0, Text: "setup", Embedding: []float32{1, 0, 0}},
	}))

	require.NoError(t, store.InsertDocument(ctx, &storage.Document{
		ID:         "doc-2",
		OwnerID:    "owner-a",
		SourcePath: "guides/faq.md",
		SourceType: "filesystem",
		Checksum:   "c2",
		Title:      "FAQ",
		CreatedAt:  time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.InsertChunks(ctx, "doc-2", []*storage.Chunk{
		{ID: "doc-2-a", DocumentID: "doc-2", Ordinal: 0, Text: "faq", Embedding: []float32{0, 1, 0}},
	}))

	return store
}

func TestSearchCorpus_FiltersByScore(t *testing.T) {
	store := seedCorpus(t)
	engine := search.NewEngine(store, &staticEmbedder{vector: []float32{1, 0, 0}}, nil)
	handler := makeSearchHandler(engine)

	// doc-1 scores 1.0, doc-2 scores 0.0; the default threshold keeps
	// only doc-1.
	_, out, err := handler(context.Background(), nil, SearchCorpusInput{
		OwnerID: "owner-a",
		Query:   "how do I set up",
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "doc-1", out.Results[0].DocumentID)
	assert.Equal(t, []string{"setup", "install"}, out.Results[0].Tags)
}

func TestSearchCorpus_LexicalMode(t *testing.T) {
	store := seedCorpus(t)
	engine := search.NewEngine(store, nil, nil)
	handler := makeSearchHandler(engine)

	_, out, err := handler(context.Background(), nil, SearchCorpusInput{
		OwnerID: "owner-a",
		Query:   "faq",
		Mode:    "lexical",
	})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "doc-2", out.Results[0].DocumentID)
}

func TestSearchCorpus_NoMatchesMessage(t *testing.T) {
	engine := search.NewEngine(storage.NewMemoryStore(), nil, nil)
	handler := makeSearchHandler(engine)

	_, out, err := handler(context.Background(), nil, SearchCorpusInput{
		OwnerID: "owner-a",
		Query:   "anything",
		Mode:    "lexical",
	})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Message)
}

func TestSearchCorpus_RequiresOwner(t *testing.T) {
	engine := search.NewEngine(storage.NewMemoryStore(), nil, nil)
	handler := makeSearchHandler(engine)

	_, _, err := handler(context.Background(), nil, SearchCorpusInput{Query: "q"})
	assert.Error(t, err)
}

func TestGetDocument_Found(t *testing.T) {
	store := seedCorpus(t)
	handler := makeGetDocumentHandler(store)

	_, out, err := handler(context.Background(), nil, GetDocumentInput{
		OwnerID:    "owner-a",
		DocumentID: "doc-1",
	})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "Setup Guide", out.Title)
	assert.Equal(t, "guides/setup.md", out.SourcePath)
}

// TestGetDocument_ForeignOwner: another owner's document reads as absent,
// not as an error that would confirm its existence.
func TestGetDocument_ForeignOwner(t *testing.T) {
	store := seedCorpus(t)
	handler := makeGetDocumentHandler(store)

	_, out, err := handler(context.Background(), nil, GetDocumentInput{
		OwnerID:    "owner-b",
		DocumentID: "doc-1",
	})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestCorpusStatus(t *testing.T) {
	store := seedCorpus(t)
	handler := makeStatusHandler(store)

	_, out, err := handler(context.Background(), nil, CorpusStatusInput{OwnerID: "owner-a"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalDocs)
	assert.Equal(t, []string{"guides/setup.md", "guides/faq.md"}, out.SourcePaths)
	assert.Equal(t, "2026-02-20T00:00:00Z", out.LastIngestTime)
}

func TestCorpusStatus_EmptyCorpus(t *testing.T) {
	handler := makeStatusHandler(storage.NewMemoryStore())

	_, out, err := handler(context.Background(), nil, CorpusStatusInput{OwnerID: "owner-x"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.TotalDocs)
	assert.Empty(t, out.LastIngestTime)
}
