package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Ensure QdrantStore implements the interface.
var _ Store = (*QdrantStore)(nil)

// QdrantStore persists documents and chunks in a single Qdrant collection.
// Documents are vector-less points (type=document); chunks carry the named
// "content" vector (type=chunk). Every point stores owner_id so reads can
// be filtered per tenant.
type QdrantStore struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantStore creates a Qdrant-backed store with health validation.
// It performs a health check with retry on startup and fails fast if
// Qdrant is unreachable.
func NewQdrantStore(host string, port int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client: client,
		host:   host,
		port:   port,
	}

	ctx := context.Background()
	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection ensures the corpus collection exists with proper
// configuration: 1536-dimension cosine vectors and payload indexes for
// the owner/checksum/type/document_id filters. Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	// Named vector so vector-less document points and embedded chunk
	// points can share the collection.
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			"content": {
				Size:     VectorDimension,
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes creates indexes for all filterable fields.
// Without these, owner-scoped filtering degrades badly at corpus scale.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context) error {
	fields := []string{
		"owner_id",    // Every query is scoped by owner
		"checksum",    // Dedup lookup
		"type",        // Distinguish "document" vs "chunk"
		"document_id", // Lookup chunks by parent
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs an upsert with exponential backoff retry.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// InsertDocument stores a document as a vector-less point. The
// (owner_id, checksum) pair is checked first so a racing duplicate ingest
// surfaces as ErrConflict instead of a silent second row.
func (s *QdrantStore) InsertDocument(ctx context.Context, doc *Document) error {
	if _, err := s.FindByChecksum(ctx, doc.OwnerID, doc.Checksum); err == nil {
		return ErrConflict
	}

	tags := make([]interface{}, len(doc.Tags))
	for i, tag := range doc.Tags {
		tags[i] = tag
	}

	payload := map[string]any{
		"type":        "document",
		"owner_id":    doc.OwnerID,
		"source_path": doc.SourcePath,
		"source_type": doc.SourceType,
		"checksum":    doc.Checksum,
		"title":       doc.Title,
		"tags":        tags,
		"created_at":  doc.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{}),
		Payload: qdrant.NewValueMap(payload),
	}

	return s.upsertWithRetry(ctx, []*qdrant.PointStruct{point})
}

// InsertChunks stores chunks for a document in batches of 100. Chunks
// without an embedding are stored vector-less so the passage text is not
// lost; they never match vector queries. A failed batch does not roll
// back batches already written.
func (s *QdrantStore) InsertChunks(ctx context.Context, documentID string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if chunk.Embedding != nil && len(chunk.Embedding) != VectorDimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), VectorDimension)
		}
	}

	ownerID, err := s.ownerOf(ctx, documentID)
	if err != nil {
		return err
	}

	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			vectors := map[string]*qdrant.Vector{}
			if chunk.Embedding != nil {
				vectors["content"] = qdrant.NewVector(chunk.Embedding...)
			}
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(vectors),
				Payload: qdrant.NewValueMap(map[string]any{
					"type":        "chunk",
					"owner_id":    ownerID,
					"document_id": documentID,
					"ordinal":     chunk.Ordinal,
					"text":        chunk.Text,
					"token_count": chunk.TokenCount,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// ownerOf resolves a document's owner for denormalizing onto chunk points.
func (s *QdrantStore) ownerOf(ctx context.Context, documentID string) (string, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(documentID)},
		WithPayload:    qdrant.NewWithPayloadInclude("owner_id", "type"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parent document: %w", err)
	}
	if len(result) == 0 || result[0].Payload["type"].GetStringValue() != "document" {
		return "", ErrNotFound
	}
	return result[0].Payload["owner_id"].GetStringValue(), nil
}

// FindByChecksum looks up a document by its per-owner dedup key.
func (s *QdrantStore) FindByChecksum(ctx context.Context, ownerID, checksum string) (*Document, error) {
	results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: CollectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "document"),
				qdrant.NewMatch("owner_id", ownerID),
				qdrant.NewMatch("checksum", checksum),
			},
		},
		Limit:       qdrant.PtrOf(uint32(1)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query document by checksum: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	return documentFromPayload(results[0].Id.GetUuid(), results[0].Payload), nil
}

// GetDocument retrieves a document by ID, owner-scoped.
func (s *QdrantStore) GetDocument(ctx context.Context, ownerID, id string) (*Document, error) {
	result, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: CollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	payload := result[0].Payload
	if payload["type"].GetStringValue() != "document" ||
		payload["owner_id"].GetStringValue() != ownerID {
		return nil, ErrNotFound
	}

	return documentFromPayload(id, payload), nil
}

// ListByOwner returns all documents for an owner. Qdrant scroll order is
// by point ID, so results are re-sorted by creation time to recover
// insertion order.
func (s *QdrantStore) ListByOwner(ctx context.Context, ownerID string) ([]*Document, error) {
	var docs []*Document
	var offset *qdrant.PointId

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("type", "document"),
			qdrant.NewMatch("owner_id", ownerID),
		},
	}

	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: CollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll documents: %w", err)
		}

		for _, result := range results {
			docs = append(docs, documentFromPayload(result.Id.GetUuid(), result.Payload))
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// VectorSearch performs cosine similarity search over the owner's chunks.
// Qdrant returns by score descending; equal scores are re-sorted by
// ascending chunk ID for deterministic output.
func (s *QdrantStore) VectorSearch(ctx context.Context, ownerID string, vector []float32, limit int) ([]ScoredChunk, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}

	vectorName := "content"
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(vector...),
		Using:          &vectorName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("type", "chunk"),
				qdrant.NewMatch("owner_id", ownerID),
			},
		},
		Limit:       qdrant.PtrOf(uint64(limit)),
		WithPayload: qdrant.NewWithPayload(true),
		WithVectors: qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		scored = append(scored, ScoredChunk{
			Chunk: &Chunk{
				ID:         result.Id.GetUuid(),
				DocumentID: payload["document_id"].GetStringValue(),
				Ordinal:    int(payload["ordinal"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
				TokenCount: int(payload["token_count"].GetIntegerValue()),
			},
			Score: float64(result.Score),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	return scored, nil
}

// ClearCollection deletes all points and recreates the collection.
// Useful for re-ingest scenarios and integration tests.
func (s *QdrantStore) ClearCollection(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, CollectionName); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// documentFromPayload rebuilds a Document from a Qdrant point payload.
func documentFromPayload(id string, payload map[string]*qdrant.Value) *Document {
	createdAt, err := time.Parse(time.RFC3339Nano, payload["created_at"].GetStringValue())
	if err != nil {
		createdAt = time.Time{}
	}

	var tags []string
	if tagsVal, ok := payload["tags"]; ok && tagsVal.GetListValue() != nil {
		for _, val := range tagsVal.GetListValue().Values {
			tags = append(tags, val.GetStringValue())
		}
	}

	return &Document{
		ID:         id,
		OwnerID:    payload["owner_id"].GetStringValue(),
		SourcePath: payload["source_path"].GetStringValue(),
		SourceType: payload["source_type"].GetStringValue(),
		Checksum:   payload["checksum"].GetStringValue(),
		Title:      payload["title"].GetStringValue(),
		Tags:       tags,
		CreatedAt:  createdAt,
	}
}
