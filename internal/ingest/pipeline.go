// Package ingest orchestrates the document ingestion pipeline:
// fetch, hash/dedup, chunk, tag, embed, persist.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bull/corpus-server/internal/chunker"
	"github.com/bull/corpus-server/internal/hashing"
	"github.com/bull/corpus-server/internal/metrics"
	"github.com/bull/corpus-server/internal/source"
	"github.com/bull/corpus-server/internal/storage"
)

// Status reports the outcome of one ingestion call.
type Status string

const (
	// StatusCreated means a new document and all of its chunks were persisted.
	StatusCreated Status = "created"
	// StatusExisting means identical content was already ingested for this
	// owner; the call was a no-op returning the existing document.
	StatusExisting Status = "existing"
	// StatusPartial means the document was persisted but at least one chunk
	// failed to embed; those chunks are stored without vectors.
	StatusPartial Status = "partial"
	// StatusFailed means nothing was persisted (fetch or hash failure).
	StatusFailed Status = "failed"
)

// DefaultConcurrency caps parallel provider calls, both across documents
// in a batch and across chunks within a document.
const DefaultConcurrency = 4

// Source supplies raw text per document reference.
type Source interface {
	Fetch(ctx context.Context, ownerID, sourceRef string) (*source.RawDocument, error)
}

// Embedder derives a fixed-dimension vector per passage.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Tagger derives descriptive labels from a content prefix.
type Tagger interface {
	Tags(ctx context.Context, text string, count int) ([]string, error)
}

// Result is the outcome of ingesting one source reference.
type Result struct {
	SourceRef      string
	DocumentID     string
	Status         Status
	FailedOrdinals []int // Ordinals of chunks persisted without a vector
	Err            error // Set only when Status is failed
}

// Config holds pipeline dependencies and tuning.
type Config struct {
	Source      Source
	Store       storage.Store
	Embedder    Embedder
	Tagger      Tagger
	Splitter    *chunker.Splitter
	Concurrency int          // Worker cap; 0 means DefaultConcurrency
	TagCount    int          // Tags requested per document; 0 means tagging default
	Logger      *slog.Logger // nil means slog.Default()
}

// Pipeline drives the ingestion flow. All collaborators are explicit
// interfaces constructed once at process start; the pipeline holds no
// global state.
type Pipeline struct {
	source      Source
	store       storage.Store
	embedder    Embedder
	tagger      Tagger
	splitter    *chunker.Splitter
	concurrency int
	tagCount    int
	logger      *slog.Logger
}

// NewPipeline creates an ingestion pipeline from the config.
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	splitter := cfg.Splitter
	if splitter == nil {
		splitter = chunker.New(chunker.DefaultTargetSize, chunker.DefaultOverlap)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		source:      cfg.Source,
		store:       cfg.Store,
		embedder:    cfg.Embedder,
		tagger:      cfg.Tagger,
		splitter:    splitter,
		concurrency: concurrency,
		tagCount:    cfg.TagCount,
		logger:      logger,
	}
}

// Ingest runs the full pipeline for one source reference. The returned
// Result always carries a status; err is non-nil only when the status is
// failed and nothing was persisted.
func (p *Pipeline) Ingest(ctx context.Context, ownerID, sourceRef string) (*Result, error) {
	start := time.Now()

	result := p.ingest(ctx, ownerID, sourceRef)
	metrics.RecordIngest(string(result.Status), time.Since(start))

	switch result.Status {
	case StatusFailed:
		p.logger.Warn("Ingestion failed", "owner", ownerID, "ref", sourceRef, "error", result.Err)
	case StatusPartial:
		p.logger.Warn("Ingestion partial", "owner", ownerID, "ref", sourceRef,
			"document", result.DocumentID, "failed_chunks", len(result.FailedOrdinals))
	default:
		p.logger.Info("Ingestion complete", "owner", ownerID, "ref", sourceRef,
			"document", result.DocumentID, "status", result.Status)
	}

	return result, result.Err
}

func (p *Pipeline) ingest(ctx context.Context, ownerID, sourceRef string) *Result {
	result := &Result{SourceRef: sourceRef, Status: StatusFailed}

	// 1. Fetch raw content
	raw, err := p.source.Fetch(ctx, ownerID, sourceRef)
	if err != nil {
		result.Err = fmt.Errorf("fetch: %w", err)
		return result
	}

	// 2. Hash and dedup. Identical content short-circuits before any
	// provider call is made.
	text := hashing.Normalize(raw.Text)
	checksum := hashing.Checksum(raw.Text)

	existing, err := p.store.FindByChecksum(ctx, ownerID, checksum)
	if err == nil {
		result.DocumentID = existing.ID
		result.Status = StatusExisting
		return result
	}
	if !errors.Is(err, storage.ErrNotFound) {
		result.Err = fmt.Errorf("dedup lookup: %w", err)
		return result
	}

	// 3. Chunk
	passages := p.splitter.Split(text)

	// 4. Tag and embed concurrently; neither depends on the other.
	tagsCh := make(chan []string, 1)
	go func() {
		tagsCh <- p.generateTags(ctx, sourceRef, text)
	}()

	embeddings, failedOrdinals := p.embedPassages(ctx, passages)
	tags := <-tagsCh

	if ctx.Err() != nil {
		// Cancelled before anything was persisted; leave no partial state.
		result.Err = ctx.Err()
		return result
	}

	// 5. Persist document, then its chunks.
	doc := &storage.Document{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		SourcePath: raw.Path,
		SourceType: raw.Type,
		Checksum:   checksum,
		Title:      raw.Title,
		Tags:       tags,
		CreatedAt:  time.Now().UTC(),
	}

	if err := p.store.InsertDocument(ctx, doc); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// A concurrent ingest of the same content won the race;
			// treat it exactly like the dedup hit above.
			if winner, ferr := p.store.FindByChecksum(ctx, ownerID, checksum); ferr == nil {
				result.DocumentID = winner.ID
				result.Status = StatusExisting
				return result
			}
		}
		result.Err = fmt.Errorf("insert document: %w", err)
		return result
	}

	chunks := make([]*storage.Chunk, len(passages))
	for i, passage := range passages {
		chunks[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Ordinal:    passage.Ordinal,
			Text:       passage.Text,
			TokenCount: len(strings.Fields(passage.Text)),
			Embedding:  embeddings[i],
		}
	}

	result.DocumentID = doc.ID
	result.FailedOrdinals = failedOrdinals

	if err := p.store.InsertChunks(ctx, doc.ID, chunks); err != nil {
		// The document and any chunks written before the failure stay
		// committed; the store never rolls back siblings.
		p.logger.Error("Chunk persistence failed", "document", doc.ID, "error", err)
		result.Status = StatusPartial
		return result
	}

	if len(failedOrdinals) > 0 {
		result.Status = StatusPartial
	} else {
		result.Status = StatusCreated
	}
	return result
}

// generateTags runs tag generation with the pipeline's degradation policy:
// any failure yields an empty tag list and never aborts ingestion.
func (p *Pipeline) generateTags(ctx context.Context, sourceRef, text string) []string {
	tags, err := p.tagger.Tags(ctx, text, p.tagCount)
	if err != nil {
		metrics.IncrementTagGenerationFailures()
		p.logger.Warn("Tag generation failed, using empty tags", "ref", sourceRef, "error", err)
		return nil
	}
	return tags
}

// embedPassages embeds all passages with bounded parallelism. Vectors land
// in per-ordinal slots, so completion order can never scramble the
// chunk-to-vector mapping. A passage whose embedding fails leaves a nil
// slot and its ordinal in the failure list; siblings continue.
func (p *Pipeline) embedPassages(ctx context.Context, passages []chunker.Passage) ([][]float32, []int) {
	embeddings := make([][]float32, len(passages))
	failed := make([]bool, len(passages))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(ordinal int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				// Cancelled: stop issuing new provider calls.
				failed[ordinal] = true
				return
			}

			vector, err := p.embedder.Embed(ctx, text)
			if err != nil {
				metrics.IncrementChunkEmbeddingFailures()
				p.logger.Warn("Chunk embedding failed", "ordinal", ordinal, "error", err)
				failed[ordinal] = true
				return
			}
			embeddings[ordinal] = vector
		}(i, passage.Text)
	}
	wg.Wait()

	var failedOrdinals []int
	for i, f := range failed {
		if f {
			failedOrdinals = append(failedOrdinals, i)
		}
	}
	return embeddings, failedOrdinals
}
