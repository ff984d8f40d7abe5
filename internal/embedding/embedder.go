// Package embedding generates fixed-dimension vectors for passages and
// queries via the OpenAI embeddings API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// Model is the OpenAI model used for generating embeddings.
	Model = "text-embedding-3-small"

	// Dimension is the vector dimension for text-embedding-3-small.
	// This matches storage.VectorDimension (1536).
	Dimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute
	// rate limits. OpenAI supports up to 2048 texts per batch, but smaller
	// batches reduce TPM pressure.
	DefaultBatchSize = 500

	// DefaultCallTimeout bounds a single API call so a hung provider
	// surfaces as a retryable timeout instead of stalling ingestion.
	DefaultCallTimeout = 30 * time.Second
)

// Embedder generates embeddings using OpenAI's text-embedding-3-small
// model. It batches requests and retries transient failures (rate limits,
// server errors, timeouts) with exponential backoff.
type Embedder struct {
	client      *Client
	batchSize   int
	callTimeout time.Duration
}

// NewEmbedder creates a new Embedder with the given client and optional
// batch size. If batchSize is 0, DefaultBatchSize (500) is used.
func NewEmbedder(client *Client, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:      client,
		batchSize:   batchSize,
		callTimeout: DefaultCallTimeout,
	}
}

// Embed generates the embedding for a single text, typically one passage
// or a search query.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for the given texts, preserving input
// order: embeddings[i] corresponds to texts[i].
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// embedBatchWithRetry generates embeddings for a single batch with retry
// logic. Transient errors retry with exponential backoff; everything else
// fails immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		defer cancel()

		resp, err := e.client.client.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: Model,
		})
		if err != nil {
			if ctx.Err() != nil {
				// Caller cancelled; don't keep issuing provider calls.
				return backoff.Permanent(ctx.Err())
			}
			if isTransient(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}

		// Convert float64 to float32 for storage compatibility
		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isTransient reports whether the error is worth retrying: rate limits
// (HTTP 429), server-side errors (5xx), and per-call timeouts.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
