package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchResult aggregates the outcomes of a batch import.
type BatchResult struct {
	Results  []*Result // One per input reference, input order preserved
	Created  int
	Existing int
	Partial  int
	Failed   int
	Duration time.Duration
}

// IngestAll ingests every reference for one owner with bounded parallelism.
// Per-document failures are reported in the results, never returned as an
// error: one bad document must not sink the batch. Cancellation stops
// scheduling new documents but in-flight ones finish their persistence.
func (p *Pipeline) IngestAll(ctx context.Context, ownerID string, sourceRefs []string) *BatchResult {
	start := time.Now()

	batch := &BatchResult{
		Results: make([]*Result, len(sourceRefs)),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for i, ref := range sourceRefs {
		group.Go(func() error {
			result, _ := p.Ingest(groupCtx, ownerID, ref)
			batch.Results[i] = result
			return nil
		})
	}
	// Workers never return errors, so this only waits.
	_ = group.Wait()

	for _, result := range batch.Results {
		switch result.Status {
		case StatusCreated:
			batch.Created++
		case StatusExisting:
			batch.Existing++
		case StatusPartial:
			batch.Partial++
		default:
			batch.Failed++
		}
	}

	batch.Duration = time.Since(start)
	p.logger.Info("Batch import complete",
		"owner", ownerID,
		"total", len(sourceRefs),
		"created", batch.Created,
		"existing", batch.Existing,
		"partial", batch.Partial,
		"failed", batch.Failed,
		"duration", batch.Duration,
	)

	return batch
}
