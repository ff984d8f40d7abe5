// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and search engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var documentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "corpus_documents_ingested_total",
	Help: "Total ingestion results labelled by status (created, existing, partial, failed)",
}, []string{"status"})

var chunkEmbeddingFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "corpus_chunk_embedding_failures_total",
	Help: "Chunks persisted without a vector after embedding retries were exhausted",
})

var tagGenerationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "corpus_tag_generation_failures_total",
	Help: "Documents ingested with empty tags after tag generation failed",
})

var searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "corpus_searches_total",
	Help: "Search requests labelled by mode (lexical, semantic)",
}, []string{"mode"})

var ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "corpus_ingest_duration_seconds",
	Help:    "Wall time of a single document ingestion.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"status"})

func RecordIngest(status string, elapsed time.Duration) {
	documentsIngested.WithLabelValues(status).Inc()
	ingestDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func IncrementChunkEmbeddingFailures() {
	chunkEmbeddingFailures.Inc()
}

func IncrementTagGenerationFailures() {
	tagGenerationFailures.Inc()
}

func RecordSearch(mode string) {
	searchesTotal.WithLabelValues(mode).Inc()
}
