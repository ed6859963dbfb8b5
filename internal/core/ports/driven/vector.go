package driven

import (
	"context"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// VectorIndex wraps a vector database and exposes collection lifecycle,
// record writes, and metric-bound similarity search.
//
// Every collection is bound to exactly one metric at creation time.
// Implementations must validate the search metric client-side and return
// domain.ErrMetricMismatch on disagreement: the underlying engine may not
// reject a mismatch and instead return spurious low-quality results.
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist.
	// Idempotent. Returns domain.ErrMetricConflict if the collection
	// exists with a different metric than requested.
	EnsureCollection(ctx context.Context, name string, dim int, metric domain.Metric) error

	// CollectionMetric returns the metric the collection is bound to.
	// Retrieval uses this to self-correct rather than trusting a
	// caller-supplied default.
	CollectionMetric(ctx context.Context, name string) (domain.Metric, error)

	// Upsert writes records and returns the assigned vector ids in input
	// order. It must NOT silently deduplicate; uniqueness is the sync
	// engine's responsibility.
	Upsert(ctx context.Context, collection string, records []VectorRecord) ([]string, error)

	// Delete removes the given vector ids. Idempotent: deleting a
	// non-existent id is a no-op, not an error. Returns the number of
	// ids the engine acknowledged.
	Delete(ctx context.Context, collection string, vectorIDs []string) (int, error)

	// Search returns the top-k records ranked best-first under the
	// collection's metric. Returns domain.ErrMetricMismatch if metric
	// does not match the collection's bound metric.
	Search(ctx context.Context, collection string, query []float32, metric domain.Metric, topK int, filter *SearchFilter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is a single record written to a vector collection.
type VectorRecord struct {
	// ID is the vector id. Empty means the adapter assigns one.
	ID string

	// Embedding is the vector itself.
	Embedding []float32

	// DocumentID links back to the source document.
	DocumentID string

	// ChunkIndex is the chunk's ordinal position within the document.
	ChunkIndex int

	// Payload contains additional fields stored alongside the vector
	// (content, title, category).
	Payload map[string]any
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ID is the matched vector id.
	ID string

	// Score is the raw score under the collection's metric.
	Score float64

	// DocumentID is the owning document, from the payload.
	DocumentID string

	// ChunkIndex is the chunk position, from the payload.
	ChunkIndex int

	// Payload contains the remaining stored fields.
	Payload map[string]any
}

// SearchFilter restricts a search to matching records.
type SearchFilter struct {
	// DocumentIDs limits results to the given documents.
	DocumentIDs []string

	// Category limits results to documents in a category.
	Category string
}

// Payload field names shared by adapters.
const (
	// PayloadContent is the chunk text field.
	PayloadContent = "content"

	// PayloadDocumentID is the owning document id field.
	PayloadDocumentID = "document_id"

	// PayloadChunkIndex is the chunk ordinal field.
	PayloadChunkIndex = "chunk_index"

	// PayloadTitle is the document title field.
	PayloadTitle = "title"

	// PayloadCategory is the document category field.
	PayloadCategory = "category"
)
