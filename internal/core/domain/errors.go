package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates a document has no content to chunk.
	// Callers must skip syncing empty documents rather than writing
	// empty chunks.
	ErrEmptyContent = errors.New("empty content")

	// ErrSyncInProgress indicates a sync is already running for a document.
	ErrSyncInProgress = errors.New("sync in progress")

	// Metric Errors.

	// ErrMetricConflict indicates a collection already exists with a
	// different metric than requested at creation.
	ErrMetricConflict = errors.New("collection metric conflict")

	// ErrMetricMismatch indicates a search requested a metric other than
	// the one the collection is bound to. This is validated client-side:
	// the underlying engine may not reject the mismatch and instead
	// return spurious low-quality results.
	ErrMetricMismatch = errors.New("search metric mismatch")

	// Service Availability Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Query rewriting degrades to the deterministic fallback without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Sync and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index is unreachable.
	// Both sync and retrieval propagate this as fatal for the call.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// Sync Errors.

	// ErrEmbeddingFailed indicates the embedding backend errored or
	// returned a malformed vector. The sync attempt fails, prior state
	// is preserved, and the operation is retriable.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrSyncFailed wraps any failure during the upsert/delete steps of a
	// sync. The document remains in its last-known-good state.
	ErrSyncFailed = errors.New("sync failed")
)
