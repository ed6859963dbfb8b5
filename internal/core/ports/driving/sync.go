package driving

import (
	"context"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// SyncEngine reconciles source documents with the vector index.
//
// Whether SyncDocument runs synchronously on the calling path or is
// enqueued by the host is the caller's choice; the state machine is
// identical either way.
type SyncEngine interface {
	// SyncDocument makes the vector index match the document's current
	// content. Re-syncing unchanged content is a no-op reported as
	// skipped. At most one sync runs per document at a time.
	SyncDocument(ctx context.Context, documentID string) (*domain.SyncResult, error)

	// SyncAll syncs every document in the store.
	SyncAll(ctx context.Context) error

	// DeleteDocument removes the document's vectors from the index, then
	// its sync state, then the source record. Callers must check the
	// result: a failed vector deletion surfaces as an error instead of
	// silently orphaning vectors.
	DeleteDocument(ctx context.Context, documentID string) (*domain.DeleteResult, error)

	// Status returns the sync state for a document.
	Status(ctx context.Context, documentID string) (*domain.SyncState, error)
}
