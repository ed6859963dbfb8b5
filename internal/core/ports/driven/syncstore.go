package driven

import (
	"context"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// SyncStateStore persists per-document sync state.
// State is created on the first sync attempt, updated on every subsequent
// attempt, and deleted only alongside its document.
type SyncStateStore interface {
	// Save stores or updates sync state.
	Save(ctx context.Context, state domain.SyncState) error

	// Get retrieves sync state for a document.
	// Returns domain.ErrNotFound if the document has never been synced.
	Get(ctx context.Context, documentID string) (*domain.SyncState, error)

	// Delete removes sync state for a document.
	Delete(ctx context.Context, documentID string) error
}
