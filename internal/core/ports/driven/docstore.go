package driven

import (
	"context"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// DocumentStore persists source-of-truth documents.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// Save stores or updates a document.
	Save(ctx context.Context, doc *domain.SourceDocument) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.SourceDocument, error)

	// Delete removes a document. The caller must have cleaned up the
	// document's vectors first; see driving.SyncEngine.DeleteDocument.
	Delete(ctx context.Context, id string) error

	// List returns all documents, optionally filtered by category.
	List(ctx context.Context, category string) ([]domain.SourceDocument, error)
}
