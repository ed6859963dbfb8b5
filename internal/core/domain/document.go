package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceDocument represents a source-of-truth knowledge document.
// It is owned by the content-management layer; the sync engine only
// reads it and writes back sync state keyed by its ID.
type SourceDocument struct {
	// ID is the stable unique identifier, assigned at creation.
	ID string

	// Title is the human-readable title.
	Title string

	// Content is the full text content to be chunked and indexed.
	Content string

	// Category groups documents for filtered retrieval.
	Category string

	// Tags contains arbitrary labels attached to the document.
	Tags []string

	// IsApproved indicates the document passed editorial approval.
	// Unapproved documents are never indexed.
	IsApproved bool

	// SecurityReviewed indicates the document passed security review.
	// Unreviewed documents are never indexed.
	SecurityReviewed bool

	// CreatedAt is when the document was created.
	CreatedAt time.Time

	// UpdatedAt is when the document was last edited.
	UpdatedAt time.Time
}

// Indexable returns true if the document may be written to the vector index.
func (d *SourceDocument) Indexable() bool {
	return d.IsApproved && d.SecurityReviewed
}

// Fingerprint returns the content fingerprint used for change detection.
func (d *SourceDocument) Fingerprint() string {
	return Fingerprint(d.Content)
}

// Fingerprint computes the fingerprint of document content.
// Identical content always produces an identical fingerprint, which is
// what makes re-syncing unchanged documents a no-op.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Chunk represents a bounded slice of a document's text.
// Chunks are derived and ephemeral: they are regenerated deterministically
// from the document content and never persisted outside the vector index.
type Chunk struct {
	// DocumentID links to the parent SourceDocument.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// TokenCount is the approximate token count of Text, measured with
	// the same tokenisation the embedding model uses.
	TokenCount int

	// Embedding is the vector representation, populated during sync.
	Embedding []float32
}
