package domain

import "time"

// SyncPhase is the lifecycle phase of a document's vector-index representation.
type SyncPhase string

// Sync lifecycle phases.
const (
	// SyncPhaseUnsynced means the document has never been indexed.
	SyncPhaseUnsynced SyncPhase = "unsynced"

	// SyncPhaseSyncing means a sync attempt is in progress.
	SyncPhaseSyncing SyncPhase = "syncing"

	// SyncPhaseSynced means the index matches the document content.
	SyncPhaseSynced SyncPhase = "synced"

	// SyncPhaseStale means the content changed after the last sync.
	// The previous vectors remain searchable until the next sync.
	SyncPhaseStale SyncPhase = "stale"

	// SyncPhaseFailed means the last sync attempt errored.
	// The last-known-good vectors, if any, remain searchable.
	SyncPhaseFailed SyncPhase = "failed"
)

// String returns the string representation.
func (p SyncPhase) String() string {
	return string(p)
}

// SyncState tracks a document's representation in the vector index.
// One document maps to many chunks, so the vector ids are not derivable
// from the document id and must be recorded here.
type SyncState struct {
	// DocumentID links to the SourceDocument being tracked.
	DocumentID string

	// Phase is the current lifecycle phase.
	Phase SyncPhase

	// Synced indicates the index currently matches ContentFingerprint.
	Synced bool

	// VectorIDs are the vector-index record ids for the document's chunks.
	VectorIDs []string

	// OrphanedVectorIDs are vectors written by a failed attempt whose
	// previous-version cleanup did not complete. The next sync or delete
	// removes them alongside VectorIDs.
	OrphanedVectorIDs []string

	// ContentFingerprint is the fingerprint of the content last synced.
	ContentFingerprint string

	// LastSyncedAt is when the last successful sync completed.
	LastSyncedAt time.Time

	// SyncError holds the last sync failure message, empty on success.
	SyncError string
}

// Stale returns true if the given content no longer matches the
// fingerprint recorded at the last successful sync.
func (s *SyncState) Stale(content string) bool {
	return s.ContentFingerprint != Fingerprint(content)
}

// SyncResult reports the outcome of a sync operation.
type SyncResult struct {
	// DocumentID identifies the synced document.
	DocumentID string

	// Skipped is true when no index writes were needed.
	Skipped bool

	// SkipReason explains a skip (unchanged content, unapproved document).
	SkipReason string

	// ChunkCount is the number of chunks written.
	ChunkCount int

	// VectorIDs are the ids of the vectors now representing the document.
	VectorIDs []string
}

// DeleteResult reports the outcome of a document deletion.
type DeleteResult struct {
	// DocumentID identifies the deleted document.
	DocumentID string

	// VectorsDeleted is the number of vectors removed from the index.
	VectorsDeleted int
}
