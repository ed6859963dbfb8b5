package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/kbsync-cli/internal/chunker"
	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync-cli/internal/logger"
)

// Ensure SyncEngine implements the interface.
var _ driving.SyncEngine = (*SyncEngine)(nil)

// SyncEngine reconciles source documents with the vector index.
//
// Update ordering is upsert-first: new vectors are written before the
// previous version's vectors are deleted, so at least one consistent
// version of a document is searchable at all times. A crash between the
// two steps leaves two versions visible, never zero.
type SyncEngine struct {
	docStore   driven.DocumentStore
	syncStore  driven.SyncStateStore
	index      driven.VectorIndex
	embedding  driven.EmbeddingService
	splitter   *chunker.Splitter
	collection string
	metric     domain.Metric

	// Per-document advisory locks. Concurrent syncs of the same document
	// would race the delete-after-upsert ordering against each other.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncEngine creates a sync engine bound to one collection.
// The collection is created on first sync with the configured metric and
// the embedding service's dimensionality.
func NewSyncEngine(
	docStore driven.DocumentStore,
	syncStore driven.SyncStateStore,
	index driven.VectorIndex,
	embedding driven.EmbeddingService,
	splitter *chunker.Splitter,
	collection string,
	metric domain.Metric,
) *SyncEngine {
	return &SyncEngine{
		docStore:   docStore,
		syncStore:  syncStore,
		index:      index,
		embedding:  embedding,
		splitter:   splitter,
		collection: collection,
		metric:     metric,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SyncDocument makes the vector index match the document's current content.
//
//nolint:gocyclo // State machine with necessary sequential steps
func (e *SyncEngine) SyncDocument(ctx context.Context, documentID string) (*domain.SyncResult, error) {
	unlock := e.lockDocument(documentID)
	defer unlock()

	logger.Section("Sync Execution")
	logger.Debug("Document: %s", documentID)

	// The snapshot must be taken under the lock. A snapshot read before
	// acquisition could be re-indexed over a concurrent newer sync,
	// deleting its vectors and marking stale content as current.
	doc, err := e.docStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if !doc.Indexable() {
		logger.Info("Skipping %s: not approved for indexing", documentID)
		return &domain.SyncResult{
			DocumentID: documentID,
			Skipped:    true,
			SkipReason: "document is not approved and security reviewed",
		}, nil
	}

	state, err := e.syncStore.Get(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	newFingerprint := doc.Fingerprint()

	// Duplicate prevention: re-syncing unchanged content must never add
	// vectors.
	if state != nil && state.Synced && state.ContentFingerprint == newFingerprint {
		logger.Info("Skipping %s: content unchanged", documentID)
		return &domain.SyncResult{
			DocumentID: documentID,
			Skipped:    true,
			SkipReason: "content unchanged since last sync",
			ChunkCount: len(state.VectorIDs),
			VectorIDs:  state.VectorIDs,
		}, nil
	}

	chunks, err := e.splitter.Split(documentID, doc.Content)
	if err != nil {
		// Empty content is a caller error, not a retriable sync failure.
		return nil, err
	}
	logger.Debug("Chunked into %d chunks", len(chunks))

	var prior domain.SyncState
	if state != nil {
		prior = *state
	} else {
		prior = domain.SyncState{DocumentID: documentID, Phase: domain.SyncPhaseUnsynced}
	}

	// Record the in-progress phase; prior vector ids and fingerprint stay
	// untouched so the last-known-good version remains trusted.
	syncing := prior
	syncing.Phase = domain.SyncPhaseSyncing
	syncing.Synced = false
	if err := e.syncStore.Save(ctx, syncing); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := e.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, e.failSync(ctx, prior, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err))
	}
	if len(embeddings) != len(chunks) {
		return nil, e.failSync(ctx, prior,
			fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingFailed, len(embeddings), len(chunks)))
	}
	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, e.failSync(ctx, prior,
				fmt.Errorf("%w: empty vector for chunk %d", domain.ErrEmbeddingFailed, i))
		}
		chunks[i].Embedding = emb
	}

	if err := e.index.EnsureCollection(ctx, e.collection, e.embedding.Dimensions(), e.metric); err != nil {
		return nil, e.failSync(ctx, prior, fmt.Errorf("ensure collection: %w", err))
	}

	records := make([]driven.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = driven.VectorRecord{
			ID:         uuid.New().String(),
			Embedding:  c.Embedding,
			DocumentID: documentID,
			ChunkIndex: c.Index,
			Payload: map[string]any{
				driven.PayloadContent:  c.Text,
				driven.PayloadTitle:    doc.Title,
				driven.PayloadCategory: doc.Category,
			},
		}
	}

	// Upsert the new version first. Deleting the old version before the
	// new one is fully written would open a window with zero searchable
	// versions.
	newIDs, err := e.index.Upsert(ctx, e.collection, records)
	if err != nil {
		return nil, e.failSync(ctx, prior, fmt.Errorf("%w: upsert: %w", domain.ErrSyncFailed, err))
	}
	logger.Debug("Upserted %d vectors", len(newIDs))

	// Previous-version vectors plus any leftovers from earlier failed
	// attempts are removed in one pass.
	obsolete := make([]string, 0, len(prior.VectorIDs)+len(prior.OrphanedVectorIDs))
	obsolete = append(obsolete, prior.VectorIDs...)
	obsolete = append(obsolete, prior.OrphanedVectorIDs...)
	if len(obsolete) > 0 {
		if _, err := e.index.Delete(ctx, e.collection, obsolete); err != nil {
			// The new version is written but the old one lingers. Keep the
			// prior ids in state so the next sync retries the cleanup, and
			// record this attempt's ids so they are cleaned up too.
			failed := prior
			failed.OrphanedVectorIDs = append(append([]string(nil), prior.OrphanedVectorIDs...), newIDs...)
			return nil, e.failSync(ctx, failed, fmt.Errorf("%w: delete previous vectors: %w", domain.ErrSyncFailed, err))
		}
		logger.Debug("Deleted %d previous vectors", len(obsolete))
	}

	newState := domain.SyncState{
		DocumentID:         documentID,
		Phase:              domain.SyncPhaseSynced,
		Synced:             true,
		VectorIDs:          newIDs,
		ContentFingerprint: newFingerprint,
		LastSyncedAt:       time.Now().UTC(),
	}
	if err := e.syncStore.Save(ctx, newState); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}

	logger.Info("Sync complete: %s, %d chunks", documentID, len(chunks))
	return &domain.SyncResult{
		DocumentID: documentID,
		ChunkCount: len(chunks),
		VectorIDs:  newIDs,
	}, nil
}

// SyncAll syncs every document in the store.
func (e *SyncEngine) SyncAll(ctx context.Context) error {
	docs, err := e.docStore.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var errs []error
	for i := range docs {
		if _, err := e.SyncDocument(ctx, docs[i].ID); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", docs[i].ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DeleteDocument removes the document's vectors, then its sync state, then
// the source record. Vector cleanup failures surface as errors and leave
// the source record in place so the deletion can be retried.
func (e *SyncEngine) DeleteDocument(ctx context.Context, documentID string) (*domain.DeleteResult, error) {
	unlock := e.lockDocument(documentID)
	defer unlock()

	logger.Section("Delete Execution")
	logger.Debug("Document: %s", documentID)

	deleted := 0
	state, err := e.syncStore.Get(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Never synced, nothing in the index.
	case err != nil:
		return nil, fmt.Errorf("get sync state: %w", err)
	case len(state.VectorIDs) > 0 || len(state.OrphanedVectorIDs) > 0:
		ids := append(append([]string(nil), state.VectorIDs...), state.OrphanedVectorIDs...)
		deleted, err = e.index.Delete(ctx, e.collection, ids)
		if err != nil {
			return nil, fmt.Errorf("delete vectors for %s: %w", documentID, err)
		}
		logger.Debug("Deleted %d vectors", deleted)
	}

	if err := e.syncStore.Delete(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete sync state: %w", err)
	}

	if err := e.docStore.Delete(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Deleted %s (%d vectors)", documentID, deleted)
	return &domain.DeleteResult{
		DocumentID:     documentID,
		VectorsDeleted: deleted,
	}, nil
}

// Status returns the sync state for a document. Content edited since the
// last successful sync reports as stale.
func (e *SyncEngine) Status(ctx context.Context, documentID string) (*domain.SyncState, error) {
	state, err := e.syncStore.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.SyncState{
			DocumentID: documentID,
			Phase:      domain.SyncPhaseUnsynced,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	if state.Synced {
		doc, err := e.docStore.Get(ctx, documentID)
		if err == nil && state.Stale(doc.Content) {
			state.Phase = domain.SyncPhaseStale
		}
	}

	return state, nil
}

// failSync records a failed attempt. The prior vector ids and fingerprint
// survive so the last-known-good version stays searchable; retries are
// caller-driven on the next trigger.
func (e *SyncEngine) failSync(ctx context.Context, prior domain.SyncState, cause error) error {
	logger.Warn("Sync failed for %s: %v", prior.DocumentID, cause)

	failed := prior
	failed.Phase = domain.SyncPhaseFailed
	failed.Synced = false
	failed.SyncError = cause.Error()
	if err := e.syncStore.Save(ctx, failed); err != nil {
		return errors.Join(cause, fmt.Errorf("save failed sync state: %w", err))
	}
	return cause
}

// lockDocument acquires the advisory lock for a document and returns the
// release function. Held for the full duration of a sync or delete.
func (e *SyncEngine) lockDocument(documentID string) func() {
	e.mu.Lock()
	m, ok := e.locks[documentID]
	if !ok {
		m = &sync.Mutex{}
		e.locks[documentID] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}
