package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

func TestDocumentStore_SaveGetUpdate(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.SourceDocument{ID: "doc1", Title: "First", Content: "hello", Category: "hr"}
	require.NoError(t, store.Save(ctx, doc))

	got, err := store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	// Mutating the returned copy must not affect the stored document.
	got.Title = "mutated"
	again, err := store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "First", again.Title)

	doc.Title = "Updated"
	require.NoError(t, store.Save(ctx, doc))
	got, err = store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	_, err := NewDocumentStore().Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.SourceDocument{ID: "doc1"}))

	require.NoError(t, store.Delete(ctx, "doc1"))
	_, err := store.Get(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting twice is not an error.
	assert.NoError(t, store.Delete(ctx, "doc1"))
}

func TestDocumentStore_ListByCategory(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.SourceDocument{ID: "a", Category: "hr"}))
	require.NoError(t, store.Save(ctx, &domain.SourceDocument{ID: "b", Category: "engineering"}))
	require.NoError(t, store.Save(ctx, &domain.SourceDocument{ID: "c", Category: "hr"}))

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	hr, err := store.List(ctx, "hr")
	require.NoError(t, err)
	assert.Len(t, hr, 2)
	for _, doc := range hr {
		assert.Equal(t, "hr", doc.Category)
	}
}

func TestSyncStateStore_RoundTrip(t *testing.T) {
	store := NewSyncStateStore()
	ctx := context.Background()

	state := domain.SyncState{
		DocumentID:         "doc1",
		Phase:              domain.SyncPhaseSynced,
		Synced:             true,
		VectorIDs:          []string{"v1", "v2"},
		ContentFingerprint: domain.Fingerprint("hello"),
	}
	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, state.VectorIDs, got.VectorIDs)
	assert.Equal(t, domain.SyncPhaseSynced, got.Phase)
}

func TestSyncStateStore_GetMissing(t *testing.T) {
	_, err := NewSyncStateStore().Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncStateStore_Delete(t *testing.T) {
	store := NewSyncStateStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.SyncState{DocumentID: "doc1"}))

	require.NoError(t, store.Delete(ctx, "doc1"))
	_, err := store.Get(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
