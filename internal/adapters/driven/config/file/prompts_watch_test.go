package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
)

func TestPromptStore_WatchReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Prime the cache with the default content.
	original, err := store.Load(driven.PromptRephraseSystem)
	require.NoError(t, err)

	stop, err := store.Watch()
	require.NoError(t, err)
	defer stop()

	path := filepath.Join(dir, driven.PromptRephraseSystem+".txt")
	require.NoError(t, os.WriteFile(path, []byte("custom system prompt"), 0600))

	// The reload is asynchronous; poll until the cache is refreshed.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		loaded, err := store.Load(driven.PromptRephraseSystem)
		require.NoError(t, err)
		if loaded == "custom system prompt" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	loaded, err := store.Load(driven.PromptRephraseSystem)
	require.NoError(t, err)
	assert.Equal(t, "custom system prompt", loaded, "watcher should have evicted %q", original)
}

func TestPromptStore_WatchIgnoresNonPromptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptRephraseSystem)
	require.NoError(t, err)

	stop, err := store.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("scratch"), 0600))

	// Give the watcher a moment; the cache must stay warm.
	time.Sleep(50 * time.Millisecond)
	loaded, err := store.Load(driven.PromptRephraseSystem)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptRephraseSystem], loaded)
}

func TestPromptStore_WatchStopReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	stop, err := store.Watch()
	require.NoError(t, err)

	stop()
}
