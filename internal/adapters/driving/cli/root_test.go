package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/kbsync-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// mockSyncEngine implements driving.SyncEngine for testing.
type mockSyncEngine struct {
	syncResult   *domain.SyncResult
	syncErr      error
	syncAllErr   error
	deleteResult *domain.DeleteResult
	deleteErr    error
	state        *domain.SyncState
	statusErr    error
}

func (m *mockSyncEngine) SyncDocument(_ context.Context, documentID string) (*domain.SyncResult, error) {
	if m.syncErr != nil {
		return nil, m.syncErr
	}
	if m.syncResult != nil {
		return m.syncResult, nil
	}
	return &domain.SyncResult{DocumentID: documentID, ChunkCount: 3}, nil
}

func (m *mockSyncEngine) SyncAll(_ context.Context) error {
	return m.syncAllErr
}

func (m *mockSyncEngine) DeleteDocument(_ context.Context, documentID string) (*domain.DeleteResult, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	if m.deleteResult != nil {
		return m.deleteResult, nil
	}
	return &domain.DeleteResult{DocumentID: documentID, VectorsDeleted: 2}, nil
}

func (m *mockSyncEngine) Status(_ context.Context, documentID string) (*domain.SyncState, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.state != nil {
		return m.state, nil
	}
	return &domain.SyncState{DocumentID: documentID, Phase: domain.SyncPhaseUnsynced}, nil
}

// mockRetriever implements driving.Retriever for testing.
type mockRetriever struct {
	results     []domain.RetrievedChunk
	err         error
	lastQuery   string
	lastOptions domain.RetrieveOptions
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, _ []domain.ConversationTurn, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error) {
	m.lastQuery = query
	m.lastOptions = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// setupTestServices injects mock services and returns a cleanup func.
func setupTestServices() func() {
	oldSync := syncEngine
	oldRetriever := retriever
	oldDocs := documentStore

	syncEngine = &mockSyncEngine{}
	retriever = &mockRetriever{
		results: []domain.RetrievedChunk{
			{
				VectorID:   "vec-1",
				DocumentID: "doc-1",
				Content:    "remote work is allowed two days a week",
				Title:      "Remote Work Policy",
				Category:   "hr",
				Score:      0.91,
			},
		},
	}
	documentStore = memory.NewDocumentStore()

	return func() {
		syncEngine = oldSync
		retriever = oldRetriever
		documentStore = oldDocs
	}
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "kbsync", rootCmd.Use)
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	assert.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_HasExpectedCommands(t *testing.T) {
	commands := rootCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.Contains(t, names, "document")
	assert.Contains(t, names, "sync")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "query")
	assert.Contains(t, names, "chat")
	assert.Contains(t, names, "version")
}

func TestSnippet_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "short text", snippet("short text"))
}

func TestSnippet_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\t c"))
}

func TestSnippet_TruncatesLongContent(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "word "
	}

	got := snippet(long)

	assert.LessOrEqual(t, len(got), 163)
	assert.Contains(t, got, "...")
}

func syncStateFixture(phase domain.SyncPhase) *domain.SyncState {
	return &domain.SyncState{
		DocumentID:         "doc-1",
		Phase:              phase,
		Synced:             phase == domain.SyncPhaseSynced,
		VectorIDs:          []string{"v1", "v2"},
		ContentFingerprint: "abc",
		LastSyncedAt:       time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		SyncError:          "",
	}
}

var errMockFailure = errors.New("mock failure")
