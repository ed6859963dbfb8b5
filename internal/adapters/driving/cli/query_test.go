package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// resetQueryFlags clears flag values and their changed state between tests.
func resetQueryFlags() {
	queryTopK = 0
	queryThreshold = 0
	queryCategory = ""
	queryJSON = false
	for _, name := range []string{"top-k", "threshold", "category", "json"} {
		queryCmd.Flags().Lookup(name).Changed = false
	}
}

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [text]", queryCmd.Use)
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_HasTopKFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
}

func TestQueryCmd_ExecutesAndPrintsResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "remote work policy"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Results:")
	assert.Contains(t, buf.String(), "Remote Work Policy")
	assert.Contains(t, buf.String(), "0.910")
	assert.Contains(t, buf.String(), "Category: hr")
}

func TestQueryCmd_PassesOptionsThrough(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockRetriever{}
	retriever = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "-n", "7", "--threshold", "0.42", "-c", "hr", "vacation"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetQueryFlags()
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "vacation", mock.lastQuery)
	assert.Equal(t, 7, mock.lastOptions.TopK)
	assert.InDelta(t, 0.42, mock.lastOptions.RelevanceThreshold, 1e-9)
	assert.Equal(t, "hr", mock.lastOptions.Category)
}

func TestQueryCmd_UnsetFlagsUseConfiguredDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockRetriever{}
	retriever = mock
	oldDefaults := retrievalDefaults
	retrievalDefaults = domain.RetrievalSettings{TopK: 5, RelevanceThreshold: 0.3}
	defer func() {
		retrievalDefaults = oldDefaults
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "vacation"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetQueryFlags()
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, 5, mock.lastOptions.TopK)
	assert.InDelta(t, 0.3, mock.lastOptions.RelevanceThreshold, 1e-9)
}

func TestQueryCmd_ExplicitZeroThresholdIsHonoured(t *testing.T) {
	// Under a distance-bound collection a threshold of 0 is a real cutoff,
	// not "unset": it must not fall back to the configured default.
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockRetriever{}
	retriever = mock
	oldDefaults := retrievalDefaults
	retrievalDefaults = domain.RetrievalSettings{TopK: 5, RelevanceThreshold: 0.3}
	defer func() {
		retrievalDefaults = oldDefaults
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "--threshold", "0", "vacation"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetQueryFlags()
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.InDelta(t, 0.0, mock.lastOptions.RelevanceThreshold, 1e-9)
}

func TestQueryCmd_NoResults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retriever = &mockRetriever{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "nothing matches this"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestQueryCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "--json", "remote work"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryJSON = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"DocumentID\"")
	assert.Contains(t, buf.String(), "\"Score\"")
	assert.Contains(t, buf.String(), "\"Remote Work Policy\"")
}

func TestQueryCmd_ServiceNotConfigured(t *testing.T) {
	oldRetriever := retriever
	retriever = nil
	defer func() {
		retriever = oldRetriever
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query", "test"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval service not configured")
}

func TestQueryCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retriever = &mockRetriever{err: errMockFailure}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query", "test"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestChatCmd_QuitsOnEmptyLine(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("\n"))
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Interactive retrieval.")
}

func TestChatCmd_RetrievesPerTurn(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockRetriever{
		results: []domain.RetrievedChunk{
			{DocumentID: "doc-1", Title: "Handbook", Content: "answer text", Score: 0.8},
		},
	}
	retriever = mock

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("what is the policy?\n\n"))
	rootCmd.SetArgs([]string{"chat"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "what is the policy?", mock.lastQuery)
	assert.Contains(t, buf.String(), "Handbook")
}
