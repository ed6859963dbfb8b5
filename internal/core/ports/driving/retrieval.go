package driving

import (
	"context"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
)

// Retriever serves conversation-aware vector retrieval.
type Retriever interface {
	// Retrieve rewrites the query using the conversation, searches the
	// vector index with the collection's bound metric, and returns
	// results best-first after threshold filtering. An empty result
	// list is a valid, non-error outcome.
	Retrieve(ctx context.Context, query string, conversation []domain.ConversationTurn, opts domain.RetrieveOptions) ([]domain.RetrievedChunk, error)
}

// QueryRewriter turns an elliptical follow-up query into a self-contained
// one using conversation history.
type QueryRewriter interface {
	// Rewrite returns the effective query for retrieval. It never fails:
	// rewriting errors are recovered locally via a deterministic fallback.
	Rewrite(ctx context.Context, latest string, conversation []domain.ConversationTurn) string
}
