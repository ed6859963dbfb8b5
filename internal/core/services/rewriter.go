package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/kbsync-cli/internal/core/domain"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync-cli/internal/logger"
)

// Ensure QueryRewriter implements the interface.
var _ driving.QueryRewriter = (*QueryRewriter)(nil)

// Rephrasing call parameters. Low temperature keeps rewrites consistent;
// the expected output is a single short query.
const (
	rephraseMaxTokens   = 150
	rephraseTemperature = 0.3

	// minRephraseLength rejects degenerate LLM output. A rewrite shorter
	// than this is worse than the original query.
	minRephraseLength = 10
)

// defaultRephrasePrompt is used when no PromptStore is configured.
// Expects %s (conversation history) and %s (latest query).
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRephrasePrompt = `Based on the following conversation context, please rephrase the user's latest query to be more complete, specific, and suitable for information retrieval. The rephrased query should:

1. Be a complete, well-formed question or statement
2. Include necessary context from the conversation
3. Be specific enough for effective search
4. Maintain the user's original intent
5. Be suitable for finding relevant information

Conversation Context:
%s

User's Latest Query: %s

Please provide ONLY the rephrased query, nothing else:`

// defaultRephraseSystemPrompt is used when no PromptStore is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRephraseSystemPrompt = `You are an expert at rephrasing user queries to make them more effective for information retrieval. You rephrase incomplete or lazy queries into complete, specific, and searchable questions while preserving the user's intent.`

// QueryRewriter rewrites elliptical follow-up queries into self-contained
// ones using conversation history.
//
// Rewriting never fails: when the LLM is unavailable or returns degenerate
// output, the rewriter falls back to the original query with a bracketed
// summary of prior user queries. The fallback is deterministic.
type QueryRewriter struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewQueryRewriter creates a query rewriter.
// Both parameters are optional: a nil llm disables LLM rephrasing and a
// nil prompts falls back to embedded prompt defaults.
func NewQueryRewriter(llm driven.LLMService, prompts driven.PromptStore) *QueryRewriter {
	return &QueryRewriter{
		llm:     llm,
		prompts: prompts,
	}
}

// Rewrite returns the effective query for retrieval.
func (r *QueryRewriter) Rewrite(ctx context.Context, latest string, conversation []domain.ConversationTurn) string {
	latest = strings.TrimSpace(latest)

	// A standalone query has no context to rewrite with, and rewriting
	// it risks degrading it.
	if len(conversation) <= 1 {
		logger.Debug("Rewrite skipped: first turn")
		return latest
	}

	if r.llm == nil {
		logger.Debug("Rewrite: LLM unavailable, using deterministic fallback")
		return r.fallbackQuery(latest, conversation)
	}

	rephrased, err := r.rephraseWithLLM(ctx, latest, conversation)
	if err != nil {
		logger.Warn("Rewrite: LLM rephrasing failed: %v (using fallback)", err)
		return r.fallbackQuery(latest, conversation)
	}

	logger.Info("Rewrite: %q -> %q", latest, rephrased)
	return rephrased
}

// rephraseWithLLM asks the LLM for a self-contained version of the query.
func (r *QueryRewriter) rephraseWithLLM(ctx context.Context, latest string, conversation []domain.ConversationTurn) (string, error) {
	history := formatConversation(conversation[:len(conversation)-1])

	prompt := fmt.Sprintf(r.loadPrompt(driven.PromptQueryRephrase, defaultRephrasePrompt), history, latest)
	system := r.loadPrompt(driven.PromptRephraseSystem, defaultRephraseSystemPrompt)

	out, err := r.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{
		MaxTokens:   rephraseMaxTokens,
		Temperature: rephraseTemperature,
	})
	if err != nil {
		return "", err
	}

	rephrased := strings.TrimSpace(out)
	if len(rephrased) <= minRephraseLength {
		return "", fmt.Errorf("insufficient rephrasing: %q", rephrased)
	}
	if strings.EqualFold(rephrased, latest) {
		return "", fmt.Errorf("rephrasing returned the original query")
	}

	return rephrased, nil
}

// fallbackQuery builds the deterministic context-aware query: the latest
// query followed by a bracketed summary of prior user queries, in order.
func (r *QueryRewriter) fallbackQuery(latest string, conversation []domain.ConversationTurn) string {
	prior := domain.PriorUserTurns(conversation, latest)
	if len(prior) == 0 {
		return latest
	}
	return fmt.Sprintf("%s. [%s]", latest, strings.Join(prior, " "))
}

// loadPrompt returns the named template from the prompt store, or the
// embedded default when no store is configured or loading fails.
func (r *QueryRewriter) loadPrompt(name, fallback string) string {
	if r.prompts == nil {
		return fallback
	}
	prompt, err := r.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// formatConversation renders turns as "Role: content" lines for the
// rephrasing prompt. Assistant turns provide context but are never quoted
// back into the rewritten query.
func formatConversation(turns []domain.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if turn.Role == "" || content == "" {
			continue
		}
		b.WriteString(strings.ToUpper(turn.Role[:1]) + turn.Role[1:])
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}
