package domain

// Conversation roles.
const (
	// RoleUser marks a turn written by the end user.
	RoleUser = "user"

	// RoleAssistant marks a turn written by the assistant.
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of a chat conversation, supplied by the
// caller per request. This core does not persist conversations.
type ConversationTurn struct {
	// Role is RoleUser or RoleAssistant.
	Role string

	// Content is the message text.
	Content string
}

// PriorUserTurns returns the content of user turns before the latest one,
// in order, skipping turns whose content equals latest. These are the
// queries the deterministic rewrite fallback appends for context.
func PriorUserTurns(conversation []ConversationTurn, latest string) []string {
	var prior []string
	for _, turn := range conversation {
		if turn.Role != RoleUser {
			continue
		}
		if turn.Content == "" || turn.Content == latest {
			continue
		}
		prior = append(prior, turn.Content)
	}
	return prior
}
