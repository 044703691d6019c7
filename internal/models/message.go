package models

import "time"

// Message roles. Anything else is rejected before reaching the store.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole reports whether role is one of the accepted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant || role == RoleSystem
}

// Message is one persisted chat message. ConversationID is nil when the
// conversation store was unreachable at save time (orphan message).
// Embedding is attached asynchronously after insert; a permanently absent
// embedding is a valid state.
type Message struct {
	ID             string         `json:"id"`
	ConversationID *string        `json:"conversation_id,omitempty"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	AgentID        string         `json:"agent_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Embedding      []float32      `json:"embedding,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ScoredMessage is a search hit with its cosine similarity. Similarity is 0
// for every hit when the search degraded to full-text (no query embedding),
// so callers can tell fallback results from genuine vector hits.
type ScoredMessage struct {
	Message
	Similarity float64 `json:"similarity"`
}
