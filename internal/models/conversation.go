// Package models defines the row types persisted by the memory subsystem.
package models

import "time"

// Conversation groups messages of one (user, channel, agent) triple into a
// time-windowed session. A conversation is reused while its last message is
// younger than the 24h window; it is never deleted by this subsystem.
type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      *string   `json:"user_name,omitempty"`
	Channel       string    `json:"channel"`
	AgentID       string    `json:"agent_id"`
	StartedAt     time.Time `json:"started_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}
