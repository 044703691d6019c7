package models

import "time"

// AuditLogEntry records one memory operation. The audit log is append-only.
type AuditLogEntry struct {
	ActionType     string         `json:"action_type"`
	ActionDetail   string         `json:"action_detail,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	ConversationID *string        `json:"conversation_id,omitempty"`
	Success        bool           `json:"success"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
