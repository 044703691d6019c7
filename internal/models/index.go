package models

import "time"

// Importance bounds for memory index entries.
const (
	MinImportance     = 1
	MaxImportance     = 10
	DefaultImportance = 5
)

// MemoryIndexEntry is an explicitly saved memory. Entries are only created
// through the save operation and never auto-expired.
type MemoryIndexEntry struct {
	ID         string    `json:"id"`
	KeyType    string    `json:"key_type"`
	KeyName    string    `json:"key_name"`
	Summary    string    `json:"summary"`
	Importance int       `json:"importance"`
	Tags       []string  `json:"tags,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
