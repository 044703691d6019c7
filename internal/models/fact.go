package models

import "time"

// Fact is a time-bound assertion about an entity. ValidTo is nil while the
// fact is current; superseding a fact closes the old one instead of deleting
// it, so the fact log stays append-only.
type Fact struct {
	ID         string     `json:"id"`
	EntityID   string     `json:"entity_id"`
	Type       string     `json:"type"`
	Content    string     `json:"content"`
	Confidence float64    `json:"confidence"`
	Embedding  []float32  `json:"embedding,omitempty"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to,omitempty"`
}

// FactWithEntity pairs a fact with its subject's name, as needed by the
// relationship re-derivation job.
type FactWithEntity struct {
	Fact
	EntityName string `json:"entity_name"`
}
