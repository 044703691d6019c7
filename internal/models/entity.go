package models

import "time"

// Entity is a named node in the knowledge graph. Identity is the name
// (case-sensitive); upserts never change it.
type Entity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Relationship is a directed, typed edge between two entities. The triple
// (from, to, type) is unique; re-asserting it updates the strength.
type Relationship struct {
	ID         string    `json:"id"`
	FromEntity string    `json:"from_entity"`
	ToEntity   string    `json:"to_entity"`
	Type       string    `json:"type"`
	Strength   float64   `json:"strength"`
	CreatedAt  time.Time `json:"created_at"`
}

// EntityRelations holds both edge directions for one entity.
type EntityRelations struct {
	Entity   *Entity        `json:"entity"`
	Outgoing []Relationship `json:"outgoing"`
	Incoming []Relationship `json:"incoming"`
}

// ConnectionPath is the result of a breadth-first connection search.
// Path holds entity names from source to target inclusive.
type ConnectionPath struct {
	Found bool     `json:"found"`
	Path  []string `json:"path,omitempty"`
}
