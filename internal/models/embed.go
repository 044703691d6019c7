package models

// EmbedClass names a row class the embedding backfill can process.
type EmbedClass string

const (
	EmbedClassEntities EmbedClass = "entities"
	EmbedClassFacts    EmbedClass = "facts"
	EmbedClassMessages EmbedClass = "messages"
)

// AllEmbedClasses lists the classes in backfill processing order.
func AllEmbedClasses() []EmbedClass {
	return []EmbedClass{EmbedClassEntities, EmbedClassFacts, EmbedClassMessages}
}

// EmbedCandidate is one row missing its embedding: the row id plus the text
// the embedding should be derived from.
type EmbedCandidate struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
