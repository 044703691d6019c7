package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moltbot/moltmem/internal/models"
)

// ErrEntityNotFound is returned by graph operations that require their
// endpoints to already exist.
var ErrEntityNotFound = errors.New("entity not found")

// DefaultFactConfidence is assumed when a fact arrives without one.
const DefaultFactConfidence = 0.9

// TypeClassifier infers an entity type from its name when a fact mentions
// an entity that does not exist yet.
type TypeClassifier func(name string) string

// DefaultTypeClassifier treats all-uppercase names as organizations
// (acronyms like "IBM", "UFRJ") and everything else as persons.
func DefaultTypeClassifier(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" && trimmed == strings.ToUpper(trimmed) && strings.ContainsFunc(trimmed, isLetter) {
		return "organization"
	}
	return "person"
}

func isLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// FindEntity looks an entity up by exact name. Absence is not an error;
// the entity pointer is nil.
func (s *Service) FindEntity(ctx context.Context, name string) (*models.Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	return s.store.FindEntityByName(ctx, name)
}

// UpsertEntity creates or refreshes an entity node. The embedding covers
// name and description together so similar nodes cluster by what they are,
// not only what they are called.
func (s *Service) UpsertEntity(ctx context.Context, entityType, name string, description *string) (*models.Entity, bool, error) {
	if entityType == "" || name == "" {
		return nil, false, fmt.Errorf("entity type and name are required")
	}
	text := name
	if description != nil && *description != "" {
		text = name + ": " + *description
	}
	vec := s.embedOrNil(ctx, text)
	return s.store.UpsertEntity(ctx, entityType, name, description, vec)
}

// CreateRelationship asserts a typed edge between two existing entities.
// Missing endpoints are the caller's problem to create first.
func (s *Service) CreateRelationship(ctx context.Context, fromName, toName, relType string, strength float64) (*models.Relationship, error) {
	if fromName == "" || toName == "" || relType == "" {
		return nil, fmt.Errorf("from, to and relationship type are required")
	}
	if strength <= 0 {
		strength = 0.5
	} else if strength > 1 {
		strength = 1
	}

	from, err := s.store.FindEntityByName(ctx, fromName)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%q: %w", fromName, ErrEntityNotFound)
	}
	to, err := s.store.FindEntityByName(ctx, toName)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%q: %w", toName, ErrEntityNotFound)
	}

	return s.store.UpsertRelationship(ctx, from.ID, to.ID, relType, strength)
}

// EntityRelations returns an entity together with both edge directions.
func (s *Service) EntityRelations(ctx context.Context, name string) (*models.EntityRelations, error) {
	entity, err := s.FindEntity(ctx, name)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrEntityNotFound)
	}
	outgoing, incoming, err := s.store.EntityRelationships(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	return &models.EntityRelations{Entity: entity, Outgoing: outgoing, Incoming: incoming}, nil
}

// AddFact records a time-bound fact about an entity, creating the entity on
// the fly when needed. Open facts of the same type are closed first so at
// most one current fact per (entity, type) exists.
func (s *Service) AddFact(ctx context.Context, entityName, factType, content string, confidence float64) (*models.Fact, error) {
	if entityName == "" || factType == "" || content == "" {
		return nil, fmt.Errorf("entity name, fact type and content are required")
	}
	if confidence <= 0 || confidence > 1 {
		confidence = DefaultFactConfidence
	}

	entity, err := s.store.FindEntityByName(ctx, entityName)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		entity, _, err = s.UpsertEntity(ctx, s.Classifier(entityName), entityName, nil)
		if err != nil {
			return nil, fmt.Errorf("create entity for fact: %w", err)
		}
	}

	now := time.Now().UTC()
	closed, err := s.store.CloseOpenFacts(ctx, entity.ID, factType, now)
	if err != nil {
		return nil, fmt.Errorf("close superseded facts: %w", err)
	}
	if closed > 0 {
		s.logger.Info("facts superseded",
			"entity", entityName, "fact_type", factType, "count", closed)
	}

	fact := &models.Fact{
		ID:         uuid.NewString(),
		EntityID:   entity.ID,
		Type:       factType,
		Content:    content,
		Confidence: confidence,
		Embedding:  s.embedOrNil(ctx, content),
		ValidFrom:  now,
	}
	if err := s.store.InsertFact(ctx, fact); err != nil {
		return nil, fmt.Errorf("insert fact: %w", err)
	}
	return fact, nil
}

// FindConnectionPath searches for the shortest chain of relationships
// between two entities, treating edges as undirected. The search stops at
// maxDepth hops; a not-found result is a normal outcome, not an error.
func (s *Service) FindConnectionPath(ctx context.Context, fromName, toName string, maxDepth int) (*models.ConnectionPath, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}

	from, err := s.store.FindEntityByName(ctx, fromName)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%q: %w", fromName, ErrEntityNotFound)
	}
	to, err := s.store.FindEntityByName(ctx, toName)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%q: %w", toName, ErrEntityNotFound)
	}
	if from.ID == to.ID {
		return &models.ConnectionPath{Found: true, Path: []string{from.Name}}, nil
	}

	parent := map[string]string{from.ID: ""}
	frontier := []string{from.ID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			edges, err := s.store.NeighborEdges(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				other := e.ToEntity
				if other == id {
					other = e.FromEntity
				}
				if _, seen := parent[other]; seen {
					continue
				}
				parent[other] = id
				if other == to.ID {
					return s.buildPath(ctx, parent, from.ID, to.ID)
				}
				next = append(next, other)
			}
		}
		frontier = next
	}
	return &models.ConnectionPath{Found: false}, nil
}

func (s *Service) buildPath(ctx context.Context, parent map[string]string, fromID, toID string) (*models.ConnectionPath, error) {
	var ids []string
	for id := toID; id != ""; id = parent[id] {
		ids = append(ids, id)
	}
	// Reverse into source-to-target order.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	names, err := s.store.EntityNamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	path := make([]string, len(ids))
	for i, id := range ids {
		path[i] = names[id]
	}
	return &models.ConnectionPath{Found: true, Path: path}, nil
}
