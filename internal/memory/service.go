// Package memory implements the conversation-memory and knowledge-graph
// services: message persistence with asynchronous embedding enrichment,
// full-text and vector search, the entity/fact graph, and backfill jobs.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moltbot/moltmem/internal/db"
	"github.com/moltbot/moltmem/internal/embedding"
	"github.com/moltbot/moltmem/internal/models"
)

// Store is the persistence surface the memory services depend on.
// *db.Client is the production implementation; tests substitute an
// in-memory one.
type Store interface {
	GetOrCreateConversation(ctx context.Context, userID, channel, agentID string, userName *string) (*models.Conversation, error)

	InsertMessage(ctx context.Context, m *models.Message) error
	UpdateMessageEmbedding(ctx context.Context, id string, embedding []float32) error
	AppendAudit(ctx context.Context, e *models.AuditLogEntry) error

	SearchMessages(ctx context.Context, query string, limit int, userID *string) ([]models.Message, error)
	VectorSearchMessages(ctx context.Context, embedding []float32, limit int, threshold float64, userID *string) ([]models.ScoredMessage, error)

	FindEntityByName(ctx context.Context, name string) (*models.Entity, error)
	UpsertEntity(ctx context.Context, entityType, name string, description *string, embedding []float32) (*models.Entity, bool, error)
	UpsertRelationship(ctx context.Context, fromID, toID, relType string, strength float64) (*models.Relationship, error)
	EntityRelationships(ctx context.Context, entityID string) (outgoing, incoming []models.Relationship, err error)
	NeighborEdges(ctx context.Context, entityID string) ([]models.Relationship, error)
	EntityNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)

	CloseOpenFacts(ctx context.Context, entityID, factType string, at time.Time) (int64, error)
	InsertFact(ctx context.Context, f *models.Fact) error
	OpenFactsWithEntity(ctx context.Context, limit int) ([]models.FactWithEntity, error)

	InsertIndexEntry(ctx context.Context, e *models.MemoryIndexEntry) error
	SearchIndexEntries(ctx context.Context, query string, limit int) ([]models.MemoryIndexEntry, error)

	CountEmbeddings(ctx context.Context, class models.EmbedClass) (db.EmbeddingCounts, error)
	MissingEmbeddingRows(ctx context.Context, class models.EmbedClass, limit int) ([]models.EmbedCandidate, error)
	SetEmbedding(ctx context.Context, class models.EmbedClass, id string, embedding []float32) error
}

// Compile-time check that the pg client satisfies the Store surface.
var _ Store = (*db.Client)(nil)

// Service bundles the memory operations around a store and an optional
// embedding provider. A nil embedder means every operation runs degraded
// (no vectors), which is a supported permanent state.
type Service struct {
	store    Store
	embedder embedding.Embedder
	logger   *slog.Logger

	// Classifier infers a type for entities auto-created by AddFact.
	// Replaceable without touching the store contract.
	Classifier TypeClassifier

	bg sync.WaitGroup
}

// New creates a memory service.
func New(store Store, embedder embedding.Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		embedder:   embedder,
		logger:     logger,
		Classifier: DefaultTypeClassifier,
	}
}

// Wait blocks until all detached embedding updates have finished. Production
// callers never need it on the hot path; tests and shutdown use it as the
// deterministic join point for the fire-and-forget continuations.
func (s *Service) Wait() {
	s.bg.Wait()
}

// embedOrNil turns every embedding failure into a nil vector. Absence of an
// embedding is a documented degraded state, not an error: persistence and
// search carry on without it.
func (s *Service) embedOrNil(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		s.logger.Debug("embedding skipped, provider not configured")
		return nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding unavailable", "error", err)
		return nil
	}
	return vec
}
