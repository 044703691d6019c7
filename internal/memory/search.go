package memory

import (
	"context"
	"fmt"

	"github.com/moltbot/moltmem/internal/models"
)

const (
	// DefaultSearchLimit bounds result sets when the caller does not ask
	// for a specific size.
	DefaultSearchLimit = 10

	// DefaultSimilarityThreshold filters vector matches below a cosine
	// similarity most callers would consider noise.
	DefaultSimilarityThreshold = 0.7
)

// SearchMessages runs a Portuguese full-text search over stored messages,
// optionally scoped to a single user.
func (s *Service) SearchMessages(ctx context.Context, query string, limit int, userID *string) ([]models.Message, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return s.store.SearchMessages(ctx, query, limit, userID)
}

// VectorSearch embeds the query and ranks messages by cosine similarity.
// A negative threshold selects the default; zero keeps every match with
// positive similarity. When no embedding can be produced it degrades to
// full-text search, with every result carrying similarity zero so callers
// can tell the modes apart.
func (s *Service) VectorSearch(ctx context.Context, query string, limit int, threshold float64, userID *string) ([]models.ScoredMessage, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if threshold < 0 {
		threshold = DefaultSimilarityThreshold
	}

	vec := s.embedOrNil(ctx, query)
	if vec == nil {
		s.logger.Info("vector search degraded to full-text", "query_len", len(query))
		msgs, err := s.store.SearchMessages(ctx, query, limit, userID)
		if err != nil {
			return nil, err
		}
		scored := make([]models.ScoredMessage, len(msgs))
		for i, m := range msgs {
			scored[i] = models.ScoredMessage{Message: m}
		}
		return scored, nil
	}

	return s.store.VectorSearchMessages(ctx, vec, limit, threshold, userID)
}
