package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moltbot/moltmem/internal/models"
)

// SaveIndexEntry stores an explicit memory in the index. Importance is
// clamped into its bounds; zero means "use the default".
func (s *Service) SaveIndexEntry(ctx context.Context, keyType, keyName, summary string, importance int, tags []string) (*models.MemoryIndexEntry, error) {
	if keyType == "" || keyName == "" || summary == "" {
		return nil, fmt.Errorf("key type, key name and summary are required")
	}
	switch {
	case importance == 0:
		importance = models.DefaultImportance
	case importance < models.MinImportance:
		importance = models.MinImportance
	case importance > models.MaxImportance:
		importance = models.MaxImportance
	}

	entry := &models.MemoryIndexEntry{
		ID:         uuid.NewString(),
		KeyType:    keyType,
		KeyName:    keyName,
		Summary:    summary,
		Importance: importance,
		Tags:       tags,
		Embedding:  s.embedOrNil(ctx, summary),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertIndexEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert index entry: %w", err)
	}
	return entry, nil
}

// SearchIndex runs a full-text search over index summaries, ranked by
// importance first.
func (s *Service) SearchIndex(ctx context.Context, query string, limit int) ([]models.MemoryIndexEntry, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return s.store.SearchIndexEntries(ctx, query, limit)
}
