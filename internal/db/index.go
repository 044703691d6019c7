package db

import (
	"context"
	"fmt"

	"github.com/moltbot/moltmem/internal/models"
)

// InsertIndexEntry persists an explicitly saved memory index entry.
func (c *Client) InsertIndexEntry(ctx context.Context, e *models.MemoryIndexEntry) error {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO memory_index (id, key_type, key_name, summary, importance, tags, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.KeyType, e.KeyName, e.Summary, e.Importance, tags, vectorParam(e.Embedding), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert index entry: %w", translateError(err))
	}
	return nil
}

// SearchIndexEntries runs portuguese full-text search over saved summaries,
// most important and most recent first.
func (c *Client) SearchIndexEntries(ctx context.Context, query string, limit int) ([]models.MemoryIndexEntry, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, `
		SELECT id, key_type, key_name, summary, importance, tags, created_at
		FROM memory_index
		WHERE to_tsvector('portuguese', summary) @@ plainto_tsquery('portuguese', $1)
		ORDER BY importance DESC, created_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search index entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.MemoryIndexEntry, 0, limit)
	for rows.Next() {
		var e models.MemoryIndexEntry
		if err := rows.Scan(&e.ID, &e.KeyType, &e.KeyName, &e.Summary, &e.Importance, &e.Tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan index entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
