package db

import (
	"context"
	"fmt"

	"github.com/moltbot/moltmem/internal/models"
)

// embedSources maps each backfillable class to its table and the SQL
// expression producing the text the embedding is derived from. The map
// doubles as the whitelist: class names never reach SQL unchecked.
var embedSources = map[models.EmbedClass]struct {
	table string
	text  string
}{
	models.EmbedClassEntities: {"entities", `name || COALESCE(': ' || description, '')`},
	models.EmbedClassFacts:    {"facts", "content"},
	models.EmbedClassMessages: {"messages", "content"},
}

// EmbeddingCounts reports how many rows of a class have and lack embeddings.
type EmbeddingCounts struct {
	Total   int64
	Missing int64
}

// CountEmbeddings returns the total/missing embedding counts for a class.
func (c *Client) CountEmbeddings(ctx context.Context, class models.EmbedClass) (EmbeddingCounts, error) {
	src, ok := embedSources[class]
	if !ok {
		return EmbeddingCounts{}, fmt.Errorf("unknown embed class %q", class)
	}
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	var counts EmbeddingCounts
	sql := fmt.Sprintf(
		`SELECT count(*), count(*) FILTER (WHERE embedding IS NULL) FROM %s`, src.table)
	if err := c.pool.QueryRow(ctx, sql).Scan(&counts.Total, &counts.Missing); err != nil {
		return EmbeddingCounts{}, fmt.Errorf("count embeddings %s: %w", class, err)
	}
	return counts, nil
}

// MissingEmbeddingRows scans a class for rows without an embedding, oldest
// first. limit <= 0 means no cap. The WHERE embedding IS NULL predicate is
// what makes re-running the backfill idempotent.
func (c *Client) MissingEmbeddingRows(ctx context.Context, class models.EmbedClass, limit int) ([]models.EmbedCandidate, error) {
	src, ok := embedSources[class]
	if !ok {
		return nil, fmt.Errorf("unknown embed class %q", class)
	}
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	sql := fmt.Sprintf(`SELECT id, %s FROM %s WHERE embedding IS NULL ORDER BY created_at`, src.text, src.table)
	if class == models.EmbedClassFacts {
		// facts carry valid_from instead of created_at
		sql = fmt.Sprintf(`SELECT id, %s FROM %s WHERE embedding IS NULL ORDER BY valid_from`, src.text, src.table)
	}
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("scan missing embeddings %s: %w", class, err)
	}
	defer rows.Close()

	candidates := []models.EmbedCandidate{}
	for rows.Next() {
		var cand models.EmbedCandidate
		if err := rows.Scan(&cand.ID, &cand.Content); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	return candidates, rows.Err()
}

// SetEmbedding writes a backfilled embedding for one row of a class.
func (c *Client) SetEmbedding(ctx context.Context, class models.EmbedClass, id string, embedding []float32) error {
	src, ok := embedSources[class]
	if !ok {
		return fmt.Errorf("unknown embed class %q", class)
	}
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	sql := fmt.Sprintf(`UPDATE %s SET embedding = $2 WHERE id = $1`, src.table)
	if _, err := c.pool.Exec(ctx, sql, id, vectorParam(embedding)); err != nil {
		return fmt.Errorf("set embedding %s/%s: %w", class, id, err)
	}
	return nil
}
