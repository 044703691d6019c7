package db

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/moltbot/moltmem/internal/models"
)

// vectorParam converts a float slice to a nullable pgvector parameter.
func vectorParam(v []float32) any {
	if v == nil {
		return nil
	}
	return pgvector.NewVector(v)
}

// InsertMessage persists a message row. The embedding column is written as
// NULL; UpdateMessageEmbedding fills it in later if a vector was produced.
func (c *Client) InsertMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, agent_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`, m.ID, m.ConversationID, m.Role, m.Content, m.AgentID, metadata, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", translateError(err))
	}
	return nil
}

// UpdateMessageEmbedding attaches an embedding to an existing message.
// Updating a row that no longer exists is not an error.
func (c *Client) UpdateMessageEmbedding(ctx context.Context, id string, embedding []float32) error {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	_, err := c.pool.Exec(ctx,
		`UPDATE messages SET embedding = $2 WHERE id = $1`,
		id, vectorParam(embedding),
	)
	if err != nil {
		return fmt.Errorf("update message embedding: %w", err)
	}
	return nil
}

// AppendAudit writes one append-only audit log row.
func (c *Client) AppendAudit(ctx context.Context, e *models.AuditLogEntry) error {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := c.pool.Exec(ctx, `
		INSERT INTO audit_log (action_type, action_detail, user_id, conversation_id, success, metadata, created_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
	`, e.ActionType, e.ActionDetail, e.UserID, e.ConversationID, e.Success, metadata, e.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// SearchMessages runs portuguese full-text search over message content,
// most recent first. A non-nil userID scopes results to that user's
// conversations via the ownership join.
func (c *Client) SearchMessages(ctx context.Context, query string, limit int, userID *string) ([]models.Message, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	userClause := ""
	args := []any{query, limit}
	if userID != nil {
		userClause = "AND conv.user_id = $3"
		args = append(args, *userID)
	}

	sql := fmt.Sprintf(`
		SELECT m.id, m.conversation_id, m.role, m.content, COALESCE(m.agent_id, ''), m.metadata, m.created_at
		FROM messages m
		LEFT JOIN conversations conv ON conv.id = m.conversation_id
		WHERE to_tsvector('portuguese', m.content) @@ plainto_tsquery('portuguese', $1)
		%s
		ORDER BY m.created_at DESC
		LIMIT $2
	`, userClause)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.AgentID, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search messages rows: %w", err)
	}
	return messages, nil
}

// VectorSearchMessages runs cosine similarity search against stored message
// embeddings: similarity = 1 - (embedding <=> query). Rows without an
// embedding are excluded, results below the threshold are filtered out, and
// ordering is ascending distance (descending similarity).
func (c *Client) VectorSearchMessages(ctx context.Context, embedding []float32, limit int, threshold float64, userID *string) ([]models.ScoredMessage, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	vec := pgvector.NewVector(embedding)
	userClause := ""
	args := []any{vec, threshold, limit}
	if userID != nil {
		userClause = "AND conv.user_id = $4"
		args = append(args, *userID)
	}

	sql := fmt.Sprintf(`
		SELECT m.id, m.conversation_id, m.role, m.content, COALESCE(m.agent_id, ''), m.metadata, m.created_at,
		       1 - (m.embedding <=> $1) AS similarity
		FROM messages m
		LEFT JOIN conversations conv ON conv.id = m.conversation_id
		WHERE m.embedding IS NOT NULL
		  AND 1 - (m.embedding <=> $1) > $2
		%s
		ORDER BY m.embedding <=> $1
		LIMIT $3
	`, userClause)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search messages: %w", err)
	}
	defer rows.Close()

	hits := make([]models.ScoredMessage, 0, limit)
	for rows.Next() {
		var h models.ScoredMessage
		if err := rows.Scan(&h.ID, &h.ConversationID, &h.Role, &h.Content, &h.AgentID, &h.Metadata, &h.CreatedAt, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scan scored message: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search rows: %w", err)
	}
	return hits, nil
}
