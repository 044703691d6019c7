package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moltbot/moltmem/internal/models"
)

// GetOrCreateConversation finds the most recent conversation for the
// (user, channel, agent) triple whose last message is inside the 24h window
// and bumps it, or inserts a fresh one. The find-or-create runs in one
// transaction with the candidate row locked, so two concurrent saves for the
// same triple cannot both bump-and-miss. Two concurrent first saves can
// still each insert; the window predicate makes the newer row win from then
// on, which is the documented residual gap.
//
// The 24h window is a design constant, not configurable per call.
func (c *Client) GetOrCreateConversation(ctx context.Context, userID, channel, agentID string, userName *string) (*models.Conversation, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin conversation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var conv models.Conversation
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, user_name, channel, agent_id, started_at, last_message_at, message_count
		FROM conversations
		WHERE user_id = $1 AND channel = $2 AND agent_id = $3
		  AND last_message_at > now() - interval '24 hours'
		ORDER BY last_message_at DESC
		LIMIT 1
		FOR UPDATE
	`, userID, channel, agentID).Scan(
		&conv.ID, &conv.UserID, &conv.UserName, &conv.Channel, &conv.AgentID,
		&conv.StartedAt, &conv.LastMessageAt, &conv.MessageCount,
	)

	switch {
	case err == nil:
		err = tx.QueryRow(ctx, `
			UPDATE conversations
			SET last_message_at = now(), message_count = message_count + 1
			WHERE id = $1
			RETURNING last_message_at, message_count
		`, conv.ID).Scan(&conv.LastMessageAt, &conv.MessageCount)
		if err != nil {
			return nil, fmt.Errorf("bump conversation: %w", err)
		}

	case errors.Is(err, pgx.ErrNoRows):
		conv = models.Conversation{
			ID:           uuid.NewString(),
			UserID:       userID,
			UserName:     userName,
			Channel:      channel,
			AgentID:      agentID,
			MessageCount: 1,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO conversations (id, user_id, user_name, channel, agent_id, message_count)
			VALUES ($1, $2, $3, $4, $5, 1)
			RETURNING started_at, last_message_at
		`, conv.ID, userID, userName, channel, agentID).Scan(&conv.StartedAt, &conv.LastMessageAt)
		if err != nil {
			return nil, fmt.Errorf("insert conversation: %w", translateError(err))
		}

	default:
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit conversation tx: %w", err)
	}
	return &conv, nil
}

// GetConversation retrieves a conversation by ID. Returns ErrNotFound when
// it does not exist.
func (c *Client) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	var conv models.Conversation
	err := c.pool.QueryRow(ctx, `
		SELECT id, user_id, user_name, channel, agent_id, started_at, last_message_at, message_count
		FROM conversations WHERE id = $1
	`, id).Scan(
		&conv.ID, &conv.UserID, &conv.UserName, &conv.Channel, &conv.AgentID,
		&conv.StartedAt, &conv.LastMessageAt, &conv.MessageCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}
