package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moltbot/moltmem/internal/models"
)

// SaveMessageParams carries the caller-supplied fields of a message save.
type SaveMessageParams struct {
	UserID   string
	Channel  string
	AgentID  string
	UserName *string
	Role     string
	Content  string
	Metadata map[string]any
}

// SaveMessage resolves the active conversation for the user/channel pair,
// persists the message, and schedules its embedding as a detached
// continuation. The returned bool reports whether the message made it to
// durable storage; embedding failures never turn it false.
func (s *Service) SaveMessage(ctx context.Context, p SaveMessageParams) (*models.Message, bool, error) {
	if p.UserID == "" || p.Content == "" {
		return nil, false, fmt.Errorf("user id and content are required")
	}
	if !models.ValidRole(p.Role) {
		return nil, false, fmt.Errorf("invalid role %q", p.Role)
	}

	conv, err := s.store.GetOrCreateConversation(ctx, p.UserID, p.Channel, p.AgentID, p.UserName)
	var convID *string
	if err != nil {
		// A message with no conversation home is still worth keeping.
		s.logger.Warn("conversation resolution failed, saving orphan message",
			"user_id", p.UserID, "error", err)
	} else {
		convID = &conv.ID
	}

	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		AgentID:        p.AgentID,
		Role:           p.Role,
		Content:        p.Content,
		Metadata:       p.Metadata,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.store.InsertMessage(ctx, msg); err != nil {
		s.audit(ctx, "save_message", p.UserID, convID, false, map[string]any{
			"channel": p.Channel,
			"error":   err.Error(),
		})
		return nil, false, fmt.Errorf("insert message: %w", err)
	}
	s.audit(ctx, "save_message", p.UserID, convID, true, map[string]any{
		"channel": p.Channel,
		"role":    p.Role,
	})

	s.scheduleMessageEmbedding(ctx, msg.ID, p.Content)
	return msg, true, nil
}

// scheduleMessageEmbedding computes the vector off the request path and
// patches the stored row once ready. The update outlives request
// cancellation but is joined by Wait on shutdown.
func (s *Service) scheduleMessageEmbedding(ctx context.Context, messageID, content string) {
	if s.embedder == nil {
		return
	}
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		vec := s.embedOrNil(bgCtx, content)
		if vec == nil {
			return
		}
		if err := s.store.UpdateMessageEmbedding(bgCtx, messageID, vec); err != nil {
			s.logger.Warn("message embedding update failed",
				"message_id", messageID, "error", err)
			return
		}
		s.logger.Debug("message embedding stored", "message_id", messageID)
	}()
}

// audit records the outcome of a save operation. Audit writes are
// best-effort: a failure is logged, never propagated.
func (s *Service) audit(ctx context.Context, action, userID string, convID *string, success bool, metadata map[string]any) {
	entry := &models.AuditLogEntry{
		ActionType:     action,
		UserID:         userID,
		ConversationID: convID,
		Success:        success,
		Metadata:       metadata,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", "action", action, "error", err)
	}
}
