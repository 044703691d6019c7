package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moltbot/moltmem/internal/memory"
	"github.com/moltbot/moltmem/internal/models"
)

// SaveMemoryInput defines the input schema for the save_memory tool.
type SaveMemoryInput struct {
	UserID   string         `json:"user_id" jsonschema:"required,Platform user identifier"`
	Content  string         `json:"content" jsonschema:"required,Message text"`
	Role     string         `json:"role,omitempty" jsonschema:"Message role: user, assistant or system (default user)"`
	Channel  string         `json:"channel,omitempty" jsonschema:"Channel the message arrived on (whatsapp, telegram, ...)"`
	AgentID  string         `json:"agent_id,omitempty" jsonschema:"Agent that handled the message"`
	UserName string         `json:"user_name,omitempty" jsonschema:"Display name of the user"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Free-form message metadata"`
}

// SaveMemoryResult is the response from the save_memory tool.
type SaveMemoryResult struct {
	Saved          bool    `json:"saved"`
	MessageID      string  `json:"message_id,omitempty"`
	ConversationID *string `json:"conversation_id,omitempty"`
	Message        string  `json:"message"`
}

// NewSaveMemoryHandler creates the save_memory tool handler.
// Persists a chat message into its 24h conversation window and schedules
// embedding enrichment in the background.
func NewSaveMemoryHandler(deps *Dependencies) mcp.ToolHandlerFor[SaveMemoryInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SaveMemoryInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.UserID == "" {
			return ErrorResult("user_id não pode ser vazio", "Informe o identificador do usuário"), nil, nil
		}
		if input.Content == "" {
			return ErrorResult("content não pode ser vazio", "Informe o texto da mensagem"), nil, nil
		}
		role := input.Role
		if role == "" {
			role = models.RoleUser
		}
		if !models.ValidRole(role) {
			return ErrorResult("role deve ser user, assistant ou system", "Corrija o valor de role"), nil, nil
		}

		var userName *string
		if input.UserName != "" {
			userName = &input.UserName
		}

		msg, saved, err := deps.Memory.SaveMessage(ctx, memory.SaveMessageParams{
			UserID:   input.UserID,
			Channel:  input.Channel,
			AgentID:  input.AgentID,
			UserName: userName,
			Role:     role,
			Content:  input.Content,
			Metadata: input.Metadata,
		})
		if err != nil || !saved {
			deps.Logger.Error("save_memory failed", "user_id", input.UserID, "error", err)
			return ErrorResult("Falha ao salvar memória", "O banco de dados pode estar indisponível"), nil, nil
		}

		deps.Logger.Info("save_memory completed",
			"user_id", input.UserID, "message_id", msg.ID)
		return JSONResult(SaveMemoryResult{
			Saved:          true,
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			Message:        "Memória salva com sucesso",
		}), nil, nil
	}
}

// SaveNoteInput defines the input schema for the save_note tool.
type SaveNoteInput struct {
	KeyType    string   `json:"key_type" jsonschema:"required,Category of the note (user, project, preference, ...)"`
	KeyName    string   `json:"key_name" jsonschema:"required,Name the note is filed under"`
	Summary    string   `json:"summary" jsonschema:"required,The memory text"`
	Importance int      `json:"importance,omitempty" jsonschema:"Importance 1-10 (default 5)"`
	Tags       []string `json:"tags,omitempty" jsonschema:"Tags for categorization"`
}

// NewSaveNoteHandler creates the save_note tool handler.
// Stores an explicit memory in the index, separate from the chat log.
func NewSaveNoteHandler(deps *Dependencies) mcp.ToolHandlerFor[SaveNoteInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SaveNoteInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.KeyType == "" || input.KeyName == "" {
			return ErrorResult("key_type e key_name são obrigatórios", "Arquive a nota sob uma categoria e um nome"), nil, nil
		}
		if input.Summary == "" {
			return ErrorResult("summary não pode ser vazio", "Informe o texto da memória"), nil, nil
		}

		entry, err := deps.Memory.SaveIndexEntry(ctx, input.KeyType, input.KeyName, input.Summary, input.Importance, input.Tags)
		if err != nil {
			deps.Logger.Error("save_note failed", "key_name", input.KeyName, "error", err)
			return ErrorResult("Falha ao salvar memória", "O banco de dados pode estar indisponível"), nil, nil
		}

		deps.Logger.Info("save_note completed", "key_name", input.KeyName, "id", entry.ID)
		return JSONResult(entry), nil, nil
	}
}
