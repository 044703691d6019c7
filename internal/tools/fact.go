package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LearnFactInput defines the input schema for the learn_fact tool.
type LearnFactInput struct {
	Entity     string  `json:"entity" jsonschema:"required,Entity the fact is about (created if missing)"`
	FactType   string  `json:"fact_type" jsonschema:"required,Kind of fact (employment, residence, preference, ...)"`
	Content    string  `json:"content" jsonschema:"required,The fact text"`
	Confidence float64 `json:"confidence,omitempty" jsonschema:"Confidence 0-1 (default 0.9)"`
}

// LearnFactResult is the response from the learn_fact tool.
type LearnFactResult struct {
	FactID     string  `json:"fact_id"`
	EntityID   string  `json:"entity_id"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	ValidFrom  string  `json:"valid_from"`
}

// NewLearnFactHandler creates the learn_fact tool handler.
// Older open facts of the same type are closed out, so the graph keeps a
// history instead of overwriting.
func NewLearnFactHandler(deps *Dependencies) mcp.ToolHandlerFor[LearnFactInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LearnFactInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Entity == "" {
			return ErrorResult("entity cannot be empty", "Provide the entity name"), nil, nil
		}
		if input.FactType == "" {
			return ErrorResult("fact_type cannot be empty", "Provide the kind of fact"), nil, nil
		}
		if input.Content == "" {
			return ErrorResult("content cannot be empty", "Provide the fact text"), nil, nil
		}
		if input.Confidence < 0 || input.Confidence > 1 {
			return ErrorResult("confidence must be between 0 and 1", "Fix the confidence value"), nil, nil
		}

		fact, err := deps.Memory.AddFact(ctx, input.Entity, input.FactType, input.Content, input.Confidence)
		if err != nil {
			deps.Logger.Error("learn_fact failed", "entity", input.Entity, "error", err)
			return ErrorResult("Failed to store fact", "Database may be unavailable"), nil, nil
		}

		deps.Logger.Info("learn_fact completed",
			"entity", input.Entity, "fact_type", input.FactType)
		return JSONResult(LearnFactResult{
			FactID:     fact.ID,
			EntityID:   fact.EntityID,
			Type:       fact.Type,
			Content:    fact.Content,
			Confidence: fact.Confidence,
			ValidFrom:  fact.ValidFrom.Format(time.RFC3339),
		}), nil, nil
	}
}
