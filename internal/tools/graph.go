package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moltbot/moltmem/internal/memory"
)

// UpsertEntityInput defines the input schema for the upsert_entity tool.
type UpsertEntityInput struct {
	Name        string `json:"name" jsonschema:"required,Unique entity name"`
	Type        string `json:"type" jsonschema:"required,Entity type (person, organization, place, ...)"`
	Description string `json:"description,omitempty" jsonschema:"Short description of the entity"`
}

// EntityResult represents an entity in tool responses, without its embedding.
type EntityResult struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Action      string  `json:"action"` // "created" or "updated"
}

// NewUpsertEntityHandler creates the upsert_entity tool handler.
func NewUpsertEntityHandler(deps *Dependencies) mcp.ToolHandlerFor[UpsertEntityInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpsertEntityInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Name == "" {
			return ErrorResult("name cannot be empty", "Provide the entity name"), nil, nil
		}
		if input.Type == "" {
			return ErrorResult("type cannot be empty", "Provide the entity type"), nil, nil
		}

		var description *string
		if input.Description != "" {
			description = &input.Description
		}

		entity, wasCreated, err := deps.Memory.UpsertEntity(ctx, input.Type, input.Name, description)
		if err != nil {
			deps.Logger.Error("upsert_entity failed", "name", input.Name, "error", err)
			return ErrorResult("Failed to store entity", "Database may be unavailable"), nil, nil
		}

		action := "updated"
		if wasCreated {
			action = "created"
		}
		deps.Logger.Info("upsert_entity completed", "name", input.Name, "action", action)
		return JSONResult(EntityResult{
			ID:          entity.ID,
			Type:        entity.Type,
			Name:        entity.Name,
			Description: entity.Description,
			Action:      action,
		}), nil, nil
	}
}

// LinkEntitiesInput defines the input schema for the link_entities tool.
type LinkEntitiesInput struct {
	From     string  `json:"from" jsonschema:"required,Source entity name"`
	To       string  `json:"to" jsonschema:"required,Target entity name"`
	Type     string  `json:"type" jsonschema:"required,Relationship type (works_at, lives_in, ...)"`
	Strength float64 `json:"strength,omitempty" jsonschema:"Relationship strength 0-1 (default 0.5)"`
}

// NewLinkEntitiesHandler creates the link_entities tool handler.
// Both entities must already exist; re-linking an existing pair updates
// the strength instead of duplicating the edge.
func NewLinkEntitiesHandler(deps *Dependencies) mcp.ToolHandlerFor[LinkEntitiesInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LinkEntitiesInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.From == "" || input.To == "" {
			return ErrorResult("from and to cannot be empty", "Provide both entity names"), nil, nil
		}
		if input.Type == "" {
			return ErrorResult("type cannot be empty", "Provide the relationship type"), nil, nil
		}

		rel, err := deps.Memory.CreateRelationship(ctx, input.From, input.To, input.Type, input.Strength)
		if err != nil {
			if errors.Is(err, memory.ErrEntityNotFound) {
				return ErrorResult(err.Error(), "Create the entity with upsert_entity first"), nil, nil
			}
			deps.Logger.Error("link_entities failed",
				"from", input.From, "to", input.To, "error", err)
			return ErrorResult("Failed to link entities", "Database may be unavailable"), nil, nil
		}

		deps.Logger.Info("link_entities completed",
			"from", input.From, "to", input.To, "type", input.Type)
		return JSONResult(rel), nil, nil
	}
}

// QueryGraphInput defines the input schema for the query_graph tool.
type QueryGraphInput struct {
	Entity string `json:"entity" jsonschema:"required,Entity name to look up"`
}

// NewQueryGraphHandler creates the query_graph tool handler.
// Returns the entity with its outgoing and incoming relationships.
func NewQueryGraphHandler(deps *Dependencies) mcp.ToolHandlerFor[QueryGraphInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryGraphInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Entity == "" {
			return ErrorResult("entity cannot be empty", "Provide the entity name"), nil, nil
		}

		relations, err := deps.Memory.EntityRelations(ctx, input.Entity)
		if err != nil {
			if errors.Is(err, memory.ErrEntityNotFound) {
				return ErrorResult("Entity "+input.Entity+" not found", "Check the spelling or create it with upsert_entity"), nil, nil
			}
			deps.Logger.Error("query_graph failed", "entity", input.Entity, "error", err)
			return ErrorResult("Graph query failed", "Database may be unavailable"), nil, nil
		}

		deps.Logger.Info("query_graph completed",
			"entity", input.Entity,
			"outgoing", len(relations.Outgoing), "incoming", len(relations.Incoming))
		return JSONResult(relations), nil, nil
	}
}
