package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moltbot/moltmem/internal/memory"
)

// FindConnectionInput defines the input schema for the find_connection tool.
type FindConnectionInput struct {
	From     string `json:"from" jsonschema:"required,Starting entity name"`
	To       string `json:"to" jsonschema:"required,Target entity name"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"Maximum path length 1-10 (default 3)"`
}

// FindConnectionResult is the response from the find_connection tool.
type FindConnectionResult struct {
	Found   bool     `json:"found"`
	Path    []string `json:"path,omitempty"`
	Hops    int      `json:"hops,omitempty"`
	Message string   `json:"message,omitempty"`
}

// NewFindConnectionHandler creates the find_connection tool handler.
// Finds the shortest relationship chain between two entities, ignoring
// edge direction.
func NewFindConnectionHandler(deps *Dependencies) mcp.ToolHandlerFor[FindConnectionInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FindConnectionInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.From == "" {
			return ErrorResult("from cannot be empty", "Provide starting entity name"), nil, nil
		}
		if input.To == "" {
			return ErrorResult("to cannot be empty", "Provide target entity name"), nil, nil
		}
		maxDepth := input.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 3
		}
		if maxDepth > 10 {
			return ErrorResult("max_depth must be between 1 and 10", "Reduce max_depth value"), nil, nil
		}

		path, err := deps.Memory.FindConnectionPath(ctx, input.From, input.To, maxDepth)
		if err != nil {
			if errors.Is(err, memory.ErrEntityNotFound) {
				return ErrorResult(err.Error(), "Check the entity names"), nil, nil
			}
			deps.Logger.Error("find_connection failed",
				"from", input.From, "to", input.To, "error", err)
			return ErrorResult("Path finding failed", "Database may be unavailable"), nil, nil
		}

		if !path.Found {
			deps.Logger.Info("find_connection: no path", "from", input.From, "to", input.To)
			return JSONResult(FindConnectionResult{
				Found:   false,
				Message: fmt.Sprintf("No connection between %s and %s within %d hops", input.From, input.To, maxDepth),
			}), nil, nil
		}

		deps.Logger.Info("find_connection completed",
			"from", input.From, "to", input.To, "hops", len(path.Path)-1)
		return JSONResult(FindConnectionResult{
			Found: true,
			Path:  path.Path,
			Hops:  len(path.Path) - 1,
		}), nil, nil
	}
}
