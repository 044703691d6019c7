package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Search modes accepted by the search_memory tool.
const (
	SearchModeSemantic = "semantic"
	SearchModeText     = "text"
	SearchModeIndex    = "index"
)

// SearchMemoryInput defines the input schema for the search_memory tool.
// Threshold is a pointer so an explicit 0 (keep every positive match) is
// distinguishable from unset (use the default).
type SearchMemoryInput struct {
	Query     string   `json:"query" jsonschema:"required,The search query text"`
	Mode      string   `json:"mode,omitempty" jsonschema:"semantic (default), text, or index"`
	Limit     int      `json:"limit,omitempty" jsonschema:"Max results 1-100, default 10"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"Minimum cosine similarity 0-1 (semantic mode, default 0.7)"`
	UserID    string   `json:"user_id,omitempty" jsonschema:"Restrict results to one user"`
}

// SearchMemoryResult is the response from the search_memory tool.
type SearchMemoryResult struct {
	Mode    string `json:"mode"`
	Count   int    `json:"count"`
	Results any    `json:"results"`
	Message string `json:"message,omitempty"`
}

// NewSearchMemoryHandler creates the search_memory tool handler.
// Semantic mode ranks by pgvector cosine similarity and degrades to
// Portuguese full-text search when no query embedding is available.
func NewSearchMemoryHandler(deps *Dependencies) mcp.ToolHandlerFor[SearchMemoryInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchMemoryInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Query == "" {
			return ErrorResult("query não pode ser vazia", "Informe o texto da busca"), nil, nil
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			return ErrorResult("limit deve estar entre 1 e 100", "Reduza o valor de limit"), nil, nil
		}
		threshold := -1.0 // negative: let the service pick its default
		if input.Threshold != nil {
			if *input.Threshold < 0 || *input.Threshold > 1 {
				return ErrorResult("threshold deve estar entre 0 e 1", "Corrija o valor de threshold"), nil, nil
			}
			threshold = *input.Threshold
		}
		mode := input.Mode
		if mode == "" {
			mode = SearchModeSemantic
		}

		var userID *string
		if input.UserID != "" {
			userID = &input.UserID
		}

		result := SearchMemoryResult{Mode: mode}
		switch mode {
		case SearchModeSemantic:
			scored, err := deps.Memory.VectorSearch(ctx, input.Query, limit, threshold, userID)
			if err != nil {
				deps.Logger.Error("search_memory failed", "mode", mode, "error", err)
				return ErrorResult("Falha na busca", "O banco de dados pode estar indisponível"), nil, nil
			}
			result.Count = len(scored)
			result.Results = scored
		case SearchModeText:
			msgs, err := deps.Memory.SearchMessages(ctx, input.Query, limit, userID)
			if err != nil {
				deps.Logger.Error("search_memory failed", "mode", mode, "error", err)
				return ErrorResult("Falha na busca", "O banco de dados pode estar indisponível"), nil, nil
			}
			result.Count = len(msgs)
			result.Results = msgs
		case SearchModeIndex:
			entries, err := deps.Memory.SearchIndex(ctx, input.Query, limit)
			if err != nil {
				deps.Logger.Error("search_memory failed", "mode", mode, "error", err)
				return ErrorResult("Falha na busca", "O banco de dados pode estar indisponível"), nil, nil
			}
			result.Count = len(entries)
			result.Results = entries
		default:
			return ErrorResult("mode deve ser semantic, text ou index", "Corrija o valor de mode"), nil, nil
		}

		if result.Count == 0 {
			result.Message = "Nenhuma memória encontrada"
		}

		queryLog := input.Query
		if len(queryLog) > 30 {
			queryLog = queryLog[:30] + "..."
		}
		deps.Logger.Info("search_memory completed",
			"mode", mode, "query", queryLog, "results", result.Count)
		return JSONResult(result), nil, nil
	}
}
