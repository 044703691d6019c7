package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	// Ping tool - test/placeholder
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Test tool - responds with pong or echoes input",
	}, NewPingHandler(deps))

	// Message persistence with conversation windowing and async embedding
	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_memory",
		Description: "Save a chat message into the user's active conversation (24h window)",
	}, NewSaveMemoryHandler(deps))

	// Explicit memories, separate from the chat log
	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_note",
		Description: "Save an explicit memory note with importance and tags",
	}, NewSaveNoteHandler(deps))

	// Semantic search over messages with full-text fallback
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_memory",
		Description: "Search stored memories semantically, by full text, or in the note index",
	}, NewSearchMemoryHandler(deps))

	// Knowledge graph maintenance
	mcp.AddTool(server, &mcp.Tool{
		Name:        "upsert_entity",
		Description: "Create or update a knowledge graph entity",
	}, NewUpsertEntityHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "link_entities",
		Description: "Create or strengthen a typed relationship between two existing entities",
	}, NewLinkEntitiesHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_graph",
		Description: "Look up an entity with its outgoing and incoming relationships",
	}, NewQueryGraphHandler(deps))

	// Time-bound facts with supersede-on-write
	mcp.AddTool(server, &mcp.Tool{
		Name:        "learn_fact",
		Description: "Record a time-bound fact about an entity, superseding older facts of the same type",
	}, NewLearnFactHandler(deps))

	// Shortest path between entities
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_connection",
		Description: "Find the shortest relationship chain between two entities",
	}, NewFindConnectionHandler(deps))
}
