// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/moltbot/moltmem/internal/memory"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Memory *memory.Service
	Logger *slog.Logger
}
