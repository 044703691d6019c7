// Package embedding provides text embedding generation with multiple backend support.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxInputChars is the character budget applied before every embedding call,
// a proxy for the ~8000-token model limit. Longer input is truncated and the
// truncation is logged, never reported as an error.
const MaxInputChars = 30000

// ErrNotConfigured indicates no embedding credential is present. Callers
// run degraded (no vectors) rather than failing.
var ErrNotConfigured = errors.New("embedding provider not configured")

// Embedder defines the interface for text embedding providers.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector dimension.
	// Must match the vector column dimension in the database schema.
	Dimension() int
}

// ProviderType identifies the embedding provider.
type ProviderType string

const (
	// ProviderAPI uses the remote HTTPS embedding API (bearer credential).
	ProviderAPI ProviderType = "api"

	// ProviderOllama uses a local Ollama server via langchaingo.
	ProviderOllama ProviderType = "ollama"
)

// Config holds configuration for creating an Embedder.
type Config struct {
	Provider ProviderType

	// Model is the embedding model name (provider-specific).
	Model string

	// Dimension is the required output dimension. 0 uses the provider default.
	Dimension int

	// API-specific
	APIKey   string
	Endpoint string

	// Ollama-specific
	OllamaHost string
}

// New creates an Embedder based on the provided configuration.
// A missing API credential yields ErrNotConfigured so the caller can decide
// to run without embeddings instead of aborting.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderAPI, "":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewAPIClient(cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Dimension), nil

	case ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.Dimension)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// truncateInput applies the character budget. The cut backs off to the
// nearest rune start so a multi-byte character is never split. Returns the
// (possibly shortened) text and whether truncation happened.
func truncateInput(text string) (string, bool) {
	if len(text) <= MaxInputChars {
		return text, false
	}
	cut := MaxInputChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}

// ValidateDimension checks that the provider's vectors fit the storage
// width. A nil embedder passes: degraded mode stores no vectors at all.
func ValidateDimension(e Embedder, want int) error {
	if e == nil {
		return nil
	}
	if got := e.Dimension(); got != want {
		return fmt.Errorf("embedding dimension mismatch: model %s produces %d, storage expects %d",
			e.Model(), got, want)
	}
	return nil
}
