package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	// DefaultOllamaModel produces 768-dimensional vectors locally.
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultOllamaDimension is the dimension for nomic-embed-text.
	DefaultOllamaDimension = 768
)

// OllamaClient implements Embedder using a local Ollama server through
// langchaingo. Used for development and tests without a remote credential.
type OllamaClient struct {
	model     embeddings.Embedder
	modelName string
	dimension int
}

// Compile-time check that OllamaClient implements Embedder.
var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient creates a local embedding client. host may be empty to
// use the OLLAMA_HOST environment default.
func NewOllamaClient(host, model string, dimension int) (*OllamaClient, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	if dimension == 0 {
		dimension = DefaultOllamaDimension
	}

	opts := []ollama.Option{ollama.WithModel(model)}
	if host != "" {
		opts = append(opts, ollama.WithServerURL(host))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return &OllamaClient{model: embedder, modelName: model, dimension: dimension}, nil
}

// Model returns the configured embedding model name.
func (c *OllamaClient) Model() string {
	return c.modelName
}

// Dimension returns the expected embedding dimension.
func (c *OllamaClient) Dimension() int {
	return c.dimension
}

// Embed generates an embedding vector for the given text, applying the same
// character budget as the remote client.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text, truncated := truncateInput(text)
	if truncated {
		slog.Info("embedding input truncated", "model", c.modelName, "chars", MaxInputChars)
	}

	vectors, err := c.model.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	embedding := vectors[0]
	if len(embedding) != c.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(embedding), c.dimension, c.modelName)
	}
	return embedding, nil
}
