package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAPIModel is the default remote embedding model.
	DefaultAPIModel = "text-embedding-3-small"

	// DefaultAPIDimension is the dimension for text-embedding-3-small.
	DefaultAPIDimension = 1536

	// DefaultAPIEndpoint is the embeddings endpoint.
	DefaultAPIEndpoint = "https://api.openai.com/v1/embeddings"
)

// APIClient implements Embedder against the remote embeddings API:
// POST {model, input} with a bearer credential, {data: [{embedding}]} back.
type APIClient struct {
	apiKey    string
	endpoint  string
	model     string
	dimension int
	client    *http.Client
}

// Compile-time check that APIClient implements Embedder.
var _ Embedder = (*APIClient)(nil)

// NewAPIClient creates a remote embedding client. Empty model/endpoint and
// zero dimension fall back to the defaults above.
func NewAPIClient(apiKey, endpoint, model string, dimension int) *APIClient {
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}
	if model == "" {
		model = DefaultAPIModel
	}
	if dimension == 0 {
		dimension = DefaultAPIDimension
	}
	return &APIClient{
		apiKey:    apiKey,
		endpoint:  endpoint,
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Model returns the configured embedding model name.
func (c *APIClient) Model() string {
	return c.model
}

// Dimension returns the expected embedding dimension.
func (c *APIClient) Dimension() int {
	return c.dimension
}

type apiRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type apiResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding vector for the given text. Input over the
// character budget is truncated first (logged at info).
func (c *APIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text, truncated := truncateInput(text)
	if truncated {
		slog.Info("embedding input truncated", "model", c.model, "chars", MaxInputChars)
	}

	body, err := json.Marshal(apiRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// keep error bodies short in logs
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed: HTTP %d: %s", resp.StatusCode, msg)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embedding := parsed.Data[0].Embedding
	if len(embedding) != c.dimension {
		return nil, fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(embedding), c.dimension, c.model)
	}
	return embedding, nil
}
