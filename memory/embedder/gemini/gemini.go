// Package gemini implements the memory.Embedder interface using the
// Google Gemini embedding API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-004"

// dimensions of text-embedding-004 vectors.
const dimensions = 768

// Embedder generates embeddings via the Gemini API.
type Embedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// New creates a Gemini embedder. An empty model selects DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini embedder: API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embedder init: %w", err)
	}
	return &Embedder{client: client, model: client.EmbeddingModel(model)}, nil
}

// Embed converts text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || resp.Embedding == nil {
		return nil, errors.New("gemini embedder: empty embedding")
	}
	return resp.Embedding.Values, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return dimensions
}

// Close releases the underlying API client.
func (e *Embedder) Close() error {
	return e.client.Close()
}
