package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"
)

// OllamaEmbedder wraps the ollama/ollama API client, grounded on the
// teacher's chat/ollama.go usage of ollamaapi.Client for chat completions
// — the same client, applied to its embeddings endpoint instead.
type OllamaEmbedder struct {
	client *ollamaapi.Client
	model  string
	dims   int
}

// NewOllamaEmbedder builds an OllamaEmbedder. An empty BaseURL resolves
// the client from OLLAMA_HOST, matching ollamaapi.ClientFromEnvironment's
// own convention.
func NewOllamaEmbedder(cfg Config) (*OllamaEmbedder, error) {
	client, err := ollamaClientFor(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("embedding: ollama client: %w", err)
	}
	return &OllamaEmbedder{client: client, model: cfg.ModelName, dims: cfg.Dimensions}, nil
}

func ollamaClientFor(baseURL string) (*ollamaapi.Client, error) {
	if baseURL == "" {
		return ollamaapi.ClientFromEnvironment()
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return ollamaapi.NewClient(u, http.DefaultClient), nil
}

// Embed implements Embedder.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// BatchEmbed implements Embedder.
func (e *OllamaEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.Embed(ctx, &ollamaapi.EmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding: ollama request: %w", err)
	}
	return resp.Embeddings, nil
}

// Dimensions implements Embedder.
func (e *OllamaEmbedder) Dimensions() int { return e.dims }
