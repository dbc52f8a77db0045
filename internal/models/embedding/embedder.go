// Package embedding provides the concrete text-vectorization backends
// named in spec §6's settings.source/settings.model: an OpenAI-compatible
// client and an Ollama client, selected by Config.Source at startup.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder is the capability internal/sync and every vectorbackend
// adapter consume to turn text into vectors. Each adapter
// declares its own narrower local interface (mirroring this one) rather
// than importing this package, so swapping providers never touches
// internal/vectorbackend.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Source selects which concrete Embedder Config.Source routes to.
type Source string

const (
	SourceOpenAI Source = "openai"
	SourceOllama Source = "ollama"
)

// Config is settings.source/settings.model plus the provider connection
// details spec §6 leaves to "host configuration".
type Config struct {
	Source     Source
	BaseURL    string
	APIKey     string
	ModelName  string
	Dimensions int
}

// New builds the Embedder Config.Source names.
func New(cfg Config) (Embedder, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("embedding: model name required")
	}
	switch Source(strings.ToLower(string(cfg.Source))) {
	case SourceOllama:
		return NewOllamaEmbedder(cfg)
	case SourceOpenAI, "":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("embedding: unsupported source %q", cfg.Source)
	}
}
