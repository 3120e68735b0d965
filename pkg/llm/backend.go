package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/alantheprice/stackpilot/pkg/config"
)

// Backend turns a prompt into raw model text.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Name() string
}

// NewBackend creates the text-generation backend selected by the configuration.
func NewBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.GenerationProvider {
	case "ollama":
		return NewOllamaBackend(cfg.OllamaServerURL, cfg.GenerationModel)
	case "genai":
		return NewGenAIBackend(ctx, cfg.GenAIAPIKey, cfg.GenerationModel)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s (use 'ollama' or 'genai')", cfg.GenerationProvider)
	}
}

// NewEmbedder creates the embedding backend selected by the configuration.
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return NewOllamaEmbedder(cfg.OllamaServerURL, cfg.EmbeddingModel)
	case "genai":
		return NewGenAIEmbedder(ctx, cfg.GenAIAPIKey, cfg.EmbeddingModel)
	case "hash":
		return NewHashEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama', 'genai' or 'hash')", cfg.EmbeddingProvider)
	}
}

type timeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

// WithEmbedTimeout bounds every Embed call made through e. A zero timeout returns e.
func WithEmbedTimeout(e Embedder, timeout time.Duration) Embedder {
	if timeout <= 0 {
		return e
	}
	return &timeoutEmbedder{Embedder: e, timeout: timeout}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, text)
}
