package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/math"
	ollama "github.com/ollama/ollama/api"
)

// OllamaBackend generates text with a local Ollama server.
type OllamaBackend struct {
	client *ollama.Client
	model  string
}

// NewOllamaBackend creates a backend for serverURL. The model name may carry an
// "ollama:" prefix.
func NewOllamaBackend(serverURL, model string) (*OllamaBackend, error) {
	client, err := newOllamaClient(serverURL)
	if err != nil {
		return nil, err
	}
	return &OllamaBackend{client: client, model: strings.TrimPrefix(model, "ollama:")}, nil
}

func newOllamaClient(serverURL string) (*ollama.Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama server url %q", serverURL)
	}
	return ollama.NewClient(base, newCapturingClient()), nil
}

func (o *OllamaBackend) Name() string {
	return "ollama"
}

// Complete sends a single non-streaming generate request.
func (o *OllamaBackend) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}

	ctx, captured := withCapture(ctx)
	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(res ollama.GenerateResponse) error {
		sb.WriteString(res.Response)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ollama generate failed: %w", ctx.Err())
		}
		return "", &TransportError{Backend: o.Name(), Raw: captured.String(), Err: err}
	}
	return sb.String(), nil
}

// OllamaEmbedder embeds text with an Ollama embedding model.
type OllamaEmbedder struct {
	client *ollama.Client
	model  string
}

func NewOllamaEmbedder(serverURL, model string) (*OllamaEmbedder, error) {
	client, err := newOllamaClient(serverURL)
	if err != nil {
		return nil, err
	}
	return &OllamaEmbedder{client: client, model: strings.TrimPrefix(model, "ollama:")}, nil
}

func (o *OllamaEmbedder) Name() string {
	return "ollama:" + o.model
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := o.client.Embed(ctx, &ollama.EmbedRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding for model %s", o.model)
	}
	return math.ToFloat64(resp.Embeddings[0]), nil
}
