package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/math"
	"google.golang.org/genai"
)

const defaultGenAIEmbeddingModel = "text-embedding-004"

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai provider requires an API key (set GEMINI_API_KEY or genai_api_key)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newCapturingClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create genai client: %w", err)
	}
	return client, nil
}

// GenAIBackend generates text with the Gemini API.
type GenAIBackend struct {
	client *genai.Client
	model  string
}

func NewGenAIBackend(ctx context.Context, apiKey, model string) (*GenAIBackend, error) {
	client, err := newGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &GenAIBackend{client: client, model: strings.TrimPrefix(model, "genai:")}, nil
}

func (g *GenAIBackend) Name() string {
	return "genai"
}

func (g *GenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, captured := withCapture(ctx)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("genai generate failed: %w", ctx.Err())
		}
		raw := captured.String()
		var apiErr genai.APIError
		if raw == "" && errors.As(err, &apiErr) {
			raw = apiErr.Message
		}
		return "", &TransportError{Backend: g.Name(), Raw: raw, Err: err}
	}
	return resp.Text(), nil
}

// GenAIEmbedder embeds text with a Gemini embedding model.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	client, err := newGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	model = strings.TrimPrefix(model, "genai:")
	if model == "" {
		model = defaultGenAIEmbeddingModel
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

func (g *GenAIEmbedder) Name() string {
	return "genai:" + g.model
}

func (g *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("genai returned no embedding for model %s", g.model)
	}
	return math.ToFloat64(resp.Embeddings[0].Values), nil
}
