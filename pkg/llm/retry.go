package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alantheprice/stackpilot/pkg/utils"
	ollama "github.com/ollama/ollama/api"
	"google.golang.org/genai"
)

type retryingEmbedder struct {
	Embedder
	backoff *utils.RateLimitBackoff
	logger  *utils.Logger
}

// WithRateLimitRetry retries Embed calls that failed because the backend rate limited
// them. Other errors are returned at once.
func WithRateLimitRetry(e Embedder, backoff *utils.RateLimitBackoff, logger *utils.Logger) Embedder {
	if backoff == nil || backoff.MaxRetries <= 0 {
		return e
	}
	return &retryingEmbedder{Embedder: e, backoff: backoff, logger: logger}
}

func (r *retryingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	for attempt := 0; ; attempt++ {
		vec, err := r.Embedder.Embed(ctx, text)
		if err == nil || !r.rateLimited(err) || !r.backoff.ShouldRetry(attempt) {
			return vec, err
		}
		r.logger.Logf("Rate limited by %s, retrying in %s (attempt %d/%d)", r.Name(), r.backoff.Delay(attempt), attempt+1, r.backoff.MaxRetries)
		if waitErr := r.backoff.Wait(ctx, attempt); waitErr != nil {
			return nil, fmt.Errorf("%w (while waiting out rate limit: %v)", waitErr, err)
		}
	}
}

func (r *retryingEmbedder) rateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests
	}
	return r.backoff.IsRateLimitError(err)
}
