package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(retries int) *utils.RateLimitBackoff {
	return &utils.RateLimitBackoff{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRateLimitRetryRecovers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[0.5,0.5]]}`))
	}))
	defer server.Close()

	inner, err := NewOllamaEmbedder(server.URL, "nomic-embed-text")
	require.NoError(t, err)
	embedder := WithRateLimitRetry(inner, fastBackoff(3), utils.NewLogger(nil))

	vec, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, vec)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

type erroringEmbedder struct {
	err   error
	calls int
}

func (e *erroringEmbedder) Name() string { return "erroring" }

func (e *erroringEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls++
	return nil, e.err
}

func TestRateLimitRetryGivesUp(t *testing.T) {
	inner := &erroringEmbedder{err: errors.New("quota exceeded for this project")}
	_, err := WithRateLimitRetry(inner, fastBackoff(2), utils.NewLogger(nil)).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRateLimitRetryIgnoresOtherErrors(t *testing.T) {
	inner := &erroringEmbedder{err: errors.New("model not found")}
	_, err := WithRateLimitRetry(inner, fastBackoff(2), utils.NewLogger(nil)).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
