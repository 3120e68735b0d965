package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alantheprice/stackpilot/pkg/utils"
)

// ErrTransportTimeout is returned when the generation backend does not answer before
// the request deadline.
var ErrTransportTimeout = errors.New("generation backend timed out")

// TransportError describes a failed round-trip to a backend. Raw holds whatever body
// the backend sent back, if any.
type TransportError struct {
	Backend string
	Raw     string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Backend, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Generator produces model output for a prompt. *Gateway is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, prompt string, expectJSON bool) (Result, error)
}

// Gateway sends prompts to the generation backend and interprets the replies.
type Gateway struct {
	backend Backend
	timeout time.Duration
	logger  *utils.Logger
}

// NewGateway wraps backend. A zero timeout leaves the caller's context deadline in charge.
func NewGateway(backend Backend, timeout time.Duration, logger *utils.Logger) *Gateway {
	return &Gateway{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate sends the prompt and returns the reply. With expectJSON the reply is parsed
// into a Structured result when possible; otherwise it comes back as Raw text.
//
// Transport failures are logged and degrade to the backend's raw body. Only a timeout
// or a cancelled context is returned as an error.
func (g *Gateway) Generate(ctx context.Context, prompt string, expectJSON bool) (Result, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.backend.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logger.LogError(err)
			return Result{}, fmt.Errorf("%w after %s: %v", ErrTransportTimeout, time.Since(start).Round(time.Millisecond), err)
		}
		if errors.Is(err, context.Canceled) {
			return Result{}, err
		}

		g.logger.Logf("Invalid response from %s: %v", g.backend.Name(), err)
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return Raw(strings.TrimSpace(transportErr.Raw)), nil
		}
		return Raw(""), nil
	}
	g.logger.Logf("Generation from %s finished in %s (%d chars)", g.backend.Name(), time.Since(start).Round(time.Millisecond), len(text))

	result, parseErr := ParseResponse(text, expectJSON)
	if parseErr != nil {
		g.logger.Logf("JSON decode issue, returning raw text: %v", parseErr)
	}
	return result, nil
}
