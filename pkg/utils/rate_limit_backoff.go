package utils

import (
	"context"
	"math"
	"strings"
	"time"
)

// RateLimitBackoff decides when a failed backend call was rate limited and how long
// to wait before trying again.
type RateLimitBackoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// NewRateLimitBackoff creates a new rate limit backoff handler with sensible defaults
func NewRateLimitBackoff() *RateLimitBackoff {
	return &RateLimitBackoff{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func containsRateLimitPhrases(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "rate exceeded") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "resource_exhausted") ||
		strings.Contains(s, "resource exhausted") ||
		(strings.Contains(s, "quota") && strings.Contains(s, "exceeded")) ||
		strings.Contains(s, "current quota")
}

// IsRateLimitError checks whether an error message looks like a rate limit. Callers
// that can see a status code should check for 429 first.
func (rlb *RateLimitBackoff) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	// Providers often format as "status 429" or "(429)"
	if strings.Contains(errStr, "status 429") || strings.Contains(errStr, "http 429") || strings.Contains(errStr, "(429)") {
		return true
	}
	return containsRateLimitPhrases(errStr)
}

// Delay is the exponential backoff for the given zero-based attempt, capped at MaxDelay.
func (rlb *RateLimitBackoff) Delay(attempt int) time.Duration {
	delay := float64(rlb.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(rlb.MaxDelay) {
		return rlb.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry determines if we should retry based on attempt count
func (rlb *RateLimitBackoff) ShouldRetry(attempt int) bool {
	return attempt < rlb.MaxRetries
}

// Wait sleeps for Delay(attempt) or until ctx ends.
func (rlb *RateLimitBackoff) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(rlb.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
