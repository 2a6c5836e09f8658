// internal/genai/retry.go
package genai

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"
)

// RetryConfig tunes the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is sane for interactive use.
func DefaultRetryConfig(maxAttempts int) RetryConfig {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryConfig{
		MaxAttempts: maxAttempts,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     8 * time.Second,
		Multiplier:  2,
	}
}

// RetryBackend retries transient failures with exponential backoff and
// jitter.
type RetryBackend struct {
	inner  Backend
	config RetryConfig
}

// WithRetry wraps a Backend with retry logic.
func WithRetry(b Backend, cfg RetryConfig) Backend {
	return &RetryBackend{inner: b, config: cfg}
}

func (r *RetryBackend) Available() bool {
	return r.inner.Available()
}

func (r *RetryBackend) Respond(ctx context.Context, transcript []models.Turn, mode Mode) (string, error) {
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		reply, err := r.inner.Respond(ctx, transcript, mode)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			break
		}
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt)
		select {
		case <-ctx.Done():
			metrics.GenerationFailures.WithLabelValues("canceled").Inc()
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	metrics.GenerationFailures.WithLabelValues("exhausted").Inc()
	return "", lastErr
}

// shouldRetry treats rate limits, 5xx and transport errors as
// transient. Context errors and auth/request errors are final.
func shouldRetry(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}

	// Network-level failures are treated as transient.
	return true
}

func (r *RetryBackend) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
