package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/sectionrank/internal/embed"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying. A per-call timeout counts;
// cancellation of the caller's context does not.
func IsRetryable(err error) bool {
	var retryErr *embed.RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// RetryingEmbedder bounds each call to an inner Embedder with Timeout and
// retries transient failures up to MaxRetries attempts.
type RetryingEmbedder struct {
	Inner   embed.Embedder
	Timeout time.Duration
	Log     *slog.Logger

	backoff func(int) time.Duration
}

// NewRetryingEmbedder wraps inner. timeout <= 0 disables the per-call deadline.
func NewRetryingEmbedder(inner embed.Embedder, timeout time.Duration, log *slog.Logger) *RetryingEmbedder {
	if log == nil {
		log = slog.Default()
	}
	return &RetryingEmbedder{Inner: inner, Timeout: timeout, Log: log, backoff: Backoff}
}

func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	backoff := r.backoff
	if backoff == nil {
		backoff = Backoff
	}

	var vec []float32
	var lastErr error
	for attempt := range MaxRetries {
		vec, lastErr = r.call(ctx, text)
		if lastErr == nil || !IsRetryable(lastErr) || ctx.Err() != nil {
			break
		}
		if attempt == MaxRetries-1 {
			break
		}
		r.Log.Warn("retryable embedding error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return vec, lastErr
}

func (r *RetryingEmbedder) call(ctx context.Context, text string) ([]float32, error) {
	if r.Timeout <= 0 {
		return r.Inner.Embed(ctx, text)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return r.Inner.Embed(callCtx, text)
}
