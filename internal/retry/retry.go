// Package retry wraps outbound calls (GitHub, embedding and LLM providers) in
// exponential backoff.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Policy configures how often and how slowly a call is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt. 0 disables retrying.
	MaxRetries int
	// BaseBackoff is the delay before the first retry; it doubles per attempt.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubled delay.
	MaxBackoff time.Duration
	// MaxJitter is the upper bound of the random delay added to each backoff.
	MaxJitter time.Duration
}

// Validate checks that the policy has no negative values.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if p.BaseBackoff < 0 || p.MaxBackoff < 0 || p.MaxJitter < 0 {
		return errors.New("backoff durations cannot be negative")
	}
	return nil
}

// DefaultPolicy is tuned for GitHub secondary rate limits and LLM quota errors.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  3,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
		MaxJitter:   250 * time.Millisecond,
	}
}

// backoff returns BaseBackoff doubled attempt times, capped at MaxBackoff
// (or the largest Duration when MaxBackoff is unset) without overflowing.
func (p Policy) backoff(attempt int) time.Duration {
	limit := p.MaxBackoff
	if limit <= 0 {
		limit = math.MaxInt64
	}
	if p.BaseBackoff <= 0 {
		return 0
	}
	if attempt >= 63 || p.BaseBackoff > limit>>attempt {
		return limit
	}
	return min(p.BaseBackoff<<attempt, limit)
}

// WithBackoff runs fn until it succeeds, returns an error isRetryable rejects,
// or the policy is exhausted. The last error is wrapped with the operation name.
func WithBackoff[T any](ctx context.Context, p Policy, operation string, isRetryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		result, lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}
		if !isRetryable(lastErr) {
			return result, lastErr
		}
		if attempt >= p.MaxRetries {
			break
		}

		backoff := p.backoff(attempt)
		if p.MaxJitter > 0 {
			if n, err := rand.Int(rand.Reader, big.NewInt(int64(p.MaxJitter))); err == nil {
				backoff = min(backoff, math.MaxInt64-time.Duration(n.Int64())) + time.Duration(n.Int64())
			}
		}

		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", p.MaxRetries).
			With("backoff", backoff).
			With("error", lastErr.Error()).
			Warn("Transient failure, retrying")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if p.MaxRetries == 0 {
		return result, lastErr
	}
	return result, fmt.Errorf("%s failed after %d retries: %w", operation, p.MaxRetries, lastErr)
}
