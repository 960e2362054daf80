package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/flowcore/engine/pkg/models"
)

// BackoffStrategy selects how the delay between retry attempts grows.
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy is the backoff configuration a `retry` structural node
// wraps its wrapped branch execution with.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    BackoffStrategy
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool

	// RetryOn, when set, overrides the default TRANSIENT|TIMEOUT
	// eligibility check with a caller-supplied predicate over the
	// normalized NodeError.
	RetryOn func(*models.NodeError) bool
}

// DefaultRetryPolicy runs a failing transient/timeout node up to three
// attempts in all (two retries) with exponential backoff starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Strategy:    BackoffExponential,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// NoRetryPolicy runs the wrapped function exactly once.
func NoRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, Strategy: BackoffFixed}
}

func (p RetryPolicy) shouldRetry(attempt int, err *models.NodeError) bool {
	if err == nil || attempt >= p.MaxAttempts {
		return false
	}
	if p.RetryOn != nil {
		return p.RetryOn(err)
	}
	return err.Retryable()
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	var d time.Duration
	switch p.Strategy {
	case BackoffLinear:
		d = p.BaseDelay * time.Duration(attempt)
	case BackoffExponential:
		d = time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	default:
		d = p.BaseDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()*0.5))
	}
	return d
}

// RetryAttemptFunc runs one attempt of a retried operation. A nil error
// closes the retry loop with success; a non-nil error is inspected for
// eligibility via the policy and the onRetry callback (if set).
type RetryAttemptFunc func(ctx context.Context, attempt int) (map[string]interface{}, *models.NodeError)

// Execute runs fn under the policy, sleeping between attempts according
// to the configured backoff, and returns the first success or the last
// failure once attempts (or eligibility) are exhausted. It honors ctx
// cancellation both during an attempt and while sleeping.
func (p RetryPolicy) Execute(ctx context.Context, onRetry func(attempt int, err *models.NodeError, nextDelay time.Duration), fn RetryAttemptFunc) (map[string]interface{}, *models.NodeError) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr *models.NodeError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, models.NewNodeError(models.NodeErrorCancelled, "", "execution cancelled before retry attempt", ctx.Err())
		}

		out, err := fn(ctx, attempt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !p.shouldRetry(attempt, err) {
			return nil, lastErr
		}

		d := p.delay(attempt)
		if onRetry != nil {
			onRetry(attempt, err, d)
		}

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, models.NewNodeError(models.NodeErrorCancelled, "", "execution cancelled during retry backoff", ctx.Err())
		}
	}

	return nil, lastErr
}
