package networkkit

import (
	"context"
	"time"

	"github.com/AhmedMa7rous/NetworkKit/internal/backoff"
)

// RetryConfig is the immutable, process-lifetime retry policy configuration.
type RetryConfig struct {
	// MaxAttempts is the total number of transport calls allowed per request,
	// including the first one.
	MaxAttempts int
	// RetryableStatuses lists status codes eligible for retry when the
	// validator classified the failure as a plain HTTP status error.
	// Server errors (5xx) retry regardless of this set.
	RetryableStatuses map[int]struct{}
	// RetryableMethods lists the verbs eligible for retry at all.
	RetryableMethods map[Method]struct{}
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	// ExponentialBackoff selects exponential growth between attempts; when
	// false every wait is a flat BaseDelay.
	ExponentialBackoff bool
	// Jitter adds a uniformly random fraction of the computed delay. Zero
	// keeps delays deterministic.
	Jitter float64
}

// DefaultRetryConfig returns the stock configuration: three total attempts,
// idempotent methods only, retry on 408/429, exponential backoff 500ms..30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		RetryableStatuses: map[int]struct{}{
			408: {},
			429: {},
		},
		RetryableMethods: map[Method]struct{}{
			MethodGet:     {},
			MethodHead:    {},
			MethodPut:     {},
			MethodDelete:  {},
			MethodOptions: {},
		},
		BaseDelay:          500 * time.Millisecond,
		MaxDelay:           30 * time.Second,
		ExponentialBackoff: true,
	}
}

// RetryPolicy decides retry eligibility and performs the backoff wait.
type RetryPolicy interface {
	// ShouldRetry reports whether the request may be attempted again after
	// the given 1-based attempt failed with err.
	ShouldRetry(req *Request, err error, attempt int) bool
	// Wait suspends the caller for the backoff delay following the given
	// attempt. Context cancellation aborts the wait with a KindCancelled
	// error; otherwise Wait returns nil.
	Wait(ctx context.Context, attempt int) error
}

// DefaultRetryPolicy classifies failures by error kind and backs off using
// the configured strategy.
type DefaultRetryPolicy struct {
	config     RetryConfig
	calculator *backoff.Calculator
}

// NewRetryPolicy builds a policy from the given configuration.
func NewRetryPolicy(config RetryConfig) *DefaultRetryPolicy {
	var strategy backoff.Strategy
	switch {
	case !config.ExponentialBackoff:
		strategy = backoff.Constant{}
	case config.Jitter > 0:
		strategy = backoff.ExponentialJitter{Fraction: config.Jitter}
	default:
		strategy = backoff.Exponential{}
	}
	return &DefaultRetryPolicy{
		config:     config,
		calculator: backoff.NewCalculator(strategy, config.BaseDelay, config.MaxDelay),
	}
}

// ShouldRetry implements the RetryPolicy interface. Timeouts, connectivity
// loss and server errors always retry; plain status errors retry only when
// the code is configured retryable; everything else (decode, encode,
// cancellation, unknown) is terminal.
func (p *DefaultRetryPolicy) ShouldRetry(req *Request, err error, attempt int) bool {
	if attempt >= p.config.MaxAttempts {
		return false
	}
	if _, ok := p.config.RetryableMethods[req.Method]; !ok {
		return false
	}

	switch KindOf(err) {
	case KindTimeout, KindServerError, KindConnectivityLost:
		return true
	case KindHTTPStatus:
		_, ok := p.config.RetryableStatuses[statusCodeOf(err)]
		return ok
	default:
		return false
	}
}

// Wait implements the RetryPolicy interface.
func (p *DefaultRetryPolicy) Wait(ctx context.Context, attempt int) error {
	delay := p.calculator.Delay(attempt)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &Error{Kind: KindCancelled, Message: "cancelled during backoff wait", Cause: ctx.Err()}
	}
}

// Delay exposes the computed backoff for the given attempt without waiting.
func (p *DefaultRetryPolicy) Delay(attempt int) time.Duration {
	return p.calculator.Delay(attempt)
}
