package networkkit

import (
	"context"
	"sync"
	"time"
)

// ThrottleInterceptor is a built-in Interceptor implementing a token bucket
// gate in front of the transport. An empty bucket fails the attempt with
// KindRateLimited, which the retry policy treats as terminal.
type ThrottleInterceptor struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewThrottle creates a throttle that refills one token per refillRate, up
// to maxTokens.
func NewThrottle(maxTokens int, refillRate time.Duration) *ThrottleInterceptor {
	return &ThrottleInterceptor{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Adapt implements the Interceptor interface.
func (t *ThrottleInterceptor) Adapt(_ context.Context, req *Request) (*Request, error) {
	if !t.allow() {
		return nil, &Error{Kind: KindRateLimited, Message: "rate limit exceeded", Method: req.Method, URL: req.URL}
	}
	return req, nil
}

// Observe implements the Interceptor interface.
func (t *ThrottleInterceptor) Observe(context.Context, *Result) {}

// Tokens returns the number of tokens currently available.
func (t *ThrottleInterceptor) Tokens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refill()
	return t.tokens
}

func (t *ThrottleInterceptor) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refill()
	if t.tokens > 0 {
		t.tokens--
		return true
	}
	return false
}

func (t *ThrottleInterceptor) refill() {
	// A non-positive rate means the bucket never refills.
	if t.refillRate <= 0 {
		return
	}
	now := time.Now()
	refilled := int(now.Sub(t.lastRefill) / t.refillRate)
	if refilled > 0 {
		t.tokens += refilled
		if t.tokens > t.maxTokens {
			t.tokens = t.maxTokens
		}
		t.lastRefill = now
	}
}
