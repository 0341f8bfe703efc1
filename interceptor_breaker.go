package networkkit

import (
	"context"
	"sync/atomic"
	"time"
)

// BreakerConfig holds circuit breaker thresholds. Zero values fall back to
// defaults (5 failures, 60s recovery, 2 successes).
type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitState represents the state of the circuit breaker.
type CircuitState int64

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerInterceptor is a built-in Interceptor implementing a
// three-state circuit breaker around the pipeline's attempts. Adapt fails
// fast with KindCircuitOpen while the circuit is open; Observe records every
// attempt's outcome. Lock-free and safe for concurrent use.
type CircuitBreakerInterceptor struct {
	config      BreakerConfig
	state       int64
	failures    int64
	successes   int64
	lastFailure int64
}

// NewCircuitBreaker creates a breaker interceptor with the given thresholds.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreakerInterceptor {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}
	return &CircuitBreakerInterceptor{
		config: config,
		state:  int64(StateClosed),
	}
}

// Adapt implements the Interceptor interface.
func (cb *CircuitBreakerInterceptor) Adapt(_ context.Context, req *Request) (*Request, error) {
	if !cb.allow() {
		return nil, &Error{Kind: KindCircuitOpen, Message: "circuit breaker is open", Method: req.Method, URL: req.URL}
	}
	return req, nil
}

// Observe implements the Interceptor interface. Transport failures and
// server-side statuses count against the breaker; everything else counts as
// success.
func (cb *CircuitBreakerInterceptor) Observe(_ context.Context, res *Result) {
	switch {
	case res.Err == nil:
		cb.recordSuccess()
	case IsTransient(res.Err):
		cb.recordFailure()
	default:
		// Terminal client-side failures say nothing about upstream health.
		cb.recordSuccess()
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreakerInterceptor) State() CircuitState {
	return CircuitState(atomic.LoadInt64(&cb.state))
}

func (cb *CircuitBreakerInterceptor) allow() bool {
	now := time.Now().UnixNano()

	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateClosed:
		return true
	case StateOpen:
		lastFailure := atomic.LoadInt64(&cb.lastFailure)
		if now-lastFailure >= int64(cb.config.RecoveryTimeout) {
			if atomic.CompareAndSwapInt64(&cb.state, int64(StateOpen), int64(StateHalfOpen)) {
				atomic.StoreInt64(&cb.successes, 0)
				return true
			}
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *CircuitBreakerInterceptor) recordFailure() {
	atomic.StoreInt64(&cb.lastFailure, time.Now().UnixNano())

	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateClosed:
		if atomic.AddInt64(&cb.failures, 1) >= int64(cb.config.FailureThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateOpen))
		}
	case StateHalfOpen:
		// A failure while probing immediately re-opens the circuit.
		atomic.StoreInt64(&cb.state, int64(StateOpen))
		atomic.StoreInt64(&cb.successes, 0)
	}
}

func (cb *CircuitBreakerInterceptor) recordSuccess() {
	switch CircuitState(atomic.LoadInt64(&cb.state)) {
	case StateClosed:
		atomic.StoreInt64(&cb.failures, 0)
	case StateHalfOpen:
		if atomic.AddInt64(&cb.successes, 1) >= int64(cb.config.SuccessThreshold) {
			atomic.StoreInt64(&cb.state, int64(StateClosed))
			atomic.StoreInt64(&cb.failures, 0)
		}
	}
}
