package networkkit

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/AhmedMa7rous/NetworkKit/internal/singleflight"
)

// Pipeline executes declarative requests with interceptor adaptation,
// retry-with-backoff, layered caching and optional de-duplication. It is
// safe for concurrent use.
type Pipeline struct {
	transport Transport
	executor  *requestExecutor
	validator ResponseValidator
	retry     RetryPolicy

	interceptors interceptorChain

	memory       CacheStore
	durable      CacheStore
	tiered       CacheStore
	defaultTTL   time.Duration
	promotionTTL time.Duration

	serializer Serializer
	logger     Logger
	debug      *DebugConfig
	metrics    *MetricsCollector

	dedup          *singleflight.Group
	dedupKeyFunc   DedupKeyFunc
	dedupCondition DedupCondition

	downloadDir     string
	defaultTimeout  time.Duration
	validationError error
}

// New constructs a Pipeline using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		transport:      NewHTTPTransport(nil),
		validator:      NewStatusRangeValidator(),
		retry:          NewRetryPolicy(DefaultRetryConfig()),
		serializer:     JSONSerializer{},
		logger:         noopLogger{},
		debug:          DefaultDebugConfig(),
		defaultTTL:     5 * time.Minute,
		promotionTTL:   DefaultPromotionTTL,
		dedupKeyFunc:   DefaultDedupKeyFunc,
		dedupCondition: DefaultDedupCondition,
		downloadDir:    os.TempDir(),
		defaultTimeout: 30 * time.Second,
	}

	for _, option := range options {
		option(p)
	}

	p.executor = newRequestExecutor(p.transport, p.validator)
	if p.memory != nil && p.durable != nil {
		p.tiered = NewTieredCache(p.memory, p.durable, p.promotionTTL)
	}

	if err := p.ValidateConfiguration(); err != nil {
		p.validationError = err
	}
	return p
}

// IsValid reports whether configuration validation passed at construction.
func (p *Pipeline) IsValid() bool {
	return p.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (p *Pipeline) ValidationError() error {
	return p.validationError
}

// Execute runs the request through the full pipeline and returns the
// validated response body. The cache is consulted exactly once, before the
// retry loop; a hit bypasses the network entirely.
func (p *Pipeline) Execute(ctx context.Context, req *Request) ([]byte, error) {
	start := time.Now()

	if err := req.validate(); err != nil {
		return nil, err
	}

	endpoint := req.endpoint()
	requestID := p.requestID()
	p.logRequests("starting request", "requestID", requestID, "method", req.Method, "url", req.URL)

	p.metrics.RecordRequestStart(req.Method, endpoint)
	defer p.metrics.RecordRequestEnd(req.Method, endpoint)

	store := p.storeFor(req)
	key := req.CacheKey()

	if store != nil {
		if data, ok := store.Retrieve(ctx, key); ok {
			p.metrics.RecordCacheHit(req.Method, endpoint)
			p.logCache("cache hit", "requestID", requestID, "cacheKey", key)
			p.metrics.RecordRequest(req.Method, endpoint, 200, time.Since(start))
			return data, nil
		}
		p.metrics.RecordCacheMiss(req.Method, endpoint)
		p.logCache("cache miss", "requestID", requestID, "cacheKey", key)
	}

	run := func() ([]byte, error) {
		return p.runAttempts(ctx, req, store, key, requestID)
	}

	var data []byte
	var err error
	if p.dedup != nil && p.dedupCondition(req) {
		var owner bool
		data, err, owner = p.dedup.Do(ctx, p.dedupKeyFunc(req), run)
		if !owner {
			p.metrics.RecordDedupHit(req.Method, endpoint)
			p.logRequests("merged onto in-flight request", "requestID", requestID)
		}
	} else {
		data, err = run()
	}

	duration := time.Since(start)
	statusCode := 0
	if err == nil {
		statusCode = 200
	} else {
		statusCode = statusCodeOf(err)
		p.metrics.RecordError(KindOf(err), req.Method, endpoint)
	}
	p.metrics.RecordRequest(req.Method, endpoint, statusCode, duration)

	return data, err
}

// runAttempts drives the retry loop: adapt, send, observe, classify, back
// off. On success the response is written through the selected cache store
// best-effort before returning.
func (p *Pipeline) runAttempts(ctx context.Context, req *Request, store CacheStore, key, requestID string) ([]byte, error) {
	endpoint := req.endpoint()

	for attempt := 1; ; attempt++ {
		attemptReq := req.Clone()
		if attemptReq.Timeout == 0 {
			attemptReq.Timeout = p.defaultTimeout
		}

		adapted, err := p.interceptors.adapt(ctx, attemptReq)
		if err != nil {
			// Adaptation failures abort before any transport call and are
			// never retried, but observers still hear about the attempt.
			p.interceptors.observe(ctx, &Result{Request: req, Err: err, Attempt: attempt})
			return nil, decorate(err, req)
		}

		resp, err := p.executor.run(ctx, adapted)
		p.interceptors.observe(ctx, &Result{Request: adapted, Response: resp, Err: err, Attempt: attempt})

		if err == nil {
			if store != nil {
				if serr := store.Store(ctx, key, resp.Body, p.ttlFor(req)); serr != nil {
					p.logCache("cache write failed", "requestID", requestID, "cacheKey", key, "error", serr.Error())
				} else {
					p.logCache("response cached", "requestID", requestID, "cacheKey", key, "ttl", p.ttlFor(req))
				}
				if mem, ok := p.memory.(*MemoryCache); ok {
					p.metrics.RecordCacheSize("memory", mem.Len())
				}
			}
			return resp.Body, nil
		}

		withAttempt(err, attempt)

		if !p.retry.ShouldRetry(req, err, attempt) {
			return nil, err
		}

		p.metrics.RecordRetry(req.Method, endpoint, attempt)
		p.logRetries("scheduling retry", "requestID", requestID, "attempt", attempt, "kind", KindOf(err))

		if werr := p.retry.Wait(ctx, attempt); werr != nil {
			return nil, werr
		}
	}
}

// ExecuteInto executes the request and decodes the response body into out
// using the configured Serializer. Decode failures are a distinct terminal
// kind, never retried.
func (p *Pipeline) ExecuteInto(ctx context.Context, req *Request, out any) error {
	data, err := p.Execute(ctx, req)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return &Error{Kind: KindNoData, Message: "response body is empty", Method: req.Method, URL: req.URL}
	}
	return p.serializer.Decode(data, out)
}

// Fetch executes the request on p and decodes the body into a T.
func Fetch[T any](ctx context.Context, p *Pipeline, req *Request) (T, error) {
	var out T
	if err := p.ExecuteInto(ctx, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// EncodeBody serializes v with the pipeline's Serializer, for callers
// assembling request bodies.
func (p *Pipeline) EncodeBody(v any) ([]byte, error) {
	return p.serializer.Encode(v)
}

// ClearCache empties every configured cache tier. Clearing an already empty
// cache is a no-op.
func (p *Pipeline) ClearCache(ctx context.Context) error {
	var errs []error
	if p.memory != nil {
		errs = append(errs, p.memory.Clear(ctx))
	}
	if p.durable != nil {
		errs = append(errs, p.durable.Clear(ctx))
	}
	return errors.Join(errs...)
}

// storeFor resolves the request's cache mode against the configured tiers.
// Modes pointing at an unconfigured tier degrade to no caching.
func (p *Pipeline) storeFor(req *Request) CacheStore {
	switch req.Cache.Mode {
	case CacheMemory:
		return p.memory
	case CacheDurable:
		return p.durable
	case CacheHybrid:
		if p.tiered != nil {
			return p.tiered
		}
		if p.memory != nil {
			return p.memory
		}
		return p.durable
	default:
		return nil
	}
}

func (p *Pipeline) ttlFor(req *Request) time.Duration {
	if req.Cache.TTL > 0 {
		return req.Cache.TTL
	}
	return p.defaultTTL
}

func (p *Pipeline) requestID() string {
	if p.debug != nil && p.debug.Enabled && p.debug.RequestIDGen != nil {
		return p.debug.RequestIDGen()
	}
	return ""
}

func (p *Pipeline) logRequests(msg string, keysAndValues ...any) {
	if p.debug != nil && p.debug.Enabled && p.debug.LogRequests {
		p.logger.Debug(msg, keysAndValues...)
	}
}

func (p *Pipeline) logRetries(msg string, keysAndValues ...any) {
	if p.debug != nil && p.debug.Enabled && p.debug.LogRetries {
		p.logger.Info(msg, keysAndValues...)
	}
}

func (p *Pipeline) logCache(msg string, keysAndValues ...any) {
	if p.debug != nil && p.debug.Enabled && p.debug.LogCache {
		p.logger.Debug(msg, keysAndValues...)
	}
}

func (p *Pipeline) logTransfers(msg string, keysAndValues ...any) {
	if p.debug != nil && p.debug.Enabled && p.debug.LogTransfers {
		p.logger.Debug(msg, keysAndValues...)
	}
}

// withAttempt stamps the attempt number onto a pipeline error in place.
func withAttempt(err error, attempt int) {
	var e *Error
	if errors.As(err, &e) {
		e.Attempt = attempt
	}
}
