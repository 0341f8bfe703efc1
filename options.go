package networkkit

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AhmedMa7rous/NetworkKit/internal/singleflight"
)

// Option configures a Pipeline during construction.
type Option func(*Pipeline)

// WithTransport replaces the transport used for every round-trip.
func WithTransport(transport Transport) Option {
	return func(p *Pipeline) {
		p.transport = transport
	}
}

// WithHTTPClient uses the given *http.Client behind the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) {
		p.transport = NewHTTPTransport(client)
	}
}

// WithRetryPolicy replaces the retry policy wholesale.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) {
		p.retry = policy
	}
}

// WithRetryConfig keeps the default policy but with custom settings.
func WithRetryConfig(config RetryConfig) Option {
	return func(p *Pipeline) {
		p.retry = NewRetryPolicy(config)
	}
}

// WithValidator replaces the response validator.
func WithValidator(validator ResponseValidator) Option {
	return func(p *Pipeline) {
		p.validator = validator
	}
}

// WithInterceptors appends interceptors to the chain in registration order.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(p *Pipeline) {
		p.interceptors = append(p.interceptors, interceptors...)
	}
}

// WithMemoryCache sets the store backing CacheMemory (and the fast tier of
// CacheHybrid).
func WithMemoryCache(store CacheStore) Option {
	return func(p *Pipeline) {
		p.memory = store
	}
}

// WithDurableCache sets the store backing CacheDurable (and the slow tier of
// CacheHybrid).
func WithDurableCache(store CacheStore) Option {
	return func(p *Pipeline) {
		p.durable = store
	}
}

// WithDefaultCacheTTL sets the TTL used when a request's CachePolicy does not
// carry one.
func WithDefaultCacheTTL(ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.defaultTTL = ttl
	}
}

// WithPromotionTTL sets the fixed TTL applied when the hybrid cache promotes
// a durable-tier hit into memory.
func WithPromotionTTL(ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.promotionTTL = ttl
	}
}

// WithSerializer replaces the body serializer used by ExecuteInto and
// EncodeBody.
func WithSerializer(serializer Serializer) Option {
	return func(p *Pipeline) {
		p.serializer = serializer
	}
}

// WithLogger sets the structured logger debug output goes through.
func WithLogger(logger Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithZeroLogger installs a zerolog-backed logger writing to w at level.
func WithZeroLogger(w io.Writer, level string) Option {
	return func(p *Pipeline) {
		p.logger = NewZeroLogger(w, level)
	}
}

// WithDebug enables debug logging across all areas.
func WithDebug() Option {
	return func(p *Pipeline) {
		cfg := DefaultDebugConfig()
		cfg.Enabled = true
		p.debug = cfg
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(p *Pipeline) {
		p.debug = config
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(p *Pipeline) {
		p.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector installs an existing collector, typically one built
// with NewMetricsCollectorWithRegistry.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(p *Pipeline) {
		p.metrics = collector
	}
}

// WithDeduplication enables merging of identical concurrent requests onto a
// single transport call.
func WithDeduplication() Option {
	return func(p *Pipeline) {
		p.dedup = singleflight.New()
	}
}

// WithDedupKeyFunc overrides how identical requests are identified. Implies
// WithDeduplication.
func WithDedupKeyFunc(fn DedupKeyFunc) Option {
	return func(p *Pipeline) {
		if p.dedup == nil {
			p.dedup = singleflight.New()
		}
		p.dedupKeyFunc = fn
	}
}

// WithDedupCondition overrides which requests are eligible for merging.
// Implies WithDeduplication.
func WithDedupCondition(fn DedupCondition) Option {
	return func(p *Pipeline) {
		if p.dedup == nil {
			p.dedup = singleflight.New()
		}
		p.dedupCondition = fn
	}
}

// WithDownloadDirectory sets where Download writes files. Defaults to the OS
// temp directory.
func WithDownloadDirectory(dir string) Option {
	return func(p *Pipeline) {
		p.downloadDir = dir
	}
}

// WithTimeout sets the per-attempt timeout applied when a request does not
// carry its own.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.defaultTimeout = timeout
	}
}

// ValidateConfiguration checks the assembled pipeline for inconsistent
// settings and returns all problems found, joined.
func (p *Pipeline) ValidateConfiguration() error {
	var errs []error

	if p.transport == nil {
		errs = append(errs, errors.New("transport must not be nil"))
	}
	if p.validator == nil {
		errs = append(errs, errors.New("validator must not be nil"))
	}
	if p.retry == nil {
		errs = append(errs, errors.New("retry policy must not be nil"))
	}
	if p.serializer == nil {
		errs = append(errs, errors.New("serializer must not be nil"))
	}
	if p.logger == nil {
		errs = append(errs, errors.New("logger must not be nil"))
	}
	if p.defaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("default cache TTL must be positive, got %v", p.defaultTTL))
	}
	if p.promotionTTL <= 0 {
		errs = append(errs, fmt.Errorf("promotion TTL must be positive, got %v", p.promotionTTL))
	}
	if p.defaultTimeout < 0 {
		errs = append(errs, fmt.Errorf("default timeout must not be negative, got %v", p.defaultTimeout))
	}
	if p.dedup != nil {
		if p.dedupKeyFunc == nil {
			errs = append(errs, errors.New("deduplication key function must not be nil"))
		}
		if p.dedupCondition == nil {
			errs = append(errs, errors.New("deduplication condition must not be nil"))
		}
	}
	if p.downloadDir == "" {
		errs = append(errs, errors.New("download directory must not be empty"))
	}

	if dp, ok := p.retry.(*DefaultRetryPolicy); ok {
		errs = append(errs, validateRetryConfig(dp.config))
	}

	return errors.Join(errs...)
}

func validateRetryConfig(config RetryConfig) error {
	var errs []error

	if config.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", config.MaxAttempts))
	}
	if config.BaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("base delay must be positive, got %v", config.BaseDelay))
	}
	if config.MaxDelay < config.BaseDelay {
		errs = append(errs, fmt.Errorf("max delay %v must not be below base delay %v", config.MaxDelay, config.BaseDelay))
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		errs = append(errs, fmt.Errorf("jitter must be within [0, 1], got %v", config.Jitter))
	}

	return errors.Join(errs...)
}
