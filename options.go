package tindak

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ambiyansyah-risyal/tindak/internal/backoff"
	"github.com/ambiyansyah-risyal/tindak/internal/singleflight"
)

// WithCache replaces the default in-memory cache TTL.
func WithCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = NewInMemoryCache()
		c.cacheTTL = ttl
	}
}

// WithCustomCache sets a custom cache implementation, e.g. a RedisCache.
func WithCustomCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithoutCache disables caching entirely; no lookups, no stores.
func WithoutCache() Option {
	return func(c *Client) {
		c.cache = nil
		c.cacheEnabled.Store(false)
	}
}

// WithToken seeds the token guard with an initial token.
func WithToken(t *Token) Option {
	return func(c *Client) {
		c.initialToken = t
	}
}

// WithRefresher sets the credential refresh collaborator.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithTokenGuard sets a fully constructed token guard, overriding WithToken,
// WithRefresher and WithExpiryMargin.
func WithTokenGuard(g *TokenGuard) Option {
	return func(c *Client) {
		c.tokens = g
	}
}

// WithExpiryMargin sets how close to expiry a token may be before it is
// refreshed.
func WithExpiryMargin(d time.Duration) Option {
	return func(c *Client) {
		c.expiryMargin = d
	}
}

// WithAutoRefresh controls whether actions refresh an expired token before
// invoking the producer. Default on.
func WithAutoRefresh(enabled bool) Option {
	return func(c *Client) {
		c.autoRefresh = enabled
	}
}

// WithRetryWhenRateLimited controls whether rate-limited attempts are
// retried. Default on.
func WithRetryWhenRateLimited(enabled bool) Option {
	return func(c *Client) {
		c.retryEnabled = enabled
	}
}

// WithMaxRetryAttempts sets the retry ceiling for rate-limited attempts.
func WithMaxRetryAttempts(n int) Option {
	return func(c *Client) {
		c.maxRetryAttempts = n
	}
}

// WithInitialBackoff sets the first fallback delay used when the remote
// service sends no Retry-After hint.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = d
	}
}

// WithMaxBackoff caps the fallback delay.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.maxBackoff = d
	}
}

// WithBackoffMultiplier sets the growth factor of the fallback delay.
func WithBackoffMultiplier(f float64) Option {
	return func(c *Client) {
		c.backoffMultiplier = f
	}
}

// WithJitter sets the jitter factor for the fallback delay (0.0 to 1.0).
func WithJitter(f float64) Option {
	return func(c *Client) {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		c.jitter = f
	}
}

// WithBackoffStrategy selects the fallback backoff formula (fixed,
// exponential jitter, decorrelated jitter).
func WithBackoffStrategy(s backoff.Strategy) Option {
	return func(c *Client) {
		c.backoffStrategy = s
	}
}

// WithRateLimitPolicy sets a custom policy, overriding the retry ceiling and
// backoff options.
func WithRateLimitPolicy(p RateLimitPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithScheduler sets a custom scheduler; tests pass a recording fake.
func WithScheduler(s Scheduler) Option {
	return func(c *Client) {
		c.scheduler = s
	}
}

// WithThrottle enables a client-side token bucket that paces producer
// invocations before they reach the remote service.
func WithThrottle(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.throttle = rate.NewLimiter(r, burst)
	}
}

// WithDeduplication coalesces concurrent completions that share a request
// fingerprint into a single producer run.
func WithDeduplication() Option {
	return func(c *Client) {
		c.dedup = singleflight.New()
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithSimpleLogger enables debug logging with a stderr console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom request id generator for debug logs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an
// error if invalid.
func (c *Client) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, c.validateRetryConfig()...)
	errs = append(errs, c.validateCacheConfig()...)
	errs = append(errs, c.validateSchedulerConfig()...)
	errs = append(errs, c.validateDebugConfig()...)

	if len(errs) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errs),
		}
	}
	return nil
}

func (c *Client) validateRetryConfig() []string {
	var errs []string

	if c.maxRetryAttempts < 0 {
		errs = append(errs, "maxRetryAttempts must be non-negative")
	}
	if c.initialBackoff <= 0 {
		errs = append(errs, "initialBackoff must be positive")
	}
	if c.maxBackoff < c.initialBackoff {
		errs = append(errs, "maxBackoff must be greater than or equal to initialBackoff")
	}
	if c.backoffMultiplier <= 0 {
		errs = append(errs, "backoffMultiplier must be positive")
	}
	if c.jitter < 0 || c.jitter > 1 {
		errs = append(errs, "jitter must be between 0 and 1")
	}
	return errs
}

func (c *Client) validateCacheConfig() []string {
	var errs []string

	if c.cache != nil && c.cacheTTL <= 0 {
		errs = append(errs, "cacheTTL must be positive when cache is enabled")
	}
	return errs
}

func (c *Client) validateSchedulerConfig() []string {
	var errs []string

	if c.scheduler == nil {
		errs = append(errs, "scheduler cannot be nil")
	}
	return errs
}

func (c *Client) validateDebugConfig() []string {
	var errs []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errs = append(errs, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errs = append(errs, "logger must be set when debug is enabled")
		}
	}
	return errs
}
