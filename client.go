package tindak

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ambiyansyah-risyal/tindak/internal/backoff"
	"github.com/ambiyansyah-risyal/tindak/internal/singleflight"
)

// Client is the execution context shared by actions: it owns the response
// cache, the token guard, the rate-limit policy, the scheduler and the
// observability hooks. One Client per remote API; safe for concurrent use.
// Multiple independent Clients never share state.
type Client struct {
	cache        Cache
	cacheEnabled atomic.Bool
	cacheTTL     time.Duration

	tokens      *TokenGuard
	autoRefresh bool

	policy            RateLimitPolicy
	retryEnabled      bool
	maxRetryAttempts  int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	jitter            float64
	backoffStrategy   backoff.Strategy

	scheduler Scheduler
	throttle  *rate.Limiter
	dedup     *singleflight.Group

	metrics *MetricsCollector
	logger  Logger
	debug   *DebugConfig

	initialToken *Token
	refresher    Refresher
	expiryMargin time.Duration

	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		cache:             NewInMemoryCache(),
		cacheTTL:          5 * time.Minute,
		autoRefresh:       true,
		retryEnabled:      true,
		maxRetryAttempts:  10,
		initialBackoff:    500 * time.Millisecond,
		maxBackoff:        30 * time.Second,
		backoffMultiplier: 2.0,
		jitter:            0.1,
		scheduler:         NewTimerScheduler(),
		expiryMargin:      DefaultExpiryMargin,
	}
	client.cacheEnabled.Store(true)

	for _, option := range options {
		option(client)
	}

	if client.policy == nil {
		client.policy = NewRateLimitPolicyWithStrategy(
			client.maxRetryAttempts,
			client.initialBackoff,
			client.maxBackoff,
			client.backoffMultiplier,
			client.jitter,
			client.backoffStrategy,
		)
	}
	if client.tokens == nil {
		client.tokens = NewTokenGuard(client.initialToken, client.refresher, client.expiryMargin)
	}
	if client.metrics != nil {
		metrics := client.metrics
		client.tokens.OnRefresh(func(err error) {
			if err != nil {
				metrics.RecordTokenRefresh("failure")
				return
			}
			metrics.RecordTokenRefresh("success")
		})
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// SetCacheEnabled toggles cache participation at runtime. Disabling makes
// lookups report absent and stores become no-ops, but existing entries are
// preserved so re-enabling restores prior state.
func (c *Client) SetCacheEnabled(enabled bool) {
	c.cacheEnabled.Store(enabled)
}

// CacheEnabled reports whether cache participation is currently on.
func (c *Client) CacheEnabled() bool {
	return c.cache != nil && c.cacheEnabled.Load()
}

// ClearCache drops every cached entry. Entries are gone regardless of the
// enabled flag.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// TokenGuard exposes the client's token guard, e.g. to seed a token or to
// force expiry in tests.
func (c *Client) TokenGuard() *TokenGuard {
	return c.tokens
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// wait blocks until the scheduler fires after d or ctx is cancelled. The
// delay itself never occupies the calling goroutine's timer.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	fired := make(chan struct{})
	c.scheduler.After(d, func() { close(fired) })
	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) debugLog(concern func(*DebugConfig) bool) bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil && concern(c.debug)
}

// endpointFromDescriptor reduces a descriptor to a host+path label for
// metrics and logs, dropping query strings to keep cardinality bounded.
func endpointFromDescriptor(desc RequestDescriptor) string {
	u, err := url.Parse(desc.URL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return u.Host + path
}
