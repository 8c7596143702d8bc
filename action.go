package tindak

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Action is the lazy, cold, reusable unit of work representing one logical
// API call. Completing it runs the full pipeline — cache lookup, token
// check, producer invocation, rate-limit retry, cache store — every time;
// results are never memoized on the action itself, so a repeated completion
// re-executes unless the cache intervenes.
//
// An action is cheap to build and carries no mutable state across
// completions; create one per call site invocation and discard it.
type Action[T any] struct {
	client    *Client
	desc      RequestDescriptor
	key       string
	produce   Producer[T]
	cacheable bool
	ttl       time.Duration
}

// ActionOption configures a single Action.
type ActionOption[T any] func(*Action[T])

// WithActionTTL overrides the client-wide cache TTL for this action.
func WithActionTTL[T any](ttl time.Duration) ActionOption[T] {
	return func(a *Action[T]) {
		a.ttl = ttl
	}
}

// WithoutActionCache keeps this action out of the response cache even when
// caching is enabled on the client.
func WithoutActionCache[T any]() ActionOption[T] {
	return func(a *Action[T]) {
		a.cacheable = false
	}
}

// NewAction wraps a producer into an executable action. desc describes the
// request for fingerprinting; producers that issue several HTTP calls should
// describe the primary one.
func NewAction[T any](client *Client, desc RequestDescriptor, produce Producer[T], options ...ActionOption[T]) *Action[T] {
	a := &Action[T]{
		client:    client,
		desc:      desc,
		key:       Fingerprint(desc),
		produce:   produce,
		cacheable: true,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Fingerprint returns the cache key derived from the action's descriptor.
func (a *Action[T]) Fingerprint() string {
	return a.key
}

// Do completes the action synchronously, blocking the calling goroutine
// until a result or an error is available. On a cache hit the producer is
// never invoked. Errors other than rate limiting propagate verbatim; rate
// limiting is retried per the client's policy before failing.
func (a *Action[T]) Do(ctx context.Context) (T, error) {
	var zero T
	c := a.client

	if c.validationError != nil {
		return zero, c.validationError
	}

	start := time.Now()
	endpoint := endpointFromDescriptor(a.desc)

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugLog(func(d *DebugConfig) bool { return d.LogActions }) {
		c.logger.Debug("Starting action", "requestID", requestID, "method", a.desc.Method, "url", a.desc.URL, "endpoint", endpoint)
	}
	if c.metrics != nil {
		c.metrics.RecordActionStart(endpoint)
	}

	result, err := a.runCoalesced(ctx, endpoint, requestID)

	if c.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RecordActionEnd(endpoint, outcome, time.Since(start))
	}
	return result, err
}

// DoAsync completes the action without blocking the caller; the pipeline
// runs on a scheduler-dispatched goroutine and exactly one of the callbacks
// is invoked afterwards. Callbacks never run inline with the triggering
// call.
func (a *Action[T]) DoAsync(ctx context.Context, onResult func(T), onError func(error)) {
	scheduler := a.client.scheduler
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	scheduler.After(0, func() {
		result, err := a.Do(ctx)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onResult != nil {
			onResult(result)
		}
	})
}

// Future adapts the async completion into a promise. The returned future
// completes with the action's result or in a failed state with its error.
func (a *Action[T]) Future(ctx context.Context) *Future[T] {
	f := newFuture[T]()
	a.DoAsync(ctx,
		func(v T) { f.complete(v, nil) },
		func(err error) {
			var zero T
			f.complete(zero, err)
		},
	)
	return f
}

// runCoalesced folds concurrent completions sharing a fingerprint into one
// producer run when deduplication is enabled.
func (a *Action[T]) runCoalesced(ctx context.Context, endpoint, requestID string) (T, error) {
	c := a.client

	if c.dedup == nil || !a.cacheable {
		return a.run(ctx, endpoint, requestID)
	}

	v, err, owner := c.dedup.Do(a.key, func() (interface{}, error) {
		return a.run(ctx, endpoint, requestID)
	})
	if !owner && c.metrics != nil {
		c.metrics.RecordDeduplicationHit(endpoint)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		// A waiter can share a fingerprint with an action of a different
		// result type; the coalesced value is useless to it, so run alone.
		return a.run(ctx, endpoint, requestID)
	}
	return result, nil
}

// run executes the pipeline once: cache lookup, throttle, token check,
// producer invocation with rate-limit retries, cache store.
func (a *Action[T]) run(ctx context.Context, endpoint, requestID string) (T, error) {
	var zero T
	c := a.client

	useCache := c.CacheEnabled() && a.cacheable

	if useCache {
		if entry, found := c.cache.Get(a.key); found {
			if value, ok := decodeEntry[T](entry); ok {
				if c.debugLog(func(d *DebugConfig) bool { return d.LogCache }) {
					c.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", a.key)
				}
				if c.metrics != nil {
					c.metrics.RecordCacheHit(endpoint)
				}
				return value, nil
			}
		}
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(endpoint)
		}
		if c.debugLog(func(d *DebugConfig) bool { return d.LogCache }) {
			c.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", a.key)
		}
	}

	if c.throttle != nil {
		if c.debugLog(func(d *DebugConfig) bool { return d.LogThrottle }) {
			c.logger.Debug("Waiting for throttle", "requestID", requestID, "endpoint", endpoint)
		}
		if err := c.throttle.Wait(ctx); err != nil {
			return zero, err
		}
	}

	if err := a.ensureToken(ctx, endpoint, requestID); err != nil {
		return zero, err
	}

	result, err := a.invokeWithRetry(ctx, endpoint, requestID)
	if err != nil {
		return zero, err
	}

	if useCache {
		ttl := a.ttl
		if ttl <= 0 {
			ttl = c.cacheTTL
		}
		c.cache.Set(a.key, encodeEntry(result), ttl)
		if c.metrics != nil {
			if mem, ok := c.cache.(*InMemoryCache); ok {
				c.metrics.RecordCacheSize("default", mem.Len())
			}
		}
		if c.debugLog(func(d *DebugConfig) bool { return d.LogCache }) {
			c.logger.Debug("Response cached", "requestID", requestID, "cacheKey", a.key, "ttl", ttl)
		}
	}

	return result, nil
}

// ensureToken refreshes an expired token before the producer runs. A client
// without any credential material skips the check; endpoint code may still
// call public endpoints keylessly.
func (a *Action[T]) ensureToken(ctx context.Context, endpoint, requestID string) error {
	c := a.client

	if !c.autoRefresh || c.tokens == nil {
		return nil
	}
	if c.tokens.Current() == nil && !c.tokens.HasRefresher() {
		return nil
	}

	if _, err := c.tokens.EnsureValid(ctx); err != nil {
		if c.debugLog(func(d *DebugConfig) bool { return d.LogToken }) {
			c.logger.Warn("Token refresh failed", "requestID", requestID, "endpoint", endpoint, "error", err.Error())
		}
		if c.metrics != nil {
			c.metrics.RecordError(ErrorTypeAuthentication, endpoint)
		}
		return err
	}
	return nil
}

// invokeWithRetry runs the producer, retrying through the rate-limit policy.
// Every non-rate-limit error propagates verbatim.
func (a *Action[T]) invokeWithRetry(ctx context.Context, endpoint, requestID string) (T, error) {
	var zero T
	c := a.client

	for attempt := 0; ; attempt++ {
		result, err := a.produce(ctx)
		if err == nil {
			return result, nil
		}

		limited, ok := AsRateLimited(err)
		if !ok {
			if c.metrics != nil {
				c.metrics.RecordError(classify(err), endpoint)
			}
			return zero, err
		}

		// Producers that classify without a status still mean 429.
		status := limited.StatusCode
		if status == 0 {
			status = http.StatusTooManyRequests
		}

		decision := c.policy.Decide(attempt, status, retryAfterValue(limited), c.retryEnabled)
		if !decision.Retry {
			if c.metrics != nil {
				c.metrics.RecordError(ErrorTypeRateLimited, endpoint)
			}
			return zero, &ClientError{
				Type:       ErrorTypeRateLimited,
				Message:    "rate limited",
				Cause:      limited,
				StatusCode: status,
				RequestID:  requestID,
				Endpoint:   endpoint,
				Attempt:    attempt + 1,
				MaxRetries: c.maxRetryAttempts,
				Timestamp:  time.Now(),
			}
		}

		if c.metrics != nil {
			c.metrics.RecordRetry(endpoint, attempt+1)
		}
		if c.debugLog(func(d *DebugConfig) bool { return d.LogRetries }) {
			c.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "delay", decision.Delay, "endpoint", endpoint)
		}

		if err := c.wait(ctx, decision.Delay); err != nil {
			return zero, err
		}
	}
}

// retryAfterValue recovers the Retry-After header value from a classified
// rate-limit error so the policy can parse it. Producers that only kept the
// parsed duration get it re-rendered as delay-seconds, rounded up so a
// sub-second hint is not lost.
func retryAfterValue(limited *ClientError) string {
	if limited.RetryAfterHeader != "" {
		return limited.RetryAfterHeader
	}
	if limited.RetryAfter > 0 {
		seconds := (limited.RetryAfter + time.Second - 1) / time.Second
		return strconv.Itoa(int(seconds))
	}
	return ""
}

// classify maps an arbitrary producer error to a taxonomy label for metrics.
func classify(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrorTypeTransport
}
