package tindak

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ambiyansyah-risyal/tindak/internal/backoff"
)

// RateLimitDecision is the outcome of inspecting a rate-limited attempt:
// either retry after Delay, or give up.
type RateLimitDecision struct {
	Retry bool
	Delay time.Duration
}

// RateLimitPolicy decides what to do with a failed attempt that the remote
// service classified as rate limiting. attempt is zero-based; retryAfter is
// the raw Retry-After header value, possibly empty or malformed.
type RateLimitPolicy interface {
	Decide(attempt int, statusCode int, retryAfter string, retryEnabled bool) RateLimitDecision
}

// DefaultRateLimitPolicy retries 429 responses while retrying is enabled and
// the attempt ceiling is not exceeded. The delay comes from the Retry-After
// header when parsable, otherwise from the configured backoff strategy.
type DefaultRateLimitPolicy struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitter         float64
	strategy       backoff.Strategy
}

// NewDefaultRateLimitPolicy creates a policy with exponential-jitter backoff
// as the Retry-After fallback.
func NewDefaultRateLimitPolicy(maxAttempts int, initialBackoff, maxBackoff time.Duration, multiplier, jitter float64) *DefaultRateLimitPolicy {
	return &DefaultRateLimitPolicy{
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		multiplier:     multiplier,
		jitter:         jitter,
		strategy:       backoff.ExponentialJitterStrategy{},
	}
}

// NewRateLimitPolicyWithStrategy creates a policy with an explicit backoff
// strategy for the Retry-After fallback.
func NewRateLimitPolicyWithStrategy(maxAttempts int, initialBackoff, maxBackoff time.Duration, multiplier, jitter float64, strategy backoff.Strategy) *DefaultRateLimitPolicy {
	p := NewDefaultRateLimitPolicy(maxAttempts, initialBackoff, maxBackoff, multiplier, jitter)
	if strategy != nil {
		p.strategy = strategy
	}
	return p
}

// Decide implements RateLimitPolicy.
func (p *DefaultRateLimitPolicy) Decide(attempt int, statusCode int, retryAfter string, retryEnabled bool) RateLimitDecision {
	if statusCode != http.StatusTooManyRequests {
		return RateLimitDecision{}
	}
	if !retryEnabled || attempt >= p.maxAttempts {
		return RateLimitDecision{}
	}

	delay := parseRetryAfter(retryAfter)
	if delay == 0 {
		delay = p.strategy.Calculate(attempt, p.initialBackoff, p.maxBackoff, p.multiplier, p.jitter)
	}
	return RateLimitDecision{Retry: true, Delay: delay}
}

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date formats. Malformed values yield 0 so the
// caller falls back to its own backoff; delays are capped at one hour.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds > 0 {
			delay := time.Duration(seconds) * time.Second
			if delay > time.Hour {
				delay = time.Hour
			}
			return delay
		}
		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
