package tindak

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewDefaults(t *testing.T) {
	client := New()
	if !client.IsValid() {
		t.Fatalf("Expected valid default configuration: %v", client.ValidationError())
	}
	if !client.CacheEnabled() {
		t.Error("Expected cache enabled by default")
	}
	if client.cacheTTL != 5*time.Minute {
		t.Errorf("Expected 5m default TTL, got %v", client.cacheTTL)
	}
	if !client.retryEnabled {
		t.Error("Expected rate-limit retries enabled by default")
	}
	if client.maxRetryAttempts != 10 {
		t.Errorf("Expected default retry ceiling 10, got %d", client.maxRetryAttempts)
	}
	if !client.autoRefresh {
		t.Error("Expected auto token refresh by default")
	}
	if client.policy == nil {
		t.Error("Expected a default rate-limit policy")
	}
	if client.tokens == nil {
		t.Error("Expected a token guard")
	}
}

func TestWithoutCache(t *testing.T) {
	client := New(WithoutCache())
	if client.CacheEnabled() {
		t.Error("Expected cache disabled")
	}
}

func TestWithCustomCache(t *testing.T) {
	cache := NewInMemoryCache()
	client := New(WithCustomCache(cache, time.Minute))
	if client.cache != Cache(cache) {
		t.Error("Expected custom cache installed")
	}
	if client.cacheTTL != time.Minute {
		t.Errorf("Expected 1m TTL, got %v", client.cacheTTL)
	}
}

func TestWithThrottle(t *testing.T) {
	client := New(WithThrottle(rate.Limit(10), 2))
	if client.throttle == nil {
		t.Fatal("Expected throttle configured")
	}
	if client.throttle.Burst() != 2 {
		t.Errorf("Expected burst 2, got %d", client.throttle.Burst())
	}
}

func TestWithTokenAndRefresher(t *testing.T) {
	tok := &Token{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)}
	client := New(WithToken(tok))
	if got := client.TokenGuard().Current(); got != tok {
		t.Errorf("Expected seeded token, got %+v", got)
	}
}

func TestWithTokenGuardOverrides(t *testing.T) {
	guard := NewTokenGuard(nil, nil, time.Second)
	client := New(WithTokenGuard(guard), WithToken(&Token{AccessToken: "ignored"}))
	if client.TokenGuard() != guard {
		t.Error("Expected explicit guard to win")
	}
}

func TestJitterClamping(t *testing.T) {
	if client := New(WithJitter(2.0)); client.jitter != 1 {
		t.Errorf("Expected jitter clamped to 1, got %f", client.jitter)
	}
	if client := New(WithJitter(-0.5)); client.jitter != 0 {
		t.Errorf("Expected jitter clamped to 0, got %f", client.jitter)
	}
}

func TestValidationRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
	}{
		{"negative retries", []Option{WithMaxRetryAttempts(-1)}},
		{"zero initial backoff", []Option{WithInitialBackoff(0)}},
		{"max below initial", []Option{WithInitialBackoff(time.Second), WithMaxBackoff(time.Millisecond)}},
		{"zero multiplier", []Option{WithBackoffMultiplier(0)}},
		{"zero cache ttl", []Option{WithCustomCache(NewInMemoryCache(), 0)}},
		{"nil scheduler", []Option{WithScheduler(nil)}},
		{"debug without logger", []Option{WithDebug()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.options...)
			if client.IsValid() {
				t.Error("Expected validation failure")
			}
		})
	}
}

func TestWithSimpleLoggerSatisfiesDebugValidation(t *testing.T) {
	client := New(WithSimpleLogger())
	if !client.IsValid() {
		t.Errorf("Expected valid configuration: %v", client.ValidationError())
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	client := New(WithSimpleLogger(), WithRequestIDGenerator(func() string { return "fixed" }))
	if got := client.debug.RequestIDGen(); got != "fixed" {
		t.Errorf("Expected custom generator, got %q", got)
	}
}
