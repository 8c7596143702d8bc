package tindak

import (
	"net/http"
	"testing"
	"time"

	"github.com/ambiyansyah-risyal/tindak/internal/backoff"
)

func testPolicy() *DefaultRateLimitPolicy {
	return NewDefaultRateLimitPolicy(3, 100*time.Millisecond, 5*time.Second, 2.0, 0)
}

func TestDecideRetriesOn429(t *testing.T) {
	decision := testPolicy().Decide(0, http.StatusTooManyRequests, "", true)
	if !decision.Retry {
		t.Fatal("Expected retry for 429 with budget left")
	}
	if decision.Delay <= 0 {
		t.Error("Expected positive fallback delay")
	}
}

func TestDecideHonorsRetryAfterSeconds(t *testing.T) {
	decision := testPolicy().Decide(0, http.StatusTooManyRequests, "7", true)
	if !decision.Retry {
		t.Fatal("Expected retry")
	}
	if decision.Delay != 7*time.Second {
		t.Errorf("Expected 7s from Retry-After, got %v", decision.Delay)
	}
}

func TestDecideHonorsRetryAfterHTTPDate(t *testing.T) {
	date := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	decision := testPolicy().Decide(0, http.StatusTooManyRequests, date, true)
	if !decision.Retry {
		t.Fatal("Expected retry")
	}
	if decision.Delay <= 0 || decision.Delay > 30*time.Second {
		t.Errorf("Expected delay derived from HTTP-date, got %v", decision.Delay)
	}
}

func TestDecideMalformedRetryAfterFallsBack(t *testing.T) {
	for _, value := range []string{"soon", "-5", "", "   ", "12.5h"} {
		decision := testPolicy().Decide(0, http.StatusTooManyRequests, value, true)
		if !decision.Retry {
			t.Fatalf("Expected retry for malformed Retry-After %q", value)
		}
		if decision.Delay <= 0 {
			t.Errorf("Expected fallback delay for %q, got %v", value, decision.Delay)
		}
	}
}

func TestDecideRetryDisabled(t *testing.T) {
	decision := testPolicy().Decide(0, http.StatusTooManyRequests, "7", false)
	if decision.Retry {
		t.Error("Expected failure when retrying is disabled")
	}
}

func TestDecideCeilingExceeded(t *testing.T) {
	policy := testPolicy()
	if decision := policy.Decide(2, http.StatusTooManyRequests, "", true); !decision.Retry {
		t.Error("Expected retry below the ceiling")
	}
	if decision := policy.Decide(3, http.StatusTooManyRequests, "", true); decision.Retry {
		t.Error("Expected failure at the ceiling")
	}
}

func TestDecideIgnoresOtherStatuses(t *testing.T) {
	for _, status := range []int{200, 400, 401, 500, 503} {
		if decision := testPolicy().Decide(0, status, "", true); decision.Retry {
			t.Errorf("Expected no retry decision for status %d", status)
		}
	}
}

func TestDecideFallbackDelaysIncrease(t *testing.T) {
	policy := testPolicy()
	first := policy.Decide(0, http.StatusTooManyRequests, "", true)
	second := policy.Decide(1, http.StatusTooManyRequests, "", true)
	if second.Delay <= first.Delay {
		t.Errorf("Expected growing fallback delays, got %v then %v", first.Delay, second.Delay)
	}
}

func TestPolicyWithFixedStrategy(t *testing.T) {
	policy := NewRateLimitPolicyWithStrategy(3, 250*time.Millisecond, 5*time.Second, 2.0, 0, backoff.FixedStrategy{})
	for attempt := 0; attempt < 3; attempt++ {
		decision := policy.Decide(attempt, http.StatusTooManyRequests, "", true)
		if decision.Delay != 250*time.Millisecond {
			t.Errorf("Attempt %d: expected flat 250ms, got %v", attempt, decision.Delay)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "12", 12 * time.Second},
		{"padded seconds", "  3 ", 3 * time.Second},
		{"zero", "0", 0},
		{"negative", "-1", 0},
		{"garbage", "soon", 0},
		{"capped", "7200", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.expected {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}
