package tindak

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollectorRecords(t *testing.T) {
	registry := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(registry)

	mc.RecordActionStart("api.example.com/v1/items")
	mc.RecordActionEnd("api.example.com/v1/items", "success", 25*time.Millisecond)
	mc.RecordCacheHit("api.example.com/v1/items")
	mc.RecordCacheMiss("api.example.com/v1/items")
	mc.RecordRetry("api.example.com/v1/items", 1)
	mc.RecordTokenRefresh("success")
	mc.RecordError(ErrorTypeRemote, "api.example.com/v1/items")

	if got := testutil.ToFloat64(mc.cacheHits.WithLabelValues("api.example.com/v1/items")); got != 1 {
		t.Errorf("Expected 1 cache hit, got %f", got)
	}
	if got := testutil.ToFloat64(mc.actionsInFlight.WithLabelValues("api.example.com/v1/items")); got != 0 {
		t.Errorf("Expected 0 in flight after end, got %f", got)
	}
	if got := testutil.ToFloat64(mc.tokenRefreshes.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 refresh recorded, got %f", got)
	}
}

func TestActionPipelineRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(registry)
	client := New(WithCache(time.Minute), WithMetricsCollector(mc))

	var calls atomic.Int32
	action := NewAction(client, testDescriptor(), countingProducer(&calls, "payload"))
	endpoint := endpointFromDescriptor(testDescriptor())

	if _, err := action.Do(context.Background()); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if _, err := action.Do(context.Background()); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if got := testutil.ToFloat64(mc.cacheMisses.WithLabelValues(endpoint)); got != 1 {
		t.Errorf("Expected 1 cache miss, got %f", got)
	}
	if got := testutil.ToFloat64(mc.cacheHits.WithLabelValues(endpoint)); got != 1 {
		t.Errorf("Expected 1 cache hit, got %f", got)
	}
	if got := testutil.ToFloat64(mc.actionsTotal.WithLabelValues(endpoint, "success")); got != 2 {
		t.Errorf("Expected 2 successful actions, got %f", got)
	}
}

func TestEndpointFromDescriptor(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://api.example.com/v1/items?page=2", "api.example.com/v1/items"},
		{"https://api.example.com", "api.example.com/"},
		{"://bad", "unknown"},
	}
	for _, tt := range tests {
		desc := RequestDescriptor{Method: "GET", URL: tt.url}
		if got := endpointFromDescriptor(desc); got != tt.expected {
			t.Errorf("endpointFromDescriptor(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
