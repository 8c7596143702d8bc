package tindak

import (
	"context"
	"time"
)

// Producer is the unit of work an Action wraps: a zero-argument operation
// that performs one or more HTTP calls and returns a typed result or a
// classified failure (see errors.go). The engine depends only on the
// classification, never on the payload shape.
type Producer[T any] func(ctx context.Context) (T, error)

// CacheEntry is a stored response keyed by request fingerprint. Value holds
// the typed result for in-process caches; Payload holds a JSON encoding for
// byte-oriented backends such as Redis. An entry is served only while
// now < StoredAt+TTL, i.e. before ExpiresAt.
type CacheEntry struct {
	Value     interface{} `json:"-"`
	Payload   []byte      `json:"payload,omitempty"`
	StoredAt  time.Time   `json:"stored_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is the response cache consulted before a producer runs. Expired
// entries are treated as absent and may be lazily evicted on lookup.
// Implementations must be safe for concurrent use and must replace entries
// atomically per key.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Scheduler runs a callback once, no earlier than d after scheduling,
// without blocking the caller. The engine uses it for retry backoff and for
// dispatching async completion callbacks. No ordering is guaranteed between
// independently scheduled callbacks.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Option configures a Client.
type Option func(*Client)
