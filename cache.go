package tindak

import (
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"
)

const cacheShardCount = 16

// InMemoryCache is the default Cache: sharded maps guarded by RWMutexes so
// concurrent readers never contend across shards. Expiry is checked lazily
// on Get; there is no background sweeper.
type InMemoryCache struct {
	shards [cacheShardCount]*cacheShard
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{store: make(map[string]*CacheEntry)}
	}
	return c
}

func (c *InMemoryCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%cacheShardCount]
}

// Get returns the entry for key if present and not expired. Expired entries
// are evicted on the spot.
func (c *InMemoryCache) Get(key string) (*CacheEntry, bool) {
	shard := c.shard(key)

	shard.mu.RLock()
	entry, exists := shard.store[key]
	shard.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.Expired(time.Now()) {
		shard.mu.Lock()
		if current, ok := shard.store[key]; ok && current == entry {
			delete(shard.store, key)
		}
		shard.mu.Unlock()
		return nil, false
	}
	return entry, true
}

// Set stores entry under key with the given ttl, replacing any previous
// entry atomically.
func (c *InMemoryCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	now := time.Now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	shard := c.shard(key)
	shard.mu.Lock()
	shard.store[key] = entry
	shard.mu.Unlock()
}

// Delete removes the entry for key, if any.
func (c *InMemoryCache) Delete(key string) {
	shard := c.shard(key)
	shard.mu.Lock()
	delete(shard.store, key)
	shard.mu.Unlock()
}

// Clear drops every entry.
func (c *InMemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*CacheEntry)
		shard.mu.Unlock()
	}
}

// Len reports the number of live entries across all shards, expired ones
// included until their lazy eviction.
func (c *InMemoryCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// decodeEntry recovers a typed value from a cache entry. In-process caches
// carry the value as-is; byte-oriented backends carry a JSON payload. A
// mismatch is reported as a miss rather than an error so a stale or foreign
// entry simply falls through to the producer.
func decodeEntry[T any](entry *CacheEntry) (T, bool) {
	if entry.Value != nil {
		if v, ok := entry.Value.(T); ok {
			return v, true
		}
	}
	if len(entry.Payload) > 0 {
		var v T
		if err := json.Unmarshal(entry.Payload, &v); err == nil {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// encodeEntry builds a cache entry from a typed value. The JSON payload is
// attached when the value is marshalable so byte-oriented backends can
// persist it; failures just skip the payload.
func encodeEntry[T any](value T) *CacheEntry {
	entry := &CacheEntry{Value: value}
	if payload, err := json.Marshal(value); err == nil {
		entry.Payload = payload
	}
	return entry
}
