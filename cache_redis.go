package tindak

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed Cache for sharing responses across processes.
// Entries are stored as a JSON envelope under a configurable key prefix;
// expiry is delegated to Redis TTLs, with the entry's own ExpiresAt kept as
// a second guard against clock skew between writers.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a cache on top of an existing Redis client.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "tindak:cache:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves the entry for key. Only the JSON payload survives the round
// trip; the typed value is reconstructed by the action on hit.
func (c *RedisCache) Get(key string) (*CacheEntry, bool) {
	data, err := c.client.Get(context.Background(), c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Expired(time.Now()) {
		return nil, false
	}
	return &entry, true
}

// Set stores entry under key with the given ttl. Entries without a JSON
// payload cannot be shared across processes and are skipped.
func (c *RedisCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	if len(entry.Payload) == 0 {
		return
	}
	now := time.Now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.client.Set(context.Background(), c.prefix+key, data, ttl)
}

// Delete removes the entry for key.
func (c *RedisCache) Delete(key string) {
	c.client.Del(context.Background(), c.prefix+key)
}

// Clear drops every entry under the cache's prefix.
func (c *RedisCache) Clear() {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
