package tariff

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "tariff:tiers"

// Cache keeps the tier snapshot in Redis so quote traffic does not hit
// Postgres on every request. A nil cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetSnapshot loads the cached tier list. It reports whether the key existed.
func (c *Cache) GetSnapshot(ctx context.Context) ([]Record, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return records, true
}

// SetSnapshot stores the tier list with the configured TTL.
func (c *Cache) SetSnapshot(ctx context.Context, records []Record) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}

// Invalidate drops the cached snapshot after a write.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, snapshotKey).Err()
}
