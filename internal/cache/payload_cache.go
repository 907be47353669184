// Package cache provides the Redis-backed payload cache sitting in front
// of the filtered re-aggregation path. Entries carry no TTL: the retained
// store only changes on a full rebuild, at which point the whole cache is
// cleared.
package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"property-analytics/internal/domain"
)

const keyPrefix = "dash:filtered:"

// PayloadCache caches filtered dashboard payloads keyed by filter
// combination. All operations are best-effort: a cache failure degrades to
// recomputation, never to a request error.
type PayloadCache struct {
	client *redis.Client
	logger *zap.Logger
}

// New creates a PayloadCache on an existing Redis client.
func New(client *redis.Client, logger *zap.Logger) *PayloadCache {
	return &PayloadCache{client: client, logger: logger}
}

// GetFiltered returns the cached payload for a filter key, or ok=false on
// miss or cache failure.
func (c *PayloadCache) GetFiltered(ctx context.Context, key string) (*domain.FilteredPayload, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var p domain.FilteredPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, keyPrefix+key)
		return nil, false
	}
	return &p, true
}

// SetFiltered stores a filtered payload.
func (c *PayloadCache) SetFiltered(ctx context.Context, key string, p *domain.FilteredPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes every cached payload. Called once per published rebuild.
func (c *PayloadCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn("cache clear failed", zap.Error(err))
		}
	}
}
