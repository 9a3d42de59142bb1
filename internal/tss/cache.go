package tss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smarena/internal/constants"
	"smarena/internal/logger"
	"smarena/pkg/metrics"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// CachedResolver remembers resolved ids. Misses are not cached since a
// practitioner may be registered at any time. Cache failures only cost a
// lookup, so they are logged and otherwise ignored.
type CachedResolver struct {
	next   Resolver
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedResolver(next Resolver, cache Cache, ttl time.Duration, log logger.Logger) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, ttl: ttl, logger: log}
}

func (r *CachedResolver) Resolve(ctx context.Context, fnr, orgName, requestID string) (string, error) {
	key := cacheKey(fnr, orgName)

	id, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WarnwCtx(ctx, "Failed to read tssid cache", "error", err)
	}
	if found {
		metrics.IncTSSCache("hit")
		return id, nil
	}
	metrics.IncTSSCache("miss")

	id, err = r.next.Resolve(ctx, fnr, orgName, requestID)
	if err != nil || id == "" {
		return id, err
	}

	if err := r.cache.Set(ctx, key, id, r.ttl); err != nil {
		r.logger.WarnwCtx(ctx, "Failed to write tssid cache", "error", err)
	}
	return id, nil
}

func cacheKey(fnr, orgName string) string {
	return constants.CacheKeyPrefixTSS + fnr + ":" + orgName
}
