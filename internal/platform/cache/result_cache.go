// Package cache provides a Redis-backed store for analysis results.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"agriscan_backend/internal/feature/analysis/domain/entity"
	"agriscan_backend/internal/feature/analysis/usecase"
)

// Defaults applied by NewRedisResultCache.
const (
	DefaultTTL       = 10 * time.Minute
	DefaultNamespace = "analysis"
)

// RedisResultCache stores analysis results keyed by the SHA-256 of the image bytes.
// A nil client turns every operation into a no-op miss.
type RedisResultCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.ResultCache = (*RedisResultCache)(nil)

// NewRedisResultCache creates a result cache.
// If ttl is 0, it defaults to 10 minutes. If namespace is empty, it uses "analysis".
func NewRedisResultCache(rdb *redis.Client, ttl time.Duration, namespace string) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisResultCache{rdb: rdb, ttl: ttl, namespace: namespace}
}

// Get returns the cached result for digest.
// A missing or corrupted entry is reported as a miss. Corrupted entries are deleted.
func (c *RedisResultCache) Get(ctx context.Context, digest string) (*entity.AnalysisResult, bool, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return nil, false, nil
	}

	key := c.cacheKey(digest)
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var out entity.AnalysisResult
	if err := sonic.Unmarshal(b, &out); err != nil || len(b) == 0 {
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return &out, true, nil
}

// Set stores result under digest with the configured TTL.
func (c *RedisResultCache) Set(ctx context.Context, digest string, result *entity.AnalysisResult) error {
	if c.rdb == nil || result == nil {
		return nil
	}

	b, err := sonic.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	key := c.cacheKey(digest)
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *RedisResultCache) cacheKey(digest string) string {
	return c.namespace + ":" + digest
}
