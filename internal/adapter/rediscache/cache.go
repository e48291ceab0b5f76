// Package rediscache is a Redis-backed insight cache for deployments where
// analysis runs on several replicas and the in-process LRU would be cold on
// each of them.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

// CachedInsighter wraps an Insighter with a shared Redis cache keyed by
// hotspot ID. Cache failures degrade to calling the inner insighter; Redis
// being down must never block insight generation.
type CachedInsighter struct {
	inner  domain.Insighter
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and wraps inner with the shared cache.
func New(inner domain.Insighter, addr string, ttl time.Duration, logger *slog.Logger) (*CachedInsighter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		MaxRetries: 3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &CachedInsighter{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func insightKey(hotspotID string) string {
	return "insight:" + hotspotID
}

func (c *CachedInsighter) HotspotInsight(ctx context.Context, s domain.HotspotSummary) (domain.Insight, error) {
	key := insightKey(s.HotspotID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var insight domain.Insight
		if err := json.Unmarshal(raw, &insight); err == nil {
			return insight, nil
		}
		c.logger.Warn("corrupt cached insight, regenerating", "key", key)
	case err != redis.Nil:
		c.logger.Warn("redis get failed, bypassing cache", "key", key, "error", err)
	}

	insight, err := c.inner.HotspotInsight(ctx, s)
	if err != nil {
		return insight, err
	}

	raw, err = json.Marshal(insight)
	if err != nil {
		return insight, fmt.Errorf("marshal insight: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
	}
	return insight, nil
}

// Ping reports whether Redis is reachable.
func (c *CachedInsighter) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *CachedInsighter) Close() error {
	return c.client.Close()
}
