// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
	"github.com/taibuivan/alfurqan/internal/platform/ctxutil"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
)

// generationTTL outlives any cache entry so that a counter cannot expire
// while a fill that read it is still in flight.
const generationTTL = 24 * time.Hour

// CachedRegistry is a Redis read cache in front of another [Registry].
//
// Only [CachedRegistry.Lookup] reads the cache; [Registry] methods, including
// Get, go to the wrapped registry so that moderation decisions never see a
// cached copy. Only approved, non-private items are cached.
//
// Every write bumps a per-item generation counter and evicts the key. A fill
// records the generation before reading the database and is written under
// WATCH only if the counter has not moved, so a slow reader cannot put back
// a copy older than the last write. Redis failures are logged and the read
// falls through to the wrapped registry.
type CachedRegistry struct {
	Registry

	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedRegistry wraps inner. m may be nil.
func NewCachedRegistry(inner Registry, client *redis.Client, ttl time.Duration, m *metrics.Metrics) *CachedRegistry {
	return &CachedRegistry{
		Registry: inner,
		client:   client,
		ttl:      ttl,
		metrics:  m,
	}
}

func cacheKey(kind content.Kind, id string) string {
	return constants.RedisPrefixApproved + string(kind) + ":" + id
}

func generationKey(kind content.Kind, id string) string {
	return constants.RedisPrefixGeneration + string(kind) + ":" + id
}

// Lookup returns the item, from the cache when possible.
func (c *CachedRegistry) Lookup(ctx context.Context, kind content.Kind, id string) (*Item, error) {
	key := cacheKey(kind, id)
	logger := ctxutil.GetLogger(ctx)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var item Item
		if jsonErr := json.Unmarshal(raw, &item); jsonErr == nil {
			c.observe("hit")
			return &item, nil
		}
		c.observe("error")
		logger.WarnContext(ctx, "cache_entry_corrupt", slog.String("key", key))

	case errors.Is(err, redis.Nil):
		c.observe("miss")

	default:
		c.observe("error")
		logger.WarnContext(ctx, "cache_get_failed", slog.String("key", key), slog.Any("error", err))
		return c.Registry.Get(ctx, kind, id)
	}

	generation, genErr := c.generation(ctx, c.client, kind, id)

	item, err := c.Registry.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if genErr == nil && item.Tier != TierPrivate && item.Status == StatusApproved {
		c.fill(ctx, item, generation)
	}
	return item, nil
}

// fill stores item unless a write bumped its generation since it was read.
func (c *CachedRegistry) fill(ctx context.Context, item *Item, generation int64) {
	key := cacheKey(item.ContentType, item.ID)
	genKey := generationKey(item.ContentType, item.ID)

	encoded, err := json.Marshal(item)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, item.ContentType, item.ID)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		ctxutil.GetLogger(ctx).DebugContext(ctx, "cache_fill_skipped", slog.String("key", key))
	default:
		ctxutil.GetLogger(ctx).WarnContext(ctx, "cache_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}

var errStaleFill = errors.New("moderation: cache fill raced a write")

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *CachedRegistry) generation(ctx context.Context, cmd getter, kind content.Kind, id string) (int64, error) {
	n, err := cmd.Get(ctx, generationKey(kind, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *CachedRegistry) Update(ctx context.Context, cond Condition, item *Item, event *Event) (*Item, error) {
	updated, err := c.Registry.Update(ctx, cond, item, event)
	c.evict(ctx, item.ContentType, item.ID)
	return updated, err
}

func (c *CachedRegistry) Delete(ctx context.Context, kind content.Kind, id string, cond Condition, event Event) error {
	err := c.Registry.Delete(ctx, kind, id, cond, event)
	c.evict(ctx, kind, id)
	return err
}

// evict bumps the generation and drops the cached copy in one transaction.
func (c *CachedRegistry) evict(ctx context.Context, kind content.Kind, id string) {
	key := cacheKey(kind, id)
	genKey := generationKey(kind, id)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "cache_evict_failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (c *CachedRegistry) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
