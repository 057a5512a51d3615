// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
)

type cacheFixture struct {
	*fixture
	cache  *moderation.CachedRegistry
	server *miniredis.Miniredis
}

func setupCache(t *testing.T) *cacheFixture {
	t.Helper()
	store := moderation.NewMemoryStore()
	return setupCacheOver(t, store, store)
}

// setupCacheOver caches inner, which must be backed by store.
func setupCacheOver(t *testing.T, inner moderation.Registry, store *moderation.MemoryStore) *cacheFixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New()
	cache := moderation.NewCachedRegistry(inner, client, time.Minute, m)

	service := moderation.NewService(moderation.Dependencies{
		Registry: cache,
		Reader:   cache,
		AuditLog: store,
		Metrics:  m,
		Clock:    newClock().Now,
	})

	return &cacheFixture{
		fixture: &fixture{service: service, store: store, publisher: &recordingPublisher{}, metrics: m},
		cache:   cache,
		server:  server,
	}
}

func (c *cacheFixture) lookups(result string) float64 {
	return testutil.ToFloat64(c.metrics.CacheLookups.WithLabelValues(result))
}

func TestCachedRegistry_CachesApprovedItems(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, scholar, moderation.TierPublic, "cached")
	key := "moderation:approved:note:" + item.ID

	_, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.True(t, c.server.Exists(key))
	assert.Equal(t, 1.0, c.lookups("miss"))

	got, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, moderation.StatusApproved, got.Status)
	assert.JSONEq(t, string(item.Payload), string(got.Payload))
	assert.Equal(t, 1.0, c.lookups("hit"))

	assert.Equal(t, time.Minute, c.server.TTL(key))
}

func TestCachedRegistry_SkipsUnpublishedItems(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	pending := c.submit(t, alice, moderation.TierCommunity, "pending")
	draft := c.submit(t, alice, moderation.TierPrivate, "draft")

	for _, item := range []*moderation.Item{pending, draft} {
		_, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
		require.NoError(t, err)
		assert.False(t, c.server.Exists("moderation:approved:note:"+item.ID))
	}
}

func TestCachedRegistry_EvictsOnReview(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, alice, moderation.TierCommunity, "first")
	_, err := c.service.Decide(ctx, scholar, content.KindNote, item.ID, "approved")
	require.NoError(t, err)

	// Warm the cache, then edit: the edit must not be served stale.
	_, err = c.service.View(ctx, bob, content.KindNote, item.ID)
	require.NoError(t, err)

	_, err = c.service.Revise(ctx, alice, content.KindNote, item.ID, moderation.RevisionInput{Payload: notePayload("second")})
	require.NoError(t, err)
	assert.False(t, c.server.Exists("moderation:approved:note:"+item.ID))

	_, err = c.service.View(ctx, bob, content.KindNote, item.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden), "pending again, hidden from bob")
}

func TestCachedRegistry_EvictsOnDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, scholar, moderation.TierPublic, "short lived")
	_, err := c.service.View(ctx, anonymous, content.KindNote, item.ID)
	require.NoError(t, err)

	require.NoError(t, c.service.Delete(ctx, scholar, content.KindNote, item.ID))

	_, err = c.service.View(ctx, anonymous, content.KindNote, item.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestCachedRegistry_FallsBackWhenRedisIsDown(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, scholar, moderation.TierPublic, "resilient")
	c.server.Close()

	got, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, 1.0, c.lookups("error"))
}

func TestCachedRegistry_CorruptEntry(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, scholar, moderation.TierPublic, "overwritten")
	require.NoError(t, c.server.Set("moderation:approved:note:"+item.ID, "{not json"))

	got, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
}

func TestCachedRegistry_GetBypassesCache(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	item := c.submit(t, scholar, moderation.TierPublic, "authoritative")
	_, err := c.cache.Lookup(ctx, content.KindNote, item.ID)
	require.NoError(t, err)

	// A write that bypasses the decorator leaves a stale cached copy behind.
	stored := c.get(t, item)
	stored.Tier, stored.Status = moderation.TierCommunity, moderation.StatusPending
	stored.ReviewerID, stored.ReviewedAt = nil, nil
	_, err = c.store.Update(ctx, moderation.Condition{}, stored, nil)
	require.NoError(t, err)

	got, err := c.cache.Get(ctx, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusPending, got.Status)

	_, err = c.service.Decide(ctx, scholar2, content.KindNote, item.ID, "approved")
	assert.NoError(t, err, "decisions read the registry, not the cache")
}

// pausingRegistry holds the first armed Get after its read until released.
type pausingRegistry struct {
	moderation.Registry

	mu      sync.Mutex
	armed   bool
	reached chan struct{}
	release chan struct{}
}

func newPausingRegistry(inner moderation.Registry) *pausingRegistry {
	return &pausingRegistry{
		Registry: inner,
		reached:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *pausingRegistry) arm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.armed = true
}

func (p *pausingRegistry) Get(ctx context.Context, kind content.Kind, id string) (*moderation.Item, error) {
	item, err := p.Registry.Get(ctx, kind, id)

	p.mu.Lock()
	pause := p.armed
	p.armed = false
	p.mu.Unlock()

	if pause {
		close(p.reached)
		<-p.release
	}
	return item, err
}

func TestCachedRegistry_FillDoesNotOutliveEdit(t *testing.T) {
	store := moderation.NewMemoryStore()
	pausing := newPausingRegistry(store)
	c := setupCacheOver(t, pausing, store)
	ctx := context.Background()

	item := c.submit(t, alice, moderation.TierCommunity, "first")
	_, err := c.service.Decide(ctx, scholar, content.KindNote, item.ID, "approved")
	require.NoError(t, err)

	// An anonymous read fetches the approved row and stalls before filling.
	pausing.arm()
	done := make(chan error, 1)
	go func() {
		_, err := c.service.View(ctx, anonymous, content.KindNote, item.ID)
		done <- err
	}()
	<-pausing.reached

	_, err = c.service.Revise(ctx, alice, content.KindNote, item.ID, moderation.RevisionInput{Payload: notePayload("second")})
	require.NoError(t, err)

	close(pausing.release)
	require.NoError(t, <-done)

	assert.False(t, c.server.Exists("moderation:approved:note:"+item.ID), "stale fill discarded")

	_, err = c.service.View(ctx, anonymous, content.KindNote, item.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized), "pending again, hidden from anonymous: %v", err)

	approved, err := c.service.Decide(ctx, scholar2, content.KindNote, item.ID, "approved")
	require.NoError(t, err)
	assert.Contains(t, string(approved.Payload), "second")

	got, err := c.service.View(ctx, anonymous, content.KindNote, item.ID)
	require.NoError(t, err)
	assert.Contains(t, string(got.Payload), "second")
}
