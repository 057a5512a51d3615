// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/pkg/uuid"
)

// Fixed callers shared by the moderation tests.
var (
	anonymous = sec.Anonymous
	visitor   = sec.Principal{ID: uuid.New(), Role: sec.RolePublic}
	alice     = sec.Principal{ID: uuid.New(), Role: sec.RoleRegistered}
	bob       = sec.Principal{ID: uuid.New(), Role: sec.RoleRegistered}
	scholar   = sec.Principal{ID: uuid.New(), Role: sec.RoleUlama}
	scholar2  = sec.Principal{ID: uuid.New(), Role: sec.RoleUlama}
	admin     = sec.Principal{ID: uuid.New(), Role: sec.RoleAdmin}
)

// allCallers covers every role, including anonymous.
var allCallers = []sec.Principal{anonymous, visitor, alice, bob, scholar, scholar2, admin}

// clock hands out strictly increasing instants so that submission order is deterministic.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []moderation.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.events = append(p.events, value.(moderation.Event))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) actions() []moderation.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]moderation.Action, len(p.events))
	for i, event := range p.events {
		actions[i] = event.Action
	}
	return actions
}

type fixture struct {
	service   *moderation.Service
	store     *moderation.MemoryStore
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := moderation.NewMemoryStore()
	publisher := &recordingPublisher{}
	m := metrics.New()

	service := moderation.NewService(moderation.Dependencies{
		Registry:      store,
		AuditLog:      store,
		Publisher:     publisher,
		Metrics:       m,
		Clock:         newClock().Now,
		QueuePageSize: 2,
	})
	return &fixture{service: service, store: store, publisher: publisher, metrics: m}
}

func notePayload(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"surah":2,"ayah":255,"text":%q}`, text))
}

// submit creates a note and fails the test on error.
func (f *fixture) submit(t *testing.T, who sec.Principal, visibility moderation.Tier, text string) *moderation.Item {
	t.Helper()
	item, err := f.service.Submit(context.Background(), who, content.KindNote, moderation.Submission{
		Payload:    notePayload(text),
		Visibility: string(visibility),
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) get(t *testing.T, item *moderation.Item) *moderation.Item {
	t.Helper()
	stored, err := f.store.Get(context.Background(), item.ContentType, item.ID)
	require.NoError(t, err)
	return stored
}

func (f *fixture) history(t *testing.T, item *moderation.Item) []moderation.Event {
	t.Helper()
	events, err := f.store.History(context.Background(), item.ContentType, item.ID)
	require.NoError(t, err)
	return events
}
