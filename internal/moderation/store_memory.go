// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
)

type itemKey struct {
	kind content.Kind
	id   string
}

// MemoryStore is an in-process [Registry] and [AuditLog] used by tests and
// local development. A single mutex makes every conditional write a
// compare-and-swap and keeps item and audit writes atomic.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[itemKey]*Item
	events []Event
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[itemKey]*Item)}
}

// # Registry

func (s *MemoryStore) Insert(_ context.Context, item *Item, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemKey{item.ContentType, item.ID}
	if _, exists := s.items[key]; exists {
		return apperr.Conflict("Contribution already exists")
	}
	s.items[key] = item.Clone()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, kind content.Kind, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemKey{kind, id}]
	if !ok {
		return nil, apperr.NotFound("Contribution")
	}
	return item.Clone(), nil
}

func (s *MemoryStore) Find(_ context.Context, query Query) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(query)

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []*Item{}, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	result := make([]*Item, len(matched))
	for i, item := range matched {
		result[i] = item.Clone()
	}
	return result, nil
}

func (s *MemoryStore) Count(_ context.Context, query Query) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query.After = nil
	return len(s.match(query)), nil
}

func (s *MemoryStore) Update(_ context.Context, cond Condition, item *Item, event *Event) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemKey{item.ContentType, item.ID}
	current, ok := s.items[key]
	if !ok {
		return nil, apperr.NotFound("Contribution")
	}
	if !cond.Holds(current) {
		return nil, ErrPreconditionFailed
	}

	next := item.Clone()
	// Identity fields are immutable.
	next.OwnerID = current.OwnerID
	next.SubmittedAt = current.SubmittedAt

	s.items[key] = next
	if event != nil {
		s.events = append(s.events, *event)
	}
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, kind content.Kind, id string, cond Condition, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := itemKey{kind, id}
	current, ok := s.items[key]
	if !ok {
		return apperr.NotFound("Contribution")
	}
	if !cond.Holds(current) {
		return ErrPreconditionFailed
	}

	delete(s.items, key)
	s.events = append(s.events, event)
	return nil
}

// match filters and sorts under the caller's lock.
func (s *MemoryStore) match(query Query) []*Item {
	var matched []*Item
	for _, item := range s.items {
		if query.Kind != "" && item.ContentType != query.Kind {
			continue
		}
		if query.Visible != nil && !query.Visible.Match(item) {
			continue
		}
		if query.OwnerID != "" && item.OwnerID != query.OwnerID {
			continue
		}
		if query.ExcludeOwnerID != "" && item.OwnerID == query.ExcludeOwnerID {
			continue
		}
		if len(query.Statuses) > 0 && !slices.Contains(query.Statuses, item.Status) {
			continue
		}
		if query.ExcludePrivate && item.Tier == TierPrivate {
			continue
		}
		if query.Text != "" && !content.MatchText(item.ContentType, item.Payload, query.Text) {
			continue
		}
		if query.After != nil && !afterCursor(item, *query.After, query.Order) {
			continue
		}
		matched = append(matched, item)
	}

	slices.SortFunc(matched, func(a, b *Item) int {
		c := cmp.Or(a.SubmittedAt.Compare(b.SubmittedAt), strings.Compare(a.ID, b.ID))
		if query.Order == NewestFirst {
			return -c
		}
		return c
	})
	return matched
}

func afterCursor(item *Item, cursor Cursor, order Order) bool {
	c := cmp.Or(item.SubmittedAt.Compare(cursor.SubmittedAt), strings.Compare(item.ID, cursor.ID))
	if order == NewestFirst {
		return c < 0
	}
	return c > 0
}

// # AuditLog

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) History(_ context.Context, kind content.Kind, id string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []Event
	for _, event := range s.events {
		if event.ContentType == kind && event.ContentID == id {
			history = append(history, event)
		}
	}
	return history, nil
}

func (s *MemoryStore) Events(_ context.Context, filter AuditFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if !filter.Matches(s.events[i]) {
			continue
		}
		events = append(events, s.events[i])
		if filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}
	return events, nil
}
