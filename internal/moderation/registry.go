// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/alfurqan/internal/content"
)

// ErrPreconditionFailed is returned by [Registry.Update] and [Registry.Delete]
// when the stored row no longer matches the [Condition]. Callers translate it
// into a domain error.
var ErrPreconditionFailed = errors.New("moderation: precondition failed")

// Condition guards a write. Zero fields are not checked.
type Condition struct {
	Status  Status
	OwnerID string
}

// Holds reports whether item satisfies the condition.
func (c Condition) Holds(item *Item) bool {
	if c.Status != "" && item.Status != c.Status {
		return false
	}
	if c.OwnerID != "" && item.OwnerID != c.OwnerID {
		return false
	}
	return true
}

// Order selects the sort direction of a [Query].
type Order int

const (
	// OldestFirst sorts by (submitted_at, id) ascending.
	OldestFirst Order = iota
	// NewestFirst sorts by (submitted_at, id) descending.
	NewestFirst
)

// Cursor marks a position in (submitted_at, id) order for keyset paging.
type Cursor struct {
	SubmittedAt time.Time
	ID          string
}

// Query selects items. Zero fields are not filtered on.
type Query struct {
	// Kind restricts results to one content type. Empty means every type.
	Kind content.Kind
	// Visible applies a viewer's visibility rule.
	Visible *Predicate
	OwnerID string
	// ExcludeOwnerID drops a reviewer's own submissions from the queue.
	ExcludeOwnerID string
	Statuses       []Status
	ExcludePrivate bool
	// Text is a case-insensitive substring match on the free-text payload fields.
	Text   string
	Order  Order
	After  *Cursor
	Limit  int
	Offset int
}

// Registry is the storage capability shared by every content type.
//
// Writes that change moderation state carry the audit [Event] describing the
// change; implementations persist both atomically.
type Registry interface {
	// Insert stores a new item together with its submission event.
	Insert(ctx context.Context, item *Item, event Event) error

	// Get returns the item or an apperr NotFound.
	Get(ctx context.Context, kind content.Kind, id string) (*Item, error)

	// Find returns the items matching query.
	Find(ctx context.Context, query Query) ([]*Item, error)

	// Count returns the number of items matching query, ignoring paging.
	Count(ctx context.Context, query Query) (int, error)

	// Update replaces the mutable fields of item if the stored row satisfies
	// cond. A nil event means the change is not a status transition.
	Update(ctx context.Context, cond Condition, item *Item, event *Event) (*Item, error)

	// Delete removes the item if the stored row satisfies cond.
	Delete(ctx context.Context, kind content.Kind, id string, cond Condition, event Event) error
}

// Reader serves single-item reads that may tolerate a cache. It backs
// [Service.View] only; moderation decisions always read the [Registry].
type Reader interface {
	Lookup(ctx context.Context, kind content.Kind, id string) (*Item, error)
}

// registryReader reads straight from a [Registry].
type registryReader struct {
	registry Registry
}

func (r registryReader) Lookup(ctx context.Context, kind content.Kind, id string) (*Item, error) {
	return r.registry.Get(ctx, kind, id)
}
