// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"iter"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

// DefaultQueuePageSize is used when [NewQueue] is given a non-positive page size.
const DefaultQueuePageSize = 100

// Queue is the reviewer's view of pending work. It is derived from item
// status on every read; nothing is enqueued or dequeued.
type Queue struct {
	registry Registry
	pageSize int
}

// NewQueue builds a queue that fetches pageSize items per storage round trip.
func NewQueue(registry Registry, pageSize int) *Queue {
	if pageSize <= 0 {
		pageSize = DefaultQueuePageSize
	}
	return &Queue{registry: registry, pageSize: pageSize}
}

// Pending returns the non-private pending items of every kind (or only kind,
// if set), oldest submission first. The reviewer's own submissions are left
// out since they could not be decided anyway.
//
// The sequence is lazy: pages are fetched as the caller ranges over it and
// iteration stops at the first storage error, which is yielded.
func (q *Queue) Pending(ctx context.Context, reviewer sec.Principal, kind content.Kind) (iter.Seq2[*Item, error], error) {
	if reviewer.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if !reviewer.Role.AtLeast(sec.RoleUlama) {
		return nil, apperr.Forbidden("Only ulama and administrators may view the review queue")
	}

	base := q.query(kind)
	base.ExcludeOwnerID = reviewer.ID

	return func(yield func(*Item, error) bool) {
		query := base
		for {
			page, err := q.registry.Find(ctx, query)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, item := range page {
				if !yield(item, nil) {
					return
				}
			}

			if len(page) < q.pageSize {
				return
			}
			last := page[len(page)-1]
			query.After = &Cursor{SubmittedAt: last.SubmittedAt, ID: last.ID}
		}
	}, nil
}

// Depth counts pending items, for dashboards.
func (q *Queue) Depth(ctx context.Context, kind content.Kind) (int, error) {
	query := q.query(kind)
	query.Limit = 0
	return q.registry.Count(ctx, query)
}

func (q *Queue) query(kind content.Kind) Query {
	return Query{
		Kind:           kind,
		Statuses:       []Status{StatusPending},
		ExcludePrivate: true,
		Order:          OldestFirst,
		Limit:          q.pageSize,
	}
}

// Collect drains a queue sequence into a slice, stopping after limit items
// when limit is positive.
func Collect(seq iter.Seq2[*Item, error], limit int) ([]*Item, error) {
	var items []*Item
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
