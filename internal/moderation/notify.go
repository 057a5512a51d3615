// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/ctxutil"
	"github.com/taibuivan/alfurqan/internal/platform/events"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
)

// notifyingRegistry reports every committed transition: a structured log line,
// a counter and a published event. It runs after the write, so nothing it
// does can undo one.
type notifyingRegistry struct {
	Registry

	publisher events.Publisher
	metrics   *metrics.Metrics
}

func (r *notifyingRegistry) Insert(ctx context.Context, item *Item, event Event) error {
	if err := r.Registry.Insert(ctx, item, event); err != nil {
		return err
	}
	r.notify(ctx, event)
	return nil
}

func (r *notifyingRegistry) Update(ctx context.Context, cond Condition, item *Item, event *Event) (*Item, error) {
	updated, err := r.Registry.Update(ctx, cond, item, event)
	if err != nil {
		return nil, err
	}
	if event != nil {
		r.notify(ctx, *event)
	}
	return updated, nil
}

func (r *notifyingRegistry) Delete(ctx context.Context, kind content.Kind, id string, cond Condition, event Event) error {
	if err := r.Registry.Delete(ctx, kind, id, cond, event); err != nil {
		return err
	}
	r.notify(ctx, event)
	return nil
}

func (r *notifyingRegistry) notify(ctx context.Context, event Event) {
	logger := ctxutil.GetLogger(ctx)

	logger.InfoContext(ctx, "contribution_"+string(event.Action),
		slog.String("content_type", string(event.ContentType)),
		slog.String("content_id", event.ContentID),
		slog.String("actor_id", event.ActorID),
		slog.String("actor_role", string(event.ActorRole)),
		slog.String("from_status", string(event.FromStatus)),
		slog.String("to_status", string(event.ToStatus)),
	)

	if r.metrics != nil {
		switch event.Action {
		case ActionSubmitted:
			r.metrics.Submissions.WithLabelValues(string(event.ContentType), string(event.ToStatus)).Inc()
		case ActionDecided:
			r.metrics.Decisions.WithLabelValues(string(event.ContentType), string(event.ToStatus)).Inc()
		}
	}

	key := string(event.ContentType) + ":" + event.ContentID
	if err := r.publisher.Publish(ctx, key, event); err != nil {
		logger.WarnContext(ctx, "event_publish_failed",
			slog.String("key", key),
			slog.String("action", string(event.Action)),
			slog.Any("error", err),
		)
	}
}
