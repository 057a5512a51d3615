// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"time"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/pkg/uuid"
)

// Action classifies an audit event.
type Action string

const (
	ActionSubmitted Action = "submitted"
	ActionDecided   Action = "decided"
	ActionRevised   Action = "revised"
	ActionDeleted   Action = "deleted"
)

// Event is one immutable audit record. FromStatus is empty for submissions and
// ToStatus is empty for deletions.
type Event struct {
	ID          string       `json:"id"`
	ContentType content.Kind `json:"content_type"`
	ContentID   string       `json:"content_id"`
	ActorID     string       `json:"actor_id"`
	ActorRole   sec.Role     `json:"actor_role"`
	Action      Action       `json:"action"`
	FromStatus  Status       `json:"from_status,omitempty"`
	ToStatus    Status       `json:"to_status,omitempty"`
	At          time.Time    `json:"at"`
}

// newEvent stamps an event for a change made by actor.
func newEvent(actor sec.Principal, action Action, item *Item, from, to Status, at time.Time) Event {
	return Event{
		ID:          uuid.New(),
		ContentType: item.ContentType,
		ContentID:   item.ID,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		Action:      action,
		FromStatus:  from,
		ToStatus:    to,
		At:          at,
	}
}

// AuditFilter narrows accountability queries. Zero fields are not filtered on.
type AuditFilter struct {
	ContentType content.Kind
	ActorID     string
	Action      Action
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Matches reports whether event passes the filter.
func (f AuditFilter) Matches(event Event) bool {
	switch {
	case f.ContentType != "" && event.ContentType != f.ContentType:
		return false
	case f.ActorID != "" && event.ActorID != f.ActorID:
		return false
	case f.Action != "" && event.Action != f.Action:
		return false
	case !f.Since.IsZero() && event.At.Before(f.Since):
		return false
	case !f.Until.IsZero() && !event.At.Before(f.Until):
		return false
	}
	return true
}

// AuditLog is append-only storage for events. There is no update or delete.
type AuditLog interface {
	Append(ctx context.Context, event Event) error
	// History returns the events of one item, oldest first.
	History(ctx context.Context, kind content.Kind, id string) ([]Event, error)
	// Events returns matching events, newest first.
	Events(ctx context.Context, filter AuditFilter) ([]Event, error)
}

// AuditTrail exposes the log for accountability queries.
//
// Transition events are written by [Registry] inside the same transaction as
// the status change; Record is for events that accompany no item write.
type AuditTrail struct {
	log AuditLog
}

// NewAuditTrail wraps an [AuditLog].
func NewAuditTrail(log AuditLog) *AuditTrail {
	return &AuditTrail{log: log}
}

// Record appends a standalone event, stamping its ID and time when unset.
//
// It is the hook for external reporting, such as an import or a manual
// correction made outside the API. Nothing in the request path calls it:
// transition events are written by the [Registry] in the same transaction
// as the status change, which Record cannot offer.
func (a *AuditTrail) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return a.log.Append(ctx, event)
}

// History returns the transitions of one item to its owner or a reviewer.
// Visibility of item itself is checked by the caller.
func (a *AuditTrail) History(ctx context.Context, viewer sec.Principal, item *Item) ([]Event, error) {
	if viewer.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if item.OwnerID != viewer.ID && !viewer.Role.AtLeast(sec.RoleUlama) {
		return nil, apperr.Forbidden("Only reviewers and the owner may read this history")
	}
	return a.log.History(ctx, item.ContentType, item.ID)
}

// List returns events across all items. Admin only.
func (a *AuditTrail) List(ctx context.Context, viewer sec.Principal, filter AuditFilter) ([]Event, error) {
	if viewer.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if !viewer.Role.AtLeast(sec.RoleAdmin) {
		return nil, apperr.Forbidden("Only administrators may query the audit trail")
	}
	return a.log.Events(ctx, filter)
}
