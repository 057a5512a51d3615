// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/events"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/pkg/uuid"
)

// # Service Layer

// Service is the entry point for every contribution operation. Each method
// takes the caller explicitly; nothing is read from ambient state.
type Service struct {
	registry Registry
	reader   Reader
	machine  *StateMachine
	queue    *Queue
	audit    *AuditTrail
	roles    RoleSource
	metrics  *metrics.Metrics
	now      func() time.Time
}

// RoleSource reports the role an account holds right now, which may be
// newer than the role carried by its token.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID string) (sec.Role, error)
}

// Dependencies groups what [NewService] wires together. Publisher, Metrics
// and Roles are optional.
type Dependencies struct {
	Registry Registry
	// Reader serves [Service.View]; it defaults to Registry. Pass a
	// [CachedRegistry] here to cache published items.
	Reader    Reader
	AuditLog  AuditLog
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	// Roles, when set, replaces the token's role on every write so that a
	// demotion takes effect before the token expires.
	Roles RoleSource
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
	// QueuePageSize is the number of pending items fetched per round trip.
	QueuePageSize int
}

// NewService constructs a [Service].
func NewService(deps Dependencies) *Service {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}

	registry := &notifyingRegistry{
		Registry:  deps.Registry,
		publisher: publisher,
		metrics:   deps.Metrics,
	}

	reader := deps.Reader
	if reader == nil {
		reader = registryReader{registry: registry}
	}

	return &Service{
		registry: registry,
		reader:   reader,
		machine:  NewStateMachine(registry, now),
		queue:    NewQueue(registry, deps.QueuePageSize),
		audit:    NewAuditTrail(deps.AuditLog),
		roles:    deps.Roles,
		metrics:  deps.Metrics,
		now:      now,
	}
}

// # Submission

// Submission is a new contribution as received from a client.
type Submission struct {
	Payload json.RawMessage
	// Visibility is the requested tier; empty means private.
	Visibility string
}

/*
Submit validates and stores a new contribution.

Description: The payload is decoded strictly against the schema of kind and
stored in canonical form. [Classify] decides the tier and status from the
caller's role; scholars publish directly, registered users enter the queue.

Returns:
  - *Item: the stored item
  - error: Unauthorized, Forbidden or ValidationError
*/
func (service *Service) Submit(ctx context.Context, principal sec.Principal, kind content.Kind, submission Submission) (*Item, error) {
	if principal.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	principal, err := service.current(ctx, principal)
	if err != nil {
		return nil, err
	}

	tier, err := ParseTier(submission.Visibility)
	if err != nil {
		return nil, err
	}

	payload, _, err := content.Canonical(kind, submission.Payload)
	if err != nil {
		return nil, err
	}

	now := service.now().UTC()
	placement, err := Classify(principal, tier, now)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ContentType: kind,
		ID:          uuid.New(),
		OwnerID:     principal.ID,
		SubmittedAt: now,
		UpdatedAt:   now,
		Payload:     payload,
	}
	item.apply(placement)

	event := newEvent(principal, ActionSubmitted, item, "", item.Status, now)
	if err := service.registry.Insert(ctx, item, event); err != nil {
		return nil, err
	}
	return item, nil
}

// # Reads

/*
View returns one item if the viewer may see it.

Another user's private draft is reported as NotFound so that its existence
does not leak. Other hidden items (pending or rejected, seen by a non-reviewer)
are Forbidden.
*/
func (service *Service) View(ctx context.Context, viewer sec.Principal, kind content.Kind, id string) (*Item, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Contribution")
	}
	item, err := service.reader.Lookup(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := hidden(viewer, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListFilter narrows a listing. Zero fields are not filtered on.
type ListFilter struct {
	OwnerID  string
	Statuses []Status
	Text     string
	Limit    int
	Offset   int
}

/*
List returns the items of kind visible to viewer, newest first.

Returns:
  - []*Item: the requested page
  - int: the total number of visible matches
  - error: ValidationError for unknown statuses
*/
func (service *Service) List(ctx context.Context, viewer sec.Principal, kind content.Kind, filter ListFilter) ([]*Item, int, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, 0, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   "status",
				Message: "Must be one of: draft, pending, approved, rejected",
			})
		}
	}

	predicate := ListPredicate(viewer)
	query := Query{
		Kind:     kind,
		Visible:  &predicate,
		OwnerID:  filter.OwnerID,
		Statuses: filter.Statuses,
		Text:     filter.Text,
		Order:    NewestFirst,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}

	items, err := service.registry.Find(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	total, err := service.registry.Count(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// # Owner Changes

// RevisionInput is an owner edit as received from a client. Nil fields are
// left unchanged.
type RevisionInput struct {
	Payload    json.RawMessage
	Visibility *string
}

// Revise validates an owner edit and hands it to the [StateMachine].
func (service *Service) Revise(ctx context.Context, owner sec.Principal, kind content.Kind, id string, input RevisionInput) (*Item, error) {
	if owner.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Contribution")
	}
	owner, err := service.current(ctx, owner)
	if err != nil {
		return nil, err
	}

	var revision Revision
	if input.Payload != nil {
		payload, _, err := content.Canonical(kind, input.Payload)
		if err != nil {
			return nil, err
		}
		revision.Payload = payload
	}
	if input.Visibility != nil {
		tier, err := ParseTier(*input.Visibility)
		if err != nil {
			return nil, err
		}
		revision.Tier = &tier
	}

	return service.machine.Revise(ctx, owner, kind, id, revision)
}

// Delete removes an item; see [StateMachine.Delete].
func (service *Service) Delete(ctx context.Context, actor sec.Principal, kind content.Kind, id string) error {
	if actor.IsAnonymous() {
		return apperr.Unauthorized("Authentication required")
	}
	if !uuid.Valid(id) {
		return apperr.NotFound("Contribution")
	}
	actor, err := service.current(ctx, actor)
	if err != nil {
		return err
	}
	return service.machine.Delete(ctx, actor, kind, id)
}

// # Review

// ReviewQueue returns up to limit pending items for reviewer, oldest first.
// An empty kind spans every content type.
func (service *Service) ReviewQueue(ctx context.Context, reviewer sec.Principal, kind content.Kind, limit int) ([]*Item, error) {
	seq, err := service.queue.Pending(ctx, reviewer, kind)
	if err != nil {
		return nil, err
	}
	items, err := Collect(seq, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

// QueueDepth counts pending items of kind, or of every kind when empty.
func (service *Service) QueueDepth(ctx context.Context, kind content.Kind) (int, error) {
	return service.queue.Depth(ctx, kind)
}

// Decide records a reviewer's decision; see [StateMachine.Transition].
func (service *Service) Decide(ctx context.Context, reviewer sec.Principal, kind content.Kind, id string, decision string) (*Item, error) {
	reviewer, err := service.current(ctx, reviewer)
	if err != nil {
		return nil, err
	}
	if reviewer.Role.AtLeast(sec.RoleUlama) && !uuid.Valid(id) {
		return nil, apperr.NotFound("Contribution")
	}

	item, err := service.machine.Transition(ctx, reviewer, kind, id, Decision(decision))
	if apperr.HasCode(err, apperr.CodeInvalidState) && service.metrics != nil {
		service.metrics.ReviewConflicts.WithLabelValues(string(kind)).Inc()
	}
	return item, err
}

// # Accountability

// History returns the audit events of one item, oldest first.
func (service *Service) History(ctx context.Context, viewer sec.Principal, kind content.Kind, id string) ([]Event, error) {
	if viewer.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	item, err := service.get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := hidden(viewer, item); err != nil {
		return nil, err
	}
	return service.audit.History(ctx, viewer, item)
}

// AuditEvents queries the audit trail across items. Admin only.
func (service *Service) AuditEvents(ctx context.Context, viewer sec.Principal, filter AuditFilter) ([]Event, error) {
	return service.audit.List(ctx, viewer, filter)
}

// # Helpers

// current replaces the token's role with the account's present one.
func (service *Service) current(ctx context.Context, principal sec.Principal) (sec.Principal, error) {
	if service.roles == nil || principal.IsAnonymous() {
		return principal, nil
	}
	role, err := service.roles.CurrentRole(ctx, principal.ID)
	if err != nil {
		return principal, err
	}
	return principal.WithRole(role), nil
}

func (service *Service) get(ctx context.Context, kind content.Kind, id string) (*Item, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Contribution")
	}
	return service.registry.Get(ctx, kind, id)
}

// hidden explains why viewer may not see item, or returns nil.
func hidden(viewer sec.Principal, item *Item) error {
	switch {
	case IsVisible(viewer, item):
		return nil
	case item.Tier == TierPrivate:
		return apperr.NotFound("Contribution")
	case viewer.IsAnonymous():
		return apperr.Unauthorized("Authentication required")
	}
	return apperr.Forbidden("This contribution is not published")
}
