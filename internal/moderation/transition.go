// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

// reviseAttempts bounds how often an owner edit is retried after losing a
// race with a reviewer.
const reviseAttempts = 3

// errAlreadyReviewed is what the loser of a concurrent review sees.
var errAlreadyReviewed = apperr.InvalidState("This contribution has already been reviewed")

// StateMachine owns every write to status, reviewer and review time.
type StateMachine struct {
	registry Registry
	now      func() time.Time
}

// NewStateMachine creates a state machine over registry. A nil clock uses time.Now.
func NewStateMachine(registry Registry, now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{registry: registry, now: now}
}

// Transition applies a reviewer's decision to a pending item.
//
// Failures, in the order they are checked:
//   - Unauthorized for anonymous callers, Forbidden below ulama.
//   - NotFound when the item does not exist or is another user's private draft.
//   - SelfReviewDenied when the reviewer owns the item.
//   - InvalidState when the item is not pending, including the loser of a race.
func (m *StateMachine) Transition(ctx context.Context, reviewer sec.Principal, kind content.Kind, id string, decision Decision) (*Item, error) {
	if reviewer.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if !reviewer.Role.AtLeast(sec.RoleUlama) {
		return nil, apperr.Forbidden("Only ulama and administrators may review contributions")
	}
	if _, err := ParseDecision(string(decision)); err != nil {
		return nil, err
	}

	item, err := m.registry.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !IsVisible(reviewer, item) {
		return nil, apperr.NotFound("Contribution")
	}
	if item.OwnerID == reviewer.ID {
		return nil, apperr.SelfReviewDenied()
	}
	if item.Status != StatusPending {
		return nil, errAlreadyReviewed
	}

	now := m.now().UTC()
	reviewerID := reviewer.ID

	next := item.Clone()
	next.Status = decision.Status()
	next.ReviewerID = &reviewerID
	next.ReviewedAt = &now
	next.UpdatedAt = now

	event := newEvent(reviewer, ActionDecided, item, StatusPending, next.Status, now)

	updated, err := m.registry.Update(ctx, Condition{Status: StatusPending}, next, &event)
	if errors.Is(err, ErrPreconditionFailed) {
		return nil, errAlreadyReviewed
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Revision is an owner edit. A nil Payload keeps the current payload; a nil
// Tier keeps the current tier.
type Revision struct {
	Payload json.RawMessage
	Tier    *Tier
}

// Revise applies an owner edit.
//
// Shared items are placed again by [Classify] for the owner's current role.
// Reviewed community items go back to pending with the reviewer cleared.
// Directly published items stay approved while their owner still ranks ulama
// or above; otherwise they re-enter review as community proposals. An owner
// whose role no longer allows sharing may only withdraw the item to private.
// A requested tier re-runs [Classify] for the owner.
func (m *StateMachine) Revise(ctx context.Context, owner sec.Principal, kind content.Kind, id string, revision Revision) (*Item, error) {
	if owner.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	for range reviseAttempts {
		item, err := m.registry.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if item.OwnerID != owner.ID {
			if IsVisible(owner, item) {
				return nil, apperr.Forbidden("Only the owner may edit this contribution")
			}
			return nil, apperr.NotFound("Contribution")
		}

		next, event, err := m.revised(owner, item, revision)
		if err != nil {
			return nil, err
		}

		cond := Condition{OwnerID: owner.ID, Status: item.Status}
		updated, err := m.registry.Update(ctx, cond, next, event)
		if errors.Is(err, ErrPreconditionFailed) {
			// A reviewer decided between our read and write; recompute from the new state.
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, apperr.InvalidState("Contribution changed while saving, please retry")
}

// revised computes the post-edit item and, when the status changes, its event.
func (m *StateMachine) revised(owner sec.Principal, item *Item, revision Revision) (*Item, *Event, error) {
	now := m.now().UTC()

	next := item.Clone()
	next.UpdatedAt = now
	if revision.Payload != nil {
		next.Payload = revision.Payload
	}

	switch {
	case revision.Tier != nil:
		placement, err := Classify(owner, *revision.Tier, now)
		if err != nil {
			return nil, nil, err
		}
		// A scholar re-saving an already public item keeps its original review stamp.
		if !(placement.Tier == item.Tier && placement.Status == item.Status && item.Tier == TierPublic) {
			next.apply(placement)
		}

	case item.Tier != TierPrivate:
		// The owner's current role decides where a shared item goes next.
		placement, err := Classify(owner, TierCommunity, now)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case item.Tier == TierPublic && placement.Tier == TierPublic:
		case item.Tier == TierCommunity && item.Status == StatusPending && placement.Tier == TierCommunity:
		default:
			next.apply(placement)
		}
	}

	if next.Status == item.Status {
		return next, nil, nil
	}
	event := newEvent(owner, ActionRevised, item, item.Status, next.Status, now)
	return next, &event, nil
}

// Delete removes an item. Owners may delete their own items; ulama and
// above may delete anything they can see.
func (m *StateMachine) Delete(ctx context.Context, actor sec.Principal, kind content.Kind, id string) error {
	if actor.IsAnonymous() {
		return apperr.Unauthorized("Authentication required")
	}

	item, err := m.registry.Get(ctx, kind, id)
	if err != nil {
		return err
	}
	if !IsVisible(actor, item) {
		return apperr.NotFound("Contribution")
	}
	if item.OwnerID != actor.ID && !actor.Role.AtLeast(sec.RoleUlama) {
		return apperr.Forbidden("Only the owner or a reviewer may delete this contribution")
	}

	event := newEvent(actor, ActionDeleted, item, item.Status, "", m.now().UTC())
	err = m.registry.Delete(ctx, kind, id, Condition{Status: item.Status}, event)
	if errors.Is(err, ErrPreconditionFailed) {
		return apperr.InvalidState("Contribution changed while deleting, please retry")
	}
	return err
}
