// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation implements the contribution lifecycle: how a submission is
classified, who may see it, who may review it and how each transition is recorded.

Components:

  - Classify: initial tier and status from the submitter's role.
  - Visibility: per-item checks and list predicates.
  - StateMachine: reviewer decisions and owner revisions.
  - Queue: the pending view reviewers work through.
  - AuditTrail: the append-only record of every transition.

Every operation takes an explicit [sec.Principal]. Storage is reached through
[Registry], which is implemented once for all content kinds.
*/
package moderation

import (
	"encoding/json"
	"time"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
)

// # Tiers

// Tier is the intended audience of a contribution.
type Tier string

const (
	// TierPrivate items are owner-only and never reviewed.
	TierPrivate Tier = "private"
	// TierCommunity items come from non-scholars and wait for review.
	TierCommunity Tier = "community_proposed"
	// TierPublic items were published directly by a scholar.
	TierPublic Tier = "public"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierPrivate, TierCommunity, TierPublic:
		return true
	}
	return false
}

// ParseTier parses a requested visibility. The empty string means private.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return TierPrivate, nil
	}
	t := Tier(s)
	if !t.Valid() {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   "visibility",
			Message: "Must be one of: private, community_proposed, public",
		})
	}
	return t, nil
}

// # Statuses

// Status is the moderation lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// # Decisions

// Decision is a reviewer's verdict on a pending item.
type Decision string

const (
	DecisionApprove Decision = "approved"
	DecisionReject  Decision = "rejected"
)

// ParseDecision validates a decision string.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	}
	return "", apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   "decision",
		Message: "Must be one of: approved, rejected",
	})
}

// Status maps the decision onto the resulting lifecycle state.
func (d Decision) Status() Status {
	return Status(d)
}

// # Items

// Item is the moderated envelope shared by every content kind.
//
// Invariants maintained by this package:
//   - Tier private implies status draft and no reviewer.
//   - Status pending implies no reviewer and no review time.
//   - Status approved or rejected implies a reviewer and a review time.
type Item struct {
	ContentType content.Kind    `json:"content_type"`
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Tier        Tier            `json:"visibility"`
	Status      Status          `json:"status"`
	ReviewerID  *string         `json:"reviewer_id"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ReviewedAt  *time.Time      `json:"reviewed_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Clone returns a deep copy so that callers can mutate the result freely.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.ReviewerID != nil {
		reviewer := *i.ReviewerID
		clone.ReviewerID = &reviewer
	}
	if i.ReviewedAt != nil {
		reviewedAt := *i.ReviewedAt
		clone.ReviewedAt = &reviewedAt
	}
	if i.Payload != nil {
		clone.Payload = append(json.RawMessage(nil), i.Payload...)
	}
	return &clone
}

// apply copies a placement onto the item.
func (i *Item) apply(p Placement) {
	i.Tier = p.Tier
	i.Status = p.Status
	i.ReviewerID = p.ReviewerID
	i.ReviewedAt = p.ReviewedAt
}
