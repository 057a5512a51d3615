// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"time"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/pkg/pointer"
)

// Placement is the moderation state a submission starts in.
type Placement struct {
	Tier       Tier
	Status     Status
	ReviewerID *string
	ReviewedAt *time.Time
}

// Classify decides where a new (or re-tiered) contribution lands.
//
// Rules, first match wins:
//  1. Private requests become private drafts for every role.
//  2. Ulama and above publish directly, approved by themselves at now.
//  3. Registered users propose to the community and wait for review.
//  4. Anything else is PermissionDenied.
//
// Community and public requests are treated alike; the resulting tier is
// decided by role, not by what was asked for.
func Classify(principal sec.Principal, requested Tier, now time.Time) (Placement, error) {
	if !requested.Valid() {
		return Placement{}, apperr.ValidationError("Unknown visibility tier")
	}

	switch {
	case requested == TierPrivate:
		return Placement{Tier: TierPrivate, Status: StatusDraft}, nil

	case principal.Role.AtLeast(sec.RoleUlama):
		return Placement{
			Tier:       TierPublic,
			Status:     StatusApproved,
			ReviewerID: pointer.To(principal.ID),
			ReviewedAt: pointer.To(now),
		}, nil

	case principal.Role.AtLeast(sec.RoleRegistered):
		return Placement{Tier: TierCommunity, Status: StatusPending}, nil
	}

	return Placement{}, apperr.Forbidden("Your role may only create private drafts")
}
