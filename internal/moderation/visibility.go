// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

// IsVisible reports whether viewer may see item.
//
// Owners always see their own items. Private items are seen by nobody else,
// whatever their role. Everything else is visible once approved, and to
// reviewers (ulama and above) at every status.
func IsVisible(viewer sec.Principal, item *Item) bool {
	if item == nil {
		return false
	}
	return ListPredicate(viewer).Match(item)
}

// Predicate is the visibility rule for one viewer in a form both the memory
// and the SQL store can evaluate without loading every row.
type Predicate struct {
	// ViewerID matches the viewer's own items. Empty for anonymous viewers.
	ViewerID string
	// Reviewer widens non-private visibility to every status.
	Reviewer bool
}

// ListPredicate builds the listing filter for viewer.
func ListPredicate(viewer sec.Principal) Predicate {
	return Predicate{
		ViewerID: viewer.ID,
		Reviewer: viewer.Role.AtLeast(sec.RoleUlama),
	}
}

// Match evaluates the predicate against a single item.
func (p Predicate) Match(item *Item) bool {
	if p.ViewerID != "" && item.OwnerID == p.ViewerID {
		return true
	}
	if item.Tier == TierPrivate {
		return false
	}
	return item.Status == StatusApproved || p.Reviewer
}
