// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

func itemOf(owner sec.Principal, tier moderation.Tier, status moderation.Status) *moderation.Item {
	return &moderation.Item{ContentType: "note", ID: "item", OwnerID: owner.ID, Tier: tier, Status: status}
}

func TestIsVisible_Matrix(t *testing.T) {
	tests := []struct {
		name   string
		viewer sec.Principal
		item   *moderation.Item
		want   bool
	}{
		{"owner_sees_draft", alice, itemOf(alice, moderation.TierPrivate, moderation.StatusDraft), true},
		{"admin_cannot_see_draft", admin, itemOf(alice, moderation.TierPrivate, moderation.StatusDraft), false},
		{"ulama_cannot_see_draft", scholar, itemOf(alice, moderation.TierPrivate, moderation.StatusDraft), false},
		{"anonymous_sees_approved", anonymous, itemOf(alice, moderation.TierCommunity, moderation.StatusApproved), true},
		{"anonymous_misses_pending", anonymous, itemOf(alice, moderation.TierCommunity, moderation.StatusPending), false},
		{"registered_misses_pending", bob, itemOf(alice, moderation.TierCommunity, moderation.StatusPending), false},
		{"owner_sees_pending", alice, itemOf(alice, moderation.TierCommunity, moderation.StatusPending), true},
		{"owner_sees_rejected", alice, itemOf(alice, moderation.TierCommunity, moderation.StatusRejected), true},
		{"ulama_sees_pending", scholar, itemOf(alice, moderation.TierCommunity, moderation.StatusPending), true},
		{"ulama_sees_rejected", scholar, itemOf(alice, moderation.TierCommunity, moderation.StatusRejected), true},
		{"registered_misses_rejected", bob, itemOf(alice, moderation.TierCommunity, moderation.StatusRejected), false},
		{"everyone_sees_public", anonymous, itemOf(scholar, moderation.TierPublic, moderation.StatusApproved), true},
		{"nil_item", admin, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moderation.IsVisible(tt.viewer, tt.item))
		})
	}
}

/*
TestIsVisible_PrivacyInvariant checks that a private draft is visible to its
owner and to nobody else, whatever their role.
*/
func TestIsVisible_PrivacyInvariant(t *testing.T) {
	for _, owner := range allCallers[1:] {
		draft := itemOf(owner, moderation.TierPrivate, moderation.StatusDraft)
		for _, viewer := range allCallers {
			want := viewer.ID == owner.ID
			assert.Equal(t, want, moderation.IsVisible(viewer, draft),
				"viewer %s (%s) on draft of %s", viewer.ID, viewer.Role, owner.Role)
		}
	}
}

func TestListPredicate(t *testing.T) {
	assert.Equal(t, moderation.Predicate{}, moderation.ListPredicate(anonymous))
	assert.Equal(t, moderation.Predicate{ViewerID: alice.ID}, moderation.ListPredicate(alice))
	assert.Equal(t, moderation.Predicate{ViewerID: scholar.ID, Reviewer: true}, moderation.ListPredicate(scholar))
}
