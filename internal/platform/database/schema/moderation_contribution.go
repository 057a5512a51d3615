// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ModerationContributionTable represents the 'moderation.contribution' table.
// Every content kind shares it, keyed by (contenttype, id).
type ModerationContributionTable struct {
	Table       string
	ContentType string
	ID          string
	OwnerID     string
	Tier        string
	Status      string
	ReviewerID  string
	SubmittedAt string
	ReviewedAt  string
	UpdatedAt   string
	Payload     string
}

var ModerationContribution = ModerationContributionTable{
	Table:       "moderation.contribution",
	ContentType: "contenttype",
	ID:          "id",
	OwnerID:     "ownerid",
	Tier:        "tier",
	Status:      "status",
	ReviewerID:  "reviewerid",
	SubmittedAt: "submittedat",
	ReviewedAt:  "reviewedat",
	UpdatedAt:   "updatedat",
	Payload:     "payload",
}

// Columns returns all column names in select order.
func (t ModerationContributionTable) Columns() []string {
	return []string{
		t.ContentType, t.ID, t.OwnerID, t.Tier, t.Status, t.ReviewerID,
		t.SubmittedAt, t.ReviewedAt, t.UpdatedAt, t.Payload,
	}
}
