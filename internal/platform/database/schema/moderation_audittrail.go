// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ModerationAuditTrailTable represents the append-only 'moderation.audittrail' table.
type ModerationAuditTrailTable struct {
	Table       string
	ID          string
	ContentType string
	ContentID   string
	ActorID     string
	ActorRole   string
	Action      string
	FromStatus  string
	ToStatus    string
	CreatedAt   string
}

var ModerationAuditTrail = ModerationAuditTrailTable{
	Table:       "moderation.audittrail",
	ID:          "id",
	ContentType: "contenttype",
	ContentID:   "contentid",
	ActorID:     "actorid",
	ActorRole:   "actorrole",
	Action:      "action",
	FromStatus:  "fromstatus",
	ToStatus:    "tostatus",
	CreatedAt:   "createdat",
}

// Columns returns all column names in select order.
func (t ModerationAuditTrailTable) Columns() []string {
	return []string{
		t.ID, t.ContentType, t.ContentID, t.ActorID, t.ActorRole,
		t.Action, t.FromStatus, t.ToStatus, t.CreatedAt,
	}
}
