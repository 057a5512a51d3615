// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered identifiers for contributions, audit events
and accounts.

Version 7 values sort by creation time, which keeps the moderation queue's
(submitted_at, id) ordering stable and B-tree friendly.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
// It panics only if the OS random source is unavailable.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
