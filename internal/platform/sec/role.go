// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "fmt"

// # User Roles

// Role represents the authorization level granted to an account.
//
// Roles form a total order. Every permission check in the application goes
// through [Role.AtLeast] or [Rank]; call sites never compare role values.
type Role string

const (
	// Unrestricted system access, including account role management
	RoleAdmin Role = "admin"

	// Scholars: may publish directly and review community contributions
	RoleUlama Role = "ulama"

	// Default role for standard registered users
	RoleRegistered Role = "registered"

	// Anonymous or unverified visitors
	RolePublic Role = "public"
)

// Roles lists every role from least to most privileged.
var Roles = []Role{RolePublic, RoleRegistered, RoleUlama, RoleAdmin}

// # Role Hierarchy

// Rank maps a role to its position in the hierarchy.
//
// The scale is strictly increasing with privilege. Unknown roles rank below
// [RolePublic] so that they never satisfy any requirement.
func Rank(r Role) int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleUlama:
		return 30
	case RoleRegistered:
		return 20
	case RolePublic:
		return 10
	default:
		return 0
	}
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return Rank(r) >= Rank(target)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return Rank(r) > 0
}

// String implements [fmt.Stringer].
func (r Role) String() string { return string(r) }

// ParseRole converts a stored or user-supplied role name into a [Role].
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("sec: unknown role %q", value)
	}
	return role, nil
}

// Normalize resolves a role claim to a known [Role].
// Unknown or empty values map to [RolePublic] (least privilege).
func Normalize(value string) Role {
	role, err := ParseRole(value)
	if err != nil {
		return RolePublic
	}
	return role
}
