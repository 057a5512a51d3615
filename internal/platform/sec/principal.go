// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Principal is the resolved identity of the caller of a single operation.
//
// It is built once per request by the authentication middleware and passed
// explicitly into every domain call. Nothing below the HTTP layer looks up
// identity from ambient state.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Anonymous is the principal used for unauthenticated requests.
var Anonymous = Principal{Role: RolePublic}

// IsAnonymous reports whether the principal carries no account identity.
func (p Principal) IsAnonymous() bool {
	return p.ID == ""
}

// WithRole returns a copy of p holding role.
func (p Principal) WithRole(role Role) Principal {
	p.Role = role
	return p
}

// PrincipalFromClaims converts verified token claims into a [Principal].
// A nil claim set yields [Anonymous].
func PrincipalFromClaims(claims *AuthClaims) Principal {
	if claims == nil || claims.UserID == "" {
		return Anonymous
	}
	return Principal{ID: claims.UserID, Role: Normalize(claims.Role)}
}
