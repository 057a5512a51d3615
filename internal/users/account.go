// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package users manages accounts and the roles attached to them.

An account is the source of the [sec.Principal] that every moderation
operation receives. Login signs the account's current role into an access
token; the moderation engine never reads this package directly.
*/
package users

import (
	"time"

	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

// # Domain Entities

// Account represents a member of the Al Furqan platform.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         sec.Role  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal returns the identity the account acts as.
func (a *Account) Principal() sec.Principal {
	return sec.Principal{ID: a.ID, Role: a.Role}
}

// Clone returns a copy that shares no state with a.
func (a *Account) Clone() *Account {
	clone := *a
	return &clone
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        *Account `json:"user"`
}

// # Field Identifiers

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldLogin    = "login"
	FieldRole     = "role"
)

// # Constraints

const (
	usernameMinLen = 3
	usernameMaxLen = 32
	emailMaxLen    = 254
	passwordMinLen = 8

	// bcrypt ignores everything past 72 bytes.
	passwordMaxLen = 72
)
