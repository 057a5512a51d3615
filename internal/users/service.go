// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"context"
	"strings"
	"time"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
	"github.com/taibuivan/alfurqan/internal/platform/ctxutil"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/internal/platform/validate"
	"github.com/taibuivan/alfurqan/pkg/uuid"
)

// TokenIssuer signs access tokens. [sec.TokenService] implements it.
type TokenIssuer interface {
	GenerateAccessToken(userID, username string, role sec.Role, timeToLive time.Duration) (string, error)
}

// # Service Implementation

// Service implements account registration, login and role management.
type Service struct {
	store  Store
	tokens TokenIssuer
	now    func() time.Time
}

// NewService constructs a new account [Service].
func NewService(store Store, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// RegisterInput is the data required to open an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (input RegisterInput) validate() error {
	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, usernameMinLen).
		MaxLen(FieldUsername, input.Username, usernameMaxLen).
		Username(FieldUsername, input.Username)
	v.Required(FieldEmail, input.Email).
		MaxLen(FieldEmail, input.Email, emailMaxLen).
		Email(FieldEmail, input.Email)
	v.MinLen(FieldPassword, input.Password, passwordMinLen).
		Custom(FieldPassword, len(input.Password) > passwordMaxLen, "Maximum 72 bytes")
	return v.Err()
}

/*
Register creates a new account with the registered role.

Description: Validates the credentials, hashes the password with bcrypt and
persists the account. Higher roles are only ever granted by an admin.

Returns:
  - *Account: the created account
  - error: ErrValidation or ErrConflict (username or email taken)
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := input.validate(); err != nil {
		return nil, err
	}

	return service.create(ctx, input, sec.RoleRegistered)
}

/*
Login authenticates by username or email and issues an access token.

Description: Every failure yields the same Unauthorized error so that callers
cannot probe which accounts exist.

Returns:
  - *Session: token and account
  - error: ErrUnauthorized on bad credentials
*/
func (service *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	invalid := apperr.Unauthorized("Invalid login credentials")

	acc, err := service.store.FindByLogin(ctx, strings.TrimSpace(login))
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if !sec.CheckPasswordHash(password, acc.PasswordHash) {
		return nil, invalid
	}

	token, err := service.tokens.GenerateAccessToken(acc.ID, acc.Username, acc.Role, constants.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ctxutil.GetLogger(ctx).Info("user_logged_in", "user_id", acc.ID, "role", acc.Role)

	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(constants.AccessTokenTTL.Seconds()),
		User:        acc,
	}, nil
}

/*
ChangeRole assigns a new role to an account.

Description: Admin only. An admin cannot change their own role, which keeps
at least one admin in place. The change reaches the affected user's
principal when their current token expires.

Returns:
  - *Account: the updated account
  - error: ErrUnauthorized, ErrForbidden, ErrValidation or ErrNotFound
*/
func (service *Service) ChangeRole(ctx context.Context, actor sec.Principal, id, role string) (*Account, error) {
	if actor.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if !actor.Role.AtLeast(sec.RoleAdmin) {
		return nil, apperr.Forbidden("Only administrators can change roles")
	}
	if actor.ID == id {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	target, err := sec.ParseRole(role)
	if err != nil {
		return nil, validate.FieldError(FieldRole, "Must be one of: public, registered, ulama, admin")
	}
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("User")
	}

	acc, err := service.store.UpdateRole(ctx, id, target, service.now().UTC())
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("user_role_changed",
		"user_id", acc.ID,
		"role", acc.Role,
		"actor_id", actor.ID,
	)
	return acc, nil
}

/*
BootstrapAdmin creates the first administrator.

Description: Does nothing when an admin already exists. The account uses
[constants.BootstrapAdminUsername].

Returns:
  - *Account: the created admin, or nil when one already existed
  - error: ErrValidation or storage failures
*/
func (service *Service) BootstrapAdmin(ctx context.Context, email, password string) (*Account, error) {
	admins, err := service.store.CountByRole(ctx, sec.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		return nil, nil
	}

	input := RegisterInput{
		Username: constants.BootstrapAdminUsername,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	return service.create(ctx, input, sec.RoleAdmin)
}

func (service *Service) create(ctx context.Context, input RegisterInput, role sec.Role) (*Account, error) {
	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := service.now().UTC()
	acc := &Account{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.store.Create(ctx, acc); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("user_registered", "user_id", acc.ID, "role", acc.Role)
	return acc, nil
}

// Me returns the account of the authenticated caller.
func (service *Service) Me(ctx context.Context, principal sec.Principal) (*Account, error) {
	if principal.IsAnonymous() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return service.store.FindByID(ctx, principal.ID)
}

// CurrentRole returns the role stored for id. A deleted account holds no
// privileges and reports [sec.RolePublic].
func (service *Service) CurrentRole(ctx context.Context, id string) (sec.Role, error) {
	acc, err := service.store.FindByID(ctx, id)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return sec.RolePublic, nil
	}
	if err != nil {
		return "", err
	}
	return acc.Role, nil
}
