// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/internal/users"
)

type issued struct {
	userID   string
	username string
	role     sec.Role
	ttl      time.Duration
}

type fakeIssuer struct {
	tokens []issued
	err    error
}

func (f *fakeIssuer) GenerateAccessToken(userID, username string, role sec.Role, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tokens = append(f.tokens, issued{userID, username, role, ttl})
	return "token-" + userID, nil
}

func newService(t *testing.T) (*users.Service, *users.MemoryStore, *fakeIssuer) {
	t.Helper()
	store := users.NewMemoryStore()
	issuer := &fakeIssuer{}
	return users.NewService(store, issuer), store, issuer
}

func register(t *testing.T, service *users.Service, username string) *users.Account {
	t.Helper()
	acc, err := service.Register(context.Background(), users.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return acc
}

func TestRegister(t *testing.T) {
	service, store, _ := newService(t)
	ctx := context.Background()

	acc, err := service.Register(ctx, users.RegisterInput{
		Username: "  aisha ",
		Email:    "Aisha@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "aisha", acc.Username)
	assert.Equal(t, "aisha@example.com", acc.Email)
	assert.Equal(t, sec.RoleRegistered, acc.Role)
	assert.NotEqual(t, "correct horse", acc.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("correct horse", acc.PasswordHash))

	stored, err := store.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Email, stored.Email)
}

func TestRegister_Errors(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	register(t, service, "yusuf")

	tests := []struct {
		name  string
		input users.RegisterInput
		code  string
		field string
	}{
		{"duplicate_username", users.RegisterInput{Username: "YUSUF", Email: "other@example.com", Password: "correct horse"}, apperr.CodeConflict, ""},
		{"duplicate_email", users.RegisterInput{Username: "other", Email: "yusuf@example.com", Password: "correct horse"}, apperr.CodeConflict, ""},
		{"short_username", users.RegisterInput{Username: "yu", Email: "yu@example.com", Password: "correct horse"}, apperr.CodeValidation, users.FieldUsername},
		{"bad_username", users.RegisterInput{Username: "yu suf", Email: "ys@example.com", Password: "correct horse"}, apperr.CodeValidation, users.FieldUsername},
		{"bad_email", users.RegisterInput{Username: "maryam", Email: "not-an-email", Password: "correct horse"}, apperr.CodeValidation, users.FieldEmail},
		{"short_password", users.RegisterInput{Username: "maryam", Email: "maryam@example.com", Password: "short"}, apperr.CodeValidation, users.FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
			if tt.field != "" {
				require.NotEmpty(t, apperr.As(err).Details)
				assert.Equal(t, tt.field, apperr.As(err).Details[0].Field)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	service, _, issuer := newService(t)
	ctx := context.Background()
	acc := register(t, service, "bilal")

	for _, login := range []string{"bilal", "BILAL", "bilal@example.com", " Bilal@Example.com "} {
		session, err := service.Login(ctx, login, "correct horse")
		require.NoError(t, err, login)
		assert.Equal(t, "token-"+acc.ID, session.AccessToken)
		assert.Equal(t, "Bearer", session.TokenType)
		assert.Equal(t, acc.ID, session.User.ID)
	}

	require.NotEmpty(t, issuer.tokens)
	assert.Equal(t, sec.RoleRegistered, issuer.tokens[0].role)
	assert.Equal(t, "bilal", issuer.tokens[0].username)
}

func TestLogin_SameErrorForEveryFailure(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	register(t, service, "bilal")

	_, wrongPassword := service.Login(ctx, "bilal", "wrong horse")
	_, unknownUser := service.Login(ctx, "nobody", "correct horse")

	assert.True(t, apperr.HasCode(wrongPassword, apperr.CodeUnauthorized))
	assert.True(t, apperr.HasCode(unknownUser, apperr.CodeUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLogin_TokenFailure(t *testing.T) {
	service, _, issuer := newService(t)
	register(t, service, "bilal")
	issuer.err = errors.New("key unavailable")

	_, err := service.Login(context.Background(), "bilal", "correct horse")
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))
}

func TestChangeRole(t *testing.T) {
	service, _, issuer := newService(t)
	ctx := context.Background()

	admin, err := service.BootstrapAdmin(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	scholar := register(t, service, "scholar")

	updated, err := service.ChangeRole(ctx, admin.Principal(), scholar.ID, "ulama")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUlama, updated.Role)

	// The next token carries the new role.
	_, err = service.Login(ctx, "scholar", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUlama, issuer.tokens[len(issuer.tokens)-1].role)
}

func TestChangeRole_Errors(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	admin, err := service.BootstrapAdmin(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	member := register(t, service, "member")
	scholar := register(t, service, "scholar")

	tests := []struct {
		name  string
		actor sec.Principal
		id    string
		role  string
		code  string
	}{
		{"anonymous", sec.Anonymous, member.ID, "ulama", apperr.CodeUnauthorized},
		{"ulama_cannot_promote", scholar.Principal().WithRole(sec.RoleUlama), member.ID, "ulama", apperr.CodeForbidden},
		{"own_role", admin.Principal(), admin.ID, "registered", apperr.CodeForbidden},
		{"unknown_role", admin.Principal(), member.ID, "moderator", apperr.CodeValidation},
		{"malformed_id", admin.Principal(), "42", "ulama", apperr.CodeNotFound},
		{"missing_user", admin.Principal(), "0190a8f4-0000-7000-8000-000000000000", "ulama", apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ChangeRole(ctx, tt.actor, tt.id, tt.role)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestBootstrapAdmin_OnlyOnce(t *testing.T) {
	service, store, _ := newService(t)
	ctx := context.Background()

	first, err := service.BootstrapAdmin(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, sec.RoleAdmin, first.Role)

	second, err := service.BootstrapAdmin(ctx, "other@example.com", "correct horse")
	require.NoError(t, err)
	assert.Nil(t, second)

	admins, err := store.CountByRole(ctx, sec.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)
}

func TestMe(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()
	acc := register(t, service, "hafsa")

	me, err := service.Me(ctx, acc.Principal())
	require.NoError(t, err)
	assert.Equal(t, "hafsa", me.Username)

	_, err = service.Me(ctx, sec.Anonymous)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

func TestCurrentRole(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	admin, err := service.BootstrapAdmin(ctx, "root@example.com", "correct horse")
	require.NoError(t, err)
	scholar := register(t, service, "scholar")

	role, err := service.CurrentRole(ctx, scholar.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleRegistered, role)

	// A token issued before the change still says registered; the store does not.
	_, err = service.ChangeRole(ctx, admin.Principal(), scholar.ID, "ulama")
	require.NoError(t, err)
	role, err = service.CurrentRole(ctx, scholar.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUlama, role)

	role, err = service.CurrentRole(ctx, "0190a8f4-0000-7000-8000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, sec.RolePublic, role, "unknown accounts hold no privileges")
}
