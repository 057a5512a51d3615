// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

func newTokenService(t *testing.T, issuer string) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceWithKey(key, &key.PublicKey, issuer)
}

/*
TestTokenService_RoundTrip verifies that a signed token yields the same identity.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, "alfurqan.test")

	token, err := service.GenerateAccessToken("user-1", "yasin", sec.RoleUlama, time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ulama", claims.Role)
}

func TestTokenService_RejectsForeignIssuer(t *testing.T) {
	signer := newTokenService(t, "someone.else")
	token, err := signer.GenerateAccessToken("user-1", "yasin", sec.RoleAdmin, time.Minute)
	require.NoError(t, err)

	verifier := newTokenService(t, "alfurqan.test")
	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	service := newTokenService(t, "alfurqan.test")
	token, err := service.GenerateAccessToken("user-1", "yasin", sec.RoleRegistered, -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("bismillah")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("bismillah", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
}
