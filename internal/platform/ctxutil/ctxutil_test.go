// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/alfurqan/internal/platform/ctxutil"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Principal verifies that a missing caller resolves to the anonymous principal.
*/
func TestContext_Principal(t *testing.T) {
	ctx := context.Background()

	// 1. Nothing stored means anonymous
	principal := ctxutil.GetPrincipal(ctx)
	assert.True(t, principal.IsAnonymous())
	assert.Equal(t, sec.RolePublic, principal.Role)

	// 2. Inject and retrieve
	ctx = ctxutil.WithPrincipal(ctx, sec.Principal{ID: "user-123", Role: sec.RoleUlama})
	retrieved := ctxutil.GetPrincipal(ctx)

	assert.Equal(t, "user-123", retrieved.ID)
	assert.Equal(t, sec.RoleUlama, retrieved.Role)
}
