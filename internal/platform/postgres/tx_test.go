// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/alfurqan/internal/platform/postgres"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestRunInTx_Commits(t *testing.T) {
	tx := &fakeTx{}
	tm := postgres.NewTxManager(&fakeBeginner{tx: tx})

	err := tm.RunInTx(context.Background(), func(pgx.Tx) error { return nil })
	assert.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	tm := postgres.NewTxManager(&fakeBeginner{tx: tx})
	sentinel := errors.New("precondition failed")

	err := tm.RunInTx(context.Background(), func(pgx.Tx) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Same(t, sentinel, err, "errors pass through unwrapped")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestRunInTx_RollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	tm := postgres.NewTxManager(&fakeBeginner{tx: tx})

	assert.Panics(t, func() {
		_ = tm.RunInTx(context.Background(), func(pgx.Tx) error { panic("boom") })
	})
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestRunInTx_BeginFailure(t *testing.T) {
	tm := postgres.NewTxManager(&fakeBeginner{err: errors.New("pool closed")})

	called := false
	err := tm.RunInTx(context.Background(), func(pgx.Tx) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "pool closed")
	assert.False(t, called)
}
