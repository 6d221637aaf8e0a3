package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx   *fakeTx
	opts pgx.TxOptions
	err  error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	conn := &fakeBeginner{tx: &fakeTx{}}
	require.NoError(t, WithTx(context.Background(), conn, func(pgx.Tx) error { return nil }))
	assert.True(t, conn.tx.committed)
	assert.False(t, conn.tx.rolledBack)
	assert.Equal(t, pgx.ReadCommitted, conn.opts.IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")
	err := WithTx(context.Background(), conn, func(pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, conn.tx.committed)
	assert.True(t, conn.tx.rolledBack)

	conn = &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization failure")}}
	err = WithTx(context.Background(), conn, func(pgx.Tx) error { return nil })
	assert.ErrorContains(t, err, "commit tx")
	assert.True(t, conn.tx.rolledBack)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := &fakeBeginner{tx: &fakeTx{}}
	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), conn, func(pgx.Tx) error { panic("kaboom") })
	})
	assert.True(t, conn.tx.rolledBack)
}

func TestWithTxBeginFailure(t *testing.T) {
	conn := &fakeBeginner{err: errors.New("no connection")}
	called := false
	err := WithTx(context.Background(), conn, func(pgx.Tx) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}
