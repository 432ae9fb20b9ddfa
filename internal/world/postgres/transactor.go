// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package postgres provides PostgreSQL implementations of the world
// repositories.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/world"
)

// txKey carries the active transaction through context.
type txKey struct{}

// Transactor implements world.Transactor over a pgx pool. The transaction is
// stored in context so repository methods called inside the callback join
// it.
type Transactor struct {
	pool poolIface
}

// NewTransactor creates a Transactor backed by the given connection pool.
func NewTransactor(pool poolIface) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil, the transaction is committed; otherwise it is rolled
// back.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// querier is the common surface of a pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// poolIface is the subset of pgxpool.Pool the repositories use. pgxmock
// implements it, which is what makes the repository unit tests possible
// without a database.
type poolIface interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// q returns the ambient transaction when one is in context, otherwise the
// pool.
func q(ctx context.Context, pool poolIface) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Compile-time interface check.
var _ world.Transactor = (*Transactor)(nil)
