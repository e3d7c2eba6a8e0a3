package types

import (
	"context"
	"database/sql"
)

// Querier exposes only methods for running SQL queries. It's implemented by
// both *sql.DB and *sql.Tx, so history mutations can run inside the same
// transaction as the migration command.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor is the storage executor used by the migration engine. It can run
// queries directly, and start transactions.
type Executor interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Querier  = (*sql.Tx)(nil)
)
