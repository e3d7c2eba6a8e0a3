package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.hackfix.me/migrant/db/dialect"
	"go.hackfix.me/migrant/db/types"
)

// DB wraps sql.DB with the dialect it was opened with. It's the storage
// executor used by the migrator, and it's owned by whoever opened it.
type DB struct {
	*sql.DB
	dialect dialect.Name
}

var _ types.Executor = (*DB)(nil)

// Open creates and configures a new database connection for the given dialect.
func Open(ctx context.Context, name dialect.Name, dsn string) (*DB, error) {
	var driver string
	switch name {
	case dialect.SQLite:
		driver = "sqlite"
	case dialect.Postgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported SQL dialect '%s'", name)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", name, err)
	}

	d := &DB{DB: sqlDB, dialect: name}

	if name == dialect.SQLite {
		if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:") {
			// See https://github.com/mattn/go-sqlite3#faq
			d.SetMaxIdleConns(10)
			d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
		}

		_, err = d.ExecContext(ctx, `PRAGMA foreign_keys = ON;`)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	}

	if err = d.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed connecting to %s database: %w", name, err)
	}

	return d, nil
}

// Dialect returns the SQL dialect of the database.
func (d *DB) Dialect() dialect.Name {
	return d.dialect
}
