package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/migrant/db/dialect"
	"go.hackfix.me/migrant/db/types"
)

// Migrator applies and rolls back migrations. Migrations are always run
// sequentially. It doesn't prevent concurrent runs against the same database,
// so invocations must be serialized by the caller.
type Migrator struct {
	db      types.Executor
	fs      vfs.FileSystem
	history *History
	applier *Applier
	dryRun  bool
	out     io.Writer
	logger  *slog.Logger
}

// New returns a new Migrator that runs statements with db, and reads
// migration files from fs.
func New(db types.Executor, dict dialect.Dictionary, fs vfs.FileSystem, opts ...Option) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if dict == nil {
		return nil, errors.New("SQL dictionary is required")
	}
	if fs == nil {
		return nil, errors.New("filesystem is required")
	}

	m := &Migrator{db: db, fs: fs, history: NewHistory(db, dict)}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		opt(m)
	}

	m.applier = NewApplier(db, m.history, m.dryRun, m.out, m.logger)

	return m, nil
}

// History returns the migration history store.
func (m *Migrator) History() *History {
	return m.history
}

// Migrate applies all pending migrations in dir, in ascending ID order. It
// stops at the first migration that fails, and returns its error. Migrations
// applied before the failure stay applied.
func (m *Migrator) Migrate(ctx context.Context, dir string) error {
	logger := m.logger.With("dir", dir)

	if !m.dryRun {
		if err := m.history.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	migrations, err := Discover(m.fs, dir)
	if errors.Is(err, ErrNoMigrations) {
		logger.Warn(err.Error())
		return nil
	} else if err != nil {
		return err
	}

	applied, err := m.appliedIDs(ctx)
	if err != nil {
		return err
	}

	pending := Pending(migrations, applied)
	if len(pending) == 0 {
		logger.Info("no pending migrations")
		return nil
	}

	for _, mig := range pending {
		logger.Info("executing migrate", "id", mig.ID, "file", mig.File)
		if err = m.applier.Apply(ctx, mig); err != nil {
			return err
		}
		logger.Debug("applied migration", "id", mig.ID, "file", mig.File)
	}

	logger.Info("migrations applied", "count", len(pending), "dry_run", m.dryRun)

	return nil
}

// Rollback reverts all applied migrations whose ID is equal to or greater
// than threshold, in descending ID order. If dir is not empty, the down
// commands are read from the migration files in dir. Otherwise they're read
// from the history table, which works even if the files were deleted.
// Rollback stops at the first migration that fails.
func (m *Migrator) Rollback(ctx context.Context, threshold int64, dir string) error {
	logger := m.logger.With("threshold", threshold)
	if dir != "" {
		logger = logger.With("dir", dir)
	}

	candidates, err := m.rollbackCandidates(ctx, threshold, dir)
	if errors.Is(err, ErrNoMigrations) {
		logger.Warn(err.Error())
		return nil
	} else if err != nil {
		return err
	}

	if len(candidates) == 0 {
		logger.Info("no migrations to roll back")
		return nil
	}

	for _, mig := range candidates {
		logger.Info("executing rollback", "id", mig.ID, "file", mig.String())
		if err = m.applier.Revert(ctx, mig); err != nil {
			return err
		}
		logger.Debug("rolled back migration", "id", mig.ID, "file", mig.String())
	}

	logger.Info("migrations rolled back", "count", len(candidates), "dry_run", m.dryRun)

	return nil
}

// Status returns the state of all migrations in dir, and of all applied
// migrations, in ascending ID order. dir may be empty, in which case only
// applied migrations are returned.
func (m *Migrator) Status(ctx context.Context, dir string) ([]Status, error) {
	var migrations []Migration
	if dir != "" {
		var err error
		migrations, err = Discover(m.fs, dir)
		if err != nil && !errors.Is(err, ErrNoMigrations) {
			return nil, err
		}
	}

	exists, err := m.history.Exists(ctx)
	if err != nil {
		return nil, err
	}
	var records []Record
	if exists {
		if records, err = m.history.Records(ctx); err != nil {
			return nil, err
		}
	}

	recByID := make(map[int64]Record, len(records))
	for _, rec := range records {
		recByID[rec.ID] = rec
	}

	statuses := make([]Status, 0, len(migrations)+len(records))
	for _, mig := range migrations {
		st := Status{Migration: mig}
		if rec, ok := recByID[mig.ID]; ok {
			st.Applied, st.RunAt = true, rec.RunAt
			delete(recByID, mig.ID)
		}
		statuses = append(statuses, st)
	}
	for _, rec := range recByID {
		statuses = append(statuses, Status{
			Migration: rec.Migration, Applied: true, RunAt: rec.RunAt, Missing: dir != "",
		})
	}

	slices.SortFunc(statuses, func(a, b Status) int {
		return byIDAscending(a.Migration, b.Migration)
	})

	return statuses, nil
}

// ExecRaw executes an arbitrary statement outside of any migration.
func (m *Migrator) ExecRaw(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed executing statement: %w", err)
	}

	return res, nil
}

// QueryRaw runs an arbitrary query outside of any migration. The caller must
// close the returned rows.
func (m *Migrator) QueryRaw(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed running query: %w", err)
	}

	return rows, nil
}

// Close closes the underlying database, if it can be closed.
func (m *Migrator) Close() error {
	if c, ok := m.db.(io.Closer); ok {
		//nolint:wrapcheck // This is fine.
		return c.Close()
	}
	return nil
}

// appliedIDs returns the IDs of applied migrations. In dry-run mode the
// history table might not exist, since it's never created.
func (m *Migrator) appliedIDs(ctx context.Context) (map[int64]struct{}, error) {
	exists, err := m.history.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return map[int64]struct{}{}, nil
	}

	return m.history.AppliedIDs(ctx)
}

func (m *Migrator) rollbackCandidates(ctx context.Context, threshold int64, dir string) ([]Migration, error) {
	exists, err := m.history.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	if dir == "" {
		records, err := m.history.Since(ctx, threshold)
		if err != nil {
			return nil, err
		}
		candidates := make([]Migration, len(records))
		for i, rec := range records {
			candidates[i] = rec.Migration
		}
		return candidates, nil
	}

	migrations, err := Discover(m.fs, dir)
	if err != nil {
		return nil, err
	}

	applied, err := m.history.AppliedIDs(ctx)
	if err != nil {
		return nil, err
	}

	return RollbackCandidates(migrations, applied, threshold), nil
}
