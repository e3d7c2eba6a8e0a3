package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	aerrors "go.hackfix.me/migrant/app/errors"
	"go.hackfix.me/migrant/db/types"
)

const dryRunSeparator = "------"

// Applier applies or reverts a single migration, together with the
// corresponding history change, in one transaction.
type Applier struct {
	db      types.Executor
	history *History
	dryRun  bool
	out     io.Writer
	logger  *slog.Logger
}

// NewApplier returns a new Applier. If dryRun is true, migration commands are
// written to out instead of being executed.
func NewApplier(
	db types.Executor, history *History, dryRun bool, out io.Writer, logger *slog.Logger,
) *Applier {
	return &Applier{db: db, history: history, dryRun: dryRun, out: out, logger: logger}
}

// Apply executes the up command of m, and records it in the history table.
func (a *Applier) Apply(ctx context.Context, m Migration) error {
	if a.dryRun {
		return a.show(m.Up)
	}

	err := a.inTx(ctx, func(tx types.Querier) error {
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("failed executing up command: %w", err)
		}
		return a.history.With(tx).Record(ctx, m)
	})
	if err != nil {
		a.logger.Error("migration failed, remaining migrations skipped",
			"id", m.ID, "file", m.String(), "error", err)
		return aerrors.With(
			fmt.Errorf("failed applying migration %s: %w", m, err),
			"id", m.ID, "file", m.String(),
		)
	}

	return nil
}

// Revert executes the down command of m, and removes it from the history
// table.
func (a *Applier) Revert(ctx context.Context, m Migration) error {
	if a.dryRun {
		return a.show(m.Down)
	}

	err := a.inTx(ctx, func(tx types.Querier) error {
		if _, err := tx.ExecContext(ctx, m.Down); err != nil {
			return fmt.Errorf("failed executing down command: %w", err)
		}
		return a.history.With(tx).Remove(ctx, m.ID)
	})
	if err != nil {
		a.logger.Error("rollback failed, remaining rollbacks skipped",
			"id", m.ID, "file", m.String(), "error", err)
		return aerrors.With(
			fmt.Errorf("failed rolling back migration %s: %w", m, err),
			"id", m.ID, "file", m.String(),
		)
	}

	return nil
}

func (a *Applier) show(cmd string) error {
	if _, err := fmt.Fprintf(a.out, "%s\n%s\n", cmd, dryRunSeparator); err != nil {
		return fmt.Errorf("failed writing command: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, which is committed if fn succeeds, and
// rolled back otherwise.
func (a *Applier) inTx(ctx context.Context, fn func(tx types.Querier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}

	didCommit := false
	defer func() {
		if didCommit {
			return
		}
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			a.logger.Warn("failed rolling back transaction", "error", rerr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}
	didCommit = true

	return nil
}
