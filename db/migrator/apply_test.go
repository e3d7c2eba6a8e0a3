package migrator_test

import (
	"bytes"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "go.hackfix.me/migrant/app/errors"
	"go.hackfix.me/migrant/db/migrator"
	"go.hackfix.me/migrant/db/types"
)

var testMigration = migrator.Migration{
	ID:   1,
	Name: "create_users",
	Up:   "CREATE TABLE users (id INTEGER)",
	Down: "DROP TABLE users",
	File: "1.create_users.sql",
}

func newTestApplier(t *testing.T, dryRun bool) (*migrator.Applier, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	out := &bytes.Buffer{}
	h := migrator.NewHistory(mockDB, newTestDict(t))
	a := migrator.NewApplier(mockDB, h, dryRun, out, slog.New(slog.DiscardHandler))

	return a, mock, out
}

func TestApplierApply(t *testing.T) {
	t.Parallel()

	errDB := errors.New("db error")
	insertSQL := regexp.QuoteMeta("INSERT INTO _migrations (id, name, up, dn)")

	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		expErr string
	}{
		{
			name: "ok/commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Up)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(insertSQL).
					WithArgs(testMigration.ID, testMigration.Name, testMigration.Up, testMigration.Down).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "err/begin",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errDB)
			},
			expErr: "failed applying migration 1.create_users.sql: failed starting transaction: db error",
		},
		{
			name: "err/up_command",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Up)).WillReturnError(errDB)
				mock.ExpectRollback()
			},
			expErr: "failed applying migration 1.create_users.sql: failed executing up command: db error",
		},
		{
			name: "err/history_insert",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Up)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(insertSQL).WillReturnError(errDB)
				mock.ExpectRollback()
			},
			expErr: "failed applying migration 1.create_users.sql: db error",
		},
		{
			name: "err/commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Up)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(insertSQL).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit().WillReturnError(errDB)
			},
			expErr: "failed applying migration 1.create_users.sql: failed committing transaction: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, mock, out := newTestApplier(t, false)
			tt.setup(mock)

			err := a.Apply(t.Context(), testMigration)
			if tt.expErr != "" {
				require.EqualError(t, err, tt.expErr)
				assert.ErrorIs(t, err, errDB)

				var serr *aerrors.StructuredError
				require.True(t, errors.As(err, &serr))
				assert.Equal(t, map[string]any{"id": int64(1), "file": "1.create_users.sql"},
					serr.Metadata())
			} else {
				require.NoError(t, err)
			}

			assert.Empty(t, out.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplierRevert(t *testing.T) {
	t.Parallel()

	deleteSQL := regexp.QuoteMeta("DELETE FROM _migrations WHERE id = ?")

	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		expErr string
		errAs  any
	}{
		{
			name: "ok/commit",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Down)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deleteSQL).WithArgs(testMigration.ID).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "err/down_command",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Down)).
					WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			expErr: "failed rolling back migration 1.create_users.sql: failed executing down command: syntax error",
		},
		{
			name: "err/not_recorded",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(testMigration.Down)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deleteSQL).WithArgs(testMigration.ID).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			expErr: "failed rolling back migration 1.create_users.sql: migration with ID 1 doesn't exist",
			errAs:  &types.NoResultError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, mock, _ := newTestApplier(t, false)
			tt.setup(mock)

			err := a.Revert(t.Context(), testMigration)
			if tt.expErr != "" {
				require.EqualError(t, err, tt.expErr)
				if tt.errAs != nil {
					assert.ErrorAs(t, err, tt.errAs)
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplierDryRun(t *testing.T) {
	t.Parallel()

	a, mock, out := newTestApplier(t, true)

	require.NoError(t, a.Apply(t.Context(), testMigration))
	require.NoError(t, a.Revert(t.Context(), testMigration))

	assert.Equal(t,
		"CREATE TABLE users (id INTEGER)\n------\nDROP TABLE users\n------\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
