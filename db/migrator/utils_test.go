package migrator_test

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/migrant/db"
	"go.hackfix.me/migrant/db/dialect"
	"go.hackfix.me/migrant/db/migrator"
)

const testTable = "_migrations"

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	// A unique name per test, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(t.Context(), dialect.SQLite,
		fmt.Sprintf("file:migrant-%x?mode=memory&cache=shared", rndName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func newTestDict(t *testing.T) dialect.Dictionary {
	t.Helper()
	dict, err := dialect.New(dialect.SQLite, testTable)
	require.NoError(t, err)
	return dict
}

func newTestMigrator(
	t *testing.T, d *db.DB, fs vfs.FileSystem, opts ...migrator.Option,
) *migrator.Migrator {
	t.Helper()

	opts = append([]migrator.Option{migrator.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	m, err := migrator.New(d, newTestDict(t), fs, opts...)
	require.NoError(t, err)

	return m
}

func newTestFS(t *testing.T, dir string, files map[string]string) vfs.FileSystem {
	t.Helper()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, vfs.WriteFile(fs, filepath.Join(dir, name), []byte(content), 0o644))
	}

	return fs
}

func tableExists(t *testing.T, d *db.DB, name string) bool {
	t.Helper()

	var count int
	err := d.QueryRowContext(t.Context(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).
		Scan(&count)
	require.NoError(t, err)

	return count > 0
}

func appliedIDs(t *testing.T, d *db.DB) []int64 {
	t.Helper()

	rows, err := d.QueryContext(t.Context(), `SELECT id FROM `+testTable+` ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())

	return ids
}

func migrationFile(up, down string) string {
	return fmt.Sprintf("-- up\n%s\n\n-- down\n%s\n", up, down)
}
