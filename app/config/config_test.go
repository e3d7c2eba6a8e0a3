package config_test

import (
	"database/sql"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/migrant/app/config"
	"go.hackfix.me/migrant/db/dialect"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		json   string
		exp    config.Config
		expErr string
	}{
		{
			name: "ok/empty",
			json: "",
		},
		{
			name: "ok/full",
			json: `{"database": {"driver": "sqlite3", "dsn": "file:app.db"},
				"history": {"table": "schema_history"},
				"migrations": {"dir": "/srv/migrations"}}`,
			exp: config.Config{
				Database: config.Database{
					Driver: sql.Null[dialect.Name]{V: dialect.SQLite, Valid: true},
					DSN:    sql.Null[string]{V: "file:app.db", Valid: true},
				},
				History: config.History{
					Table: sql.Null[string]{V: "schema_history", Valid: true},
				},
				Migrations: config.Migrations{
					Dir: sql.Null[string]{V: "/srv/migrations", Valid: true},
				},
			},
		},
		{
			name:   "err/invalid_driver",
			json:   `{"database": {"driver": "oracle"}}`,
			expErr: "failed parsing database driver: unsupported SQL dialect 'oracle'",
		},
		{
			name:   "err/invalid_table",
			json:   `{"history": {"table": "drop table"}}`,
			expErr: "invalid history table name 'drop table'",
		},
		{
			name:   "err/invalid_json",
			json:   `{`,
			expErr: "failed parsing configuration file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tt.json != "" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tt.json), 0o644))
			}

			cfg := config.NewConfig(fs, "/config.json")
			err := cfg.Load()
			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.exp.Database, cfg.Database)
			assert.Equal(t, tt.exp.History, cfg.History)
			assert.Equal(t, tt.exp.Migrations, cfg.Migrations)
		})
	}
}

func TestConfigSaveAndDefaults(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	cfg := config.NewConfig(fs, "/etc/migrant/config.json")
	cfg.SetDefaults()
	cfg.Database.DSN = sql.Null[string]{V: "postgres://localhost/app", Valid: true}
	require.NoError(t, cfg.Save())

	data, err := vfs.ReadFile(fs, "/etc/migrant/config.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"database": {"driver": "postgres", "dsn": "postgres://localhost/app"},
		"history": {"table": "_migrations"},
		"migrations": {}
	}`, string(data))

	loaded := config.NewConfig(fs, cfg.Path())
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, cfg.History, loaded.History)
}
