package context

import (
	"context"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/migrant/app/config"
	"go.hackfix.me/migrant/db"
	"go.hackfix.me/migrant/db/dialect"
	"go.hackfix.me/migrant/db/migrator"
)

// Context contains common objects used by the application. It is passed around
// the application to avoid direct dependencies on external systems, and make
// testing easier.
type Context struct {
	Ctx    context.Context // global context
	FS     vfs.FileSystem  // filesystem
	Env    Environment     // process environment
	Logger *slog.Logger    // global logger
	Config *config.Config
	DB     *db.DB

	// HistoryTable is the name of the migration history table.
	HistoryTable string

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version *VersionInfo
}

// NewMigrator returns a migrator for the application database.
func (c *Context) NewMigrator(opts ...migrator.Option) (*migrator.Migrator, error) {
	dict, err := dialect.New(c.DB.Dialect(), c.HistoryTable)
	if err != nil {
		return nil, err
	}

	opts = append([]migrator.Option{
		migrator.WithLogger(c.Logger),
		migrator.WithOutput(c.Stdout),
	}, opts...)

	//nolint:wrapcheck // This is fine.
	return migrator.New(c.DB, dict, c.FS, opts...)
}
