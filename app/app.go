package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/migrant/app/config"
	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/cli"
	"go.hackfix.me/migrant/db"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application.
func New(name, configFilePath string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(configFilePath, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) (err error) {
	if err = app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if app.ctx.Config == nil {
		cfg := config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err = cfg.Load(); err != nil {
			return err
		}
		app.ctx.Config = cfg
	}
	app.ctx.Config.SetDefaults()
	app.cli.ApplyConfig(app.ctx.Config, app.ctx.Env)
	app.ctx.HistoryTable = app.cli.Table

	if app.ctx.DB == nil {
		if app.cli.DSN == "" {
			return errors.New("database DSN is required")
		}

		d, oerr := db.Open(app.ctx.Ctx, app.cli.Driver, app.cli.DSN)
		if oerr != nil {
			return oerr
		}
		app.ctx.Logger.Debug("opened database",
			"driver", app.cli.Driver, "command", app.cli.Command())

		app.ctx.DB = d
		defer func() {
			if cerr := d.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("failed closing database: %w", cerr))
			}
			app.ctx.DB = nil
		}()
	}

	return app.cli.Execute(app.ctx)
}
