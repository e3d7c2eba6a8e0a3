package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/migrant/app/config"
	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/db/dialect"
)

// CLI is the command line interface of migrant.
type CLI struct {
	Migrate  Migrate  `kong:"cmd,help='Apply pending migrations.'"`
	Rollback Rollback `kong:"cmd,help='Roll back applied migrations.'"`
	Status   Status   `kong:"cmd,help='Show applied and pending migrations.'"`
	Exec     Exec     `kong:"cmd,help='Execute an SQL statement.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	Driver dialect.Name `kong:"type='dialect',help='Database driver. Valid values: postgres, sqlite.'"`
	DSN    string       `kong:"name='dsn',help='Database connection string. Falls back to $DATABASE_URL.'"`
	Table  string       `kong:"help='Name of the migration history table.'"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the migrant configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("migrant"),
		kong.Description("Apply and roll back SQL schema migrations."),
		kong.UsageOnError(),
		kong.DefaultEnvars("MIGRANT"),
		kong.NamedMapper("dialect", DialectMapper{}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set. The DSN falls back to the DATABASE_URL environment variable if
// it's not set in the configuration either.
func (c *CLI) ApplyConfig(cfg *config.Config, env actx.Environment) {
	if c.Driver == "" && cfg.Database.Driver.Valid {
		c.Driver = cfg.Database.Driver.V
	}
	if c.DSN == "" && cfg.Database.DSN.Valid {
		c.DSN = cfg.Database.DSN.V
	}
	if c.DSN == "" && env != nil {
		c.DSN = env.Get("DATABASE_URL")
	}
	if c.Table == "" && cfg.History.Table.Valid {
		c.Table = cfg.History.Table.V
	}
	if cfg.Migrations.Dir.Valid {
		if c.Migrate.Dir == "" {
			c.Migrate.Dir = cfg.Migrations.Dir.V
		}
		if c.Status.Dir == "" {
			c.Status.Dir = cfg.Migrations.Dir.V
		}
	}
}
