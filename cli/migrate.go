package cli

import (
	"errors"

	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/db/migrator"
)

// Migrate applies all pending migrations.
type Migrate struct {
	Dir    string `arg:"" optional:"" help:"Directory containing the migration files."`
	DryRun bool   `help:"Print the migration commands instead of executing them."`
}

// Run the migrate command.
func (c *Migrate) Run(appCtx *actx.Context) error {
	if c.Dir == "" {
		return errors.New("migrations directory is required")
	}

	m, err := appCtx.NewMigrator(migrator.WithDryRun(c.DryRun))
	if err != nil {
		return err
	}

	//nolint:wrapcheck // Errors are already descriptive.
	return m.Migrate(appCtx.Ctx, c.Dir)
}
