package cli

import (
	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/db/migrator"
)

// Rollback rolls back applied migrations, starting from the most recent one.
type Rollback struct {
	//nolint:lll // Long struct tags are unavoidable.
	ID     int64  `arg:"" help:"Roll back all applied migrations with this ID or higher."`
	Dir    string `arg:"" optional:"" help:"Directory containing the migration files. If omitted, the down commands stored in the history table are used."`
	DryRun bool   `help:"Print the rollback commands instead of executing them."`
}

// Run the rollback command.
func (c *Rollback) Run(appCtx *actx.Context) error {
	m, err := appCtx.NewMigrator(migrator.WithDryRun(c.DryRun))
	if err != nil {
		return err
	}

	//nolint:wrapcheck // Errors are already descriptive.
	return m.Rollback(appCtx.Ctx, c.ID, c.Dir)
}
