package cli

import (
	"fmt"
	"strconv"

	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/db/migrator"
)

const timeFormat = "2006-01-02 15:04:05"

// Status prints the state of all known migrations.
type Status struct {
	Dir string `arg:"" optional:"" help:"Directory containing the migration files. If omitted, only applied migrations are shown."`
}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context) error {
	m, err := appCtx.NewMigrator()
	if err != nil {
		return err
	}

	statuses, err := m.Status(appCtx.Ctx, c.Dir)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		data = append(data, []string{
			strconv.FormatInt(st.ID, 10), st.Name, statusText(st), runAtText(st),
		})
	}

	if err = renderTable([]string{"ID", "Name", "Status", "Run At"}, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering table: %w", err)
	}

	return nil
}

func statusText(st migrator.Status) string {
	switch {
	case st.Missing:
		return "applied (missing file)"
	case st.Applied:
		return "applied"
	default:
		return "pending"
	}
}

func runAtText(st migrator.Status) string {
	if !st.Applied || st.RunAt.IsZero() {
		return "-"
	}
	return st.RunAt.Format(timeFormat)
}
