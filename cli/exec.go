package cli

import (
	"fmt"

	actx "go.hackfix.me/migrant/app/context"
)

// Exec executes an arbitrary SQL statement outside of any migration.
type Exec struct {
	Statement string   `arg:"" help:"SQL statement to execute."`
	Args      []string `arg:"" optional:"" help:"Statement arguments."`
	Query     bool     `short:"q" help:"Print the rows returned by the statement."`
}

// Run the exec command.
func (c *Exec) Run(appCtx *actx.Context) error {
	m, err := appCtx.NewMigrator()
	if err != nil {
		return err
	}

	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = a
	}

	if !c.Query {
		res, err := m.ExecRaw(appCtx.Ctx, c.Statement, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			appCtx.Logger.Debug("rows affected unavailable", "error", err)
			return nil
		}
		_, err = fmt.Fprintf(appCtx.Stdout, "%d rows affected\n", n)
		return err //nolint:wrapcheck // This is fine.
	}

	rows, err := m.QueryRaw(appCtx.Ctx, c.Statement, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed reading columns: %w", err)
	}

	var data [][]string
	for rows.Next() {
		values := make([]any, len(header))
		ptrs := make([]any, len(header))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed scanning row: %w", err)
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		data = append(data, row)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed reading rows: %w", err)
	}

	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering table: %w", err)
	}

	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
