package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.hackfix.me/migrant/db/dialect"
	"go.hackfix.me/migrant/db/types"
)

const modelName = "migration"

// History reads and writes the migration history table.
type History struct {
	q    types.Querier
	dict dialect.Dictionary
}

// NewHistory returns a new History that runs queries with q, using the
// statements of dict.
func NewHistory(q types.Querier, dict dialect.Dictionary) *History {
	return &History{q: q, dict: dict}
}

// With returns a copy of the History that runs queries with q. This is used
// to mutate history within a transaction.
func (h *History) With(q types.Querier) *History {
	return &History{q: q, dict: h.dict}
}

// Exists returns true if the history table exists.
func (h *History) Exists(ctx context.Context) (bool, error) {
	var count int
	err := h.q.QueryRowContext(ctx, h.dict.TableExists(), h.dict.Table()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed looking up table '%s': %w", h.dict.Table(), err)
	}

	return count > 0, nil
}

// EnsureSchema creates the history table if it doesn't exist. It's safe to
// call it multiple times.
func (h *History) EnsureSchema(ctx context.Context) error {
	exists, err := h.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err = h.q.ExecContext(ctx, h.dict.CreateHistoryTable()); err != nil {
		return fmt.Errorf("failed creating table '%s': %w", h.dict.Table(), err)
	}

	return nil
}

// AppliedIDs returns the IDs of all applied migrations.
func (h *History) AppliedIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := h.q.QueryContext(ctx, h.dict.SelectIDs())
	if err != nil {
		return nil, types.LoadError{ModelName: modelName, Err: err}
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, types.ScanError{ModelName: modelName, Err: err}
		}
		ids[id] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, types.LoadError{ModelName: modelName, Err: err}
	}

	return ids, nil
}

// Since returns all applied migrations whose ID is equal to or greater than
// threshold, in descending ID order.
func (h *History) Since(ctx context.Context, threshold int64) ([]Record, error) {
	return h.load(ctx, h.dict.SelectSince(), threshold)
}

// Records returns all applied migrations, in ascending ID order.
func (h *History) Records(ctx context.Context) ([]Record, error) {
	return h.load(ctx, h.dict.SelectAll())
}

// Record stores m as applied.
func (h *History) Record(ctx context.Context, m Migration) error {
	_, err := h.q.ExecContext(ctx, h.dict.Insert(), m.ID, m.Name, m.Up, m.Down)
	if err != nil {
		return types.Err(modelName, idStr(m.ID), err)
	}

	return nil
}

// Remove deletes the history record of the migration with the given ID. It
// returns a NoResultError if no record exists.
func (h *History) Remove(ctx context.Context, id int64) error {
	res, err := h.q.ExecContext(ctx, h.dict.Delete(), id)
	if err != nil {
		return fmt.Errorf("failed deleting %s %d: %w", modelName, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed deleting %s %d: %w", modelName, id, err)
	}
	if n == 0 {
		return types.NoResultError{ModelName: modelName, ID: idStr(id)}
	}

	return nil
}

func (h *History) load(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := h.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: modelName, Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec            Record
			name, up, down sql.Null[string]
			runAt          timestamp
		)
		if err = rows.Scan(&rec.ID, &name, &up, &down, &runAt); err != nil {
			return nil, types.ScanError{ModelName: modelName, Err: err}
		}
		rec.Name, rec.Up, rec.Down, rec.RunAt = name.V, up.V, down.V, runAt.t
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, types.LoadError{ModelName: modelName, Err: err}
	}

	return records, nil
}

func idStr(id int64) string {
	return "ID " + strconv.FormatInt(id, 10)
}

// SQLite stores CURRENT_TIMESTAMP as text, and drivers differ in whether they
// convert it, so timestamp accepts both forms.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

type timestamp struct {
	t time.Time
}

var _ sql.Scanner = (*timestamp)(nil)

// Scan implements the sql.Scanner interface.
func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.t = time.Time{}
	case time.Time:
		ts.t = v
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp value type %T", src)
	}

	return nil
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.t = t
			return nil
		}
	}

	return fmt.Errorf("failed parsing timestamp '%s'", s)
}
