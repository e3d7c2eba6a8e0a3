package dialect

import "fmt"

type postgresDictionary struct {
	table string
}

var _ Dictionary = &postgresDictionary{}

func (d *postgresDictionary) Name() Name {
	return Postgres
}

func (d *postgresDictionary) Table() string {
	return d.table
}

func (d *postgresDictionary) TableExists() string {
	return `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1`
}

func (d *postgresDictionary) CreateHistoryTable() string {
	return fmt.Sprintf(`
		CREATE TABLE %s (
			id     INTEGER PRIMARY KEY,
			name   TEXT,
			up     TEXT,
			dn     TEXT,
			run_at TIMESTAMP DEFAULT NOW()
		)`, d.table)
}

func (d *postgresDictionary) SelectIDs() string {
	return fmt.Sprintf(`SELECT id FROM %s`, d.table)
}

func (d *postgresDictionary) SelectSince() string {
	return fmt.Sprintf(
		`SELECT id, name, up, dn, run_at FROM %s WHERE id >= $1 ORDER BY id DESC`, d.table)
}

func (d *postgresDictionary) SelectAll() string {
	return fmt.Sprintf(`SELECT id, name, up, dn, run_at FROM %s ORDER BY id ASC`, d.table)
}

func (d *postgresDictionary) Insert() string {
	return fmt.Sprintf(`INSERT INTO %s (id, name, up, dn) VALUES ($1, $2, $3, $4)`, d.table)
}

func (d *postgresDictionary) Delete() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, d.table)
}
