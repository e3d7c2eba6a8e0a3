package dialect

import "fmt"

type sqliteDictionary struct {
	table string
}

var _ Dictionary = &sqliteDictionary{}

func (d *sqliteDictionary) Name() Name {
	return SQLite
}

func (d *sqliteDictionary) Table() string {
	return d.table
}

func (d *sqliteDictionary) TableExists() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (d *sqliteDictionary) CreateHistoryTable() string {
	return fmt.Sprintf(`
		CREATE TABLE %s (
			id     INTEGER PRIMARY KEY,
			name   TEXT,
			up     TEXT,
			dn     TEXT,
			run_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, d.table)
}

func (d *sqliteDictionary) SelectIDs() string {
	return fmt.Sprintf(`SELECT id FROM %s`, d.table)
}

func (d *sqliteDictionary) SelectSince() string {
	return fmt.Sprintf(
		`SELECT id, name, up, dn, run_at FROM %s WHERE id >= ? ORDER BY id DESC`, d.table)
}

func (d *sqliteDictionary) SelectAll() string {
	return fmt.Sprintf(`SELECT id, name, up, dn, run_at FROM %s ORDER BY id ASC`, d.table)
}

func (d *sqliteDictionary) Insert() string {
	return fmt.Sprintf(`INSERT INTO %s (id, name, up, dn) VALUES (?, ?, ?, ?)`, d.table)
}

func (d *sqliteDictionary) Delete() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, d.table)
}
