package migrator

import (
	"cmp"
	"fmt"
	"time"
)

// Migration is a numerically identified pair of forward (up) and reverse
// (down) schema change commands.
type Migration struct {
	ID   int64
	Name string
	Up   string
	Down string
	// File is the name of the file the migration was parsed from. It's empty
	// for migrations loaded from the history table.
	File string
}

// String returns the file name of the migration, or its ID and name if it
// wasn't loaded from a file.
func (m Migration) String() string {
	if m.File != "" {
		return m.File
	}
	return fmt.Sprintf("%d - %s", m.ID, m.Name)
}

// Record is an entry of the migration history table.
type Record struct {
	Migration
	RunAt time.Time
}

// Status is the state of a single migration, as reported by Migrator.Status.
type Status struct {
	Migration
	Applied bool
	RunAt   time.Time
	// Missing is true if the migration was applied, but its file wasn't found.
	Missing bool
}

// byIDAscending is the sort key used when applying migrations: lower IDs
// first.
func byIDAscending(a, b Migration) int {
	return cmp.Compare(a.ID, b.ID)
}

// byIDDescending is the sort key used when rolling back migrations: higher
// IDs first, since later migrations may depend on earlier ones.
func byIDDescending(a, b Migration) int {
	return cmp.Compare(b.ID, a.ID)
}
