// Package dialect contains the SQL dictionaries used to manage the migration
// history table on each supported database.
package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

// Name identifies a supported SQL dialect.
type Name string

// Supported dialects.
const (
	Postgres Name = "postgres"
	SQLite   Name = "sqlite"
)

// Dictionary returns the dialect-specific SQL statements used to manage the
// migration history table. All statements are built for the table name the
// dictionary was created with.
type Dictionary interface {
	Name() Name

	// TableExists returns a query that counts tables named by its single
	// argument.
	TableExists() string
	CreateHistoryTable() string

	SelectIDs() string
	SelectSince() string
	SelectAll() string
	Insert() string
	Delete() string

	Table() string
}

var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName returns an error if name can't be safely interpolated
// into SQL statements as an unquoted identifier.
func ValidateTableName(name string) error {
	if !identRx.MatchString(name) {
		return fmt.Errorf("invalid history table name '%s'", name)
	}
	return nil
}

// New returns the Dictionary for the named dialect.
//
//nolint:ireturn // Intentional, callers only need the interface.
func New(name Name, table string) (Dictionary, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	switch name {
	case Postgres:
		return &postgresDictionary{table: table}, nil
	case SQLite:
		return &sqliteDictionary{table: table}, nil
	default:
		return nil, fmt.Errorf("unsupported SQL dialect '%s'", name)
	}
}

// FromString parses a dialect name. Driver aliases are accepted.
func FromString(s string) (Name, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported SQL dialect '%s'", s)
	}
}
