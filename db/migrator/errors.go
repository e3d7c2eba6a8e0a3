package migrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMigrations is returned when a directory doesn't contain any migration
// files. Callers should treat it as having nothing to do.
var ErrNoMigrations = errors.New("no migrations found")

// ValidationError is returned when a migration file is malformed.
type ValidationError struct {
	File     string
	Problems []string
}

// Error returns a string representation of the error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.File, strings.Join(e.Problems, ", "))
}
