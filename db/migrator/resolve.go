package migrator

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Discover loads and parses all migration files in dir, and returns them in
// ascending ID order. Files that don't follow the migration naming scheme are
// ignored. If any migration file is invalid, or if IDs are duplicated, an
// error describing all problems is returned, and no migrations. If dir
// doesn't contain any migration files, ErrNoMigrations is returned.
func Discover(fs vfs.FileSystem, dir string) ([]Migration, error) {
	entries, err := vfs.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed reading migrations directory '%s': %w", dir, err)
	}

	var (
		migrations []Migration
		errs       []error
		seen       = map[int64]string{}
	)
	for _, fi := range entries {
		if fi.IsDir() || !IsMigrationFile(fi.Name()) {
			continue
		}

		content, rerr := vfs.ReadFile(fs, filepath.Join(dir, fi.Name()))
		if rerr != nil {
			return nil, fmt.Errorf("failed reading migration file '%s': %w", fi.Name(), rerr)
		}

		m, perr := Parse(fi.Name(), string(content))
		if perr != nil {
			errs = append(errs, perr)
			continue
		}

		if other, ok := seen[m.ID]; ok {
			errs = append(errs, &ValidationError{
				File:     m.File,
				Problems: []string{fmt.Sprintf("duplicate migration id %d (also in %s)", m.ID, other)},
			})
			continue
		}
		seen[m.ID] = m.File

		migrations = append(migrations, m)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if len(migrations) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMigrations, dir)
	}

	slices.SortFunc(migrations, byIDAscending)

	return migrations, nil
}

// Pending returns the migrations whose ID is not in applied, preserving their
// order.
func Pending(all []Migration, applied map[int64]struct{}) []Migration {
	pending := make([]Migration, 0, len(all))
	for _, m := range all {
		if _, ok := applied[m.ID]; !ok {
			pending = append(pending, m)
		}
	}

	return pending
}

// RollbackCandidates returns the migrations whose ID is in applied and is
// equal to or greater than threshold, in descending ID order.
func RollbackCandidates(all []Migration, applied map[int64]struct{}, threshold int64) []Migration {
	candidates := make([]Migration, 0, len(all))
	for _, m := range all {
		if _, ok := applied[m.ID]; ok && m.ID >= threshold {
			candidates = append(candidates, m)
		}
	}
	slices.SortFunc(candidates, byIDDescending)

	return candidates
}
