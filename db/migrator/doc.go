// Package migrator provides functionality to manage database schema migrations.
//
// Features:
//   - Loads SQL migration files named `{id}.{name}.sql` from a vfs.FileSystem.
//     Each file contains an `-- up` and a `-- down` block, in any order.
//   - Validates every file before anything runs, and reports all problems at once.
//   - Tracks migration history in a dedicated database table, which also stores
//     the command text, so rollbacks work after files are deleted.
//   - Applies each migration and its history change in a single transaction,
//     and stops at the first failure.
//   - Supports a dry-run mode that prints commands without executing them.
package migrator
