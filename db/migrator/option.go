package migrator

import (
	"io"
	"log/slog"
	"os"
)

// Option is a function that allows configuring the Migrator.
type Option func(*Migrator)

// WithDryRun enables or disables dry-run mode. In dry-run mode migration
// commands are written to the output instead of being executed, and the
// database isn't modified.
func WithDryRun(dryRun bool) Option {
	return func(m *Migrator) {
		m.dryRun = dryRun
	}
}

// WithLogger sets the logger used by the Migrator.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		m.logger = logger.With("component", "migrator")
	}
}

// WithOutput sets the writer dry-run commands are written to.
func WithOutput(w io.Writer) Option {
	return func(m *Migrator) {
		m.out = w
	}
}

// DefaultOptions returns the default Migrator options.
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
		WithOutput(os.Stdout),
	}
}
