package migrate

import "go.uber.org/zap"

// Option configures the migrator.
type Option func(*Migrator)

// WithLogger sets the logger used during planning and applying. The default
// is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Migrator) {
		m.log = log
	}
}

// WithExcludeTables marks additional live tables to ignore during
// introspection, beyond the built-in spatial/system exclusions.
func WithExcludeTables(tables ...string) Option {
	return func(m *Migrator) {
		m.exclude = tables
	}
}
