// Package migrate reconciles the live database against the table layout
// derived from the schema registry. Reconciliation is additive only: tables
// missing from the database are created; tables that already exist are left
// untouched, even if their column set has drifted. Re-running the migrator
// against an up-to-date database is a no-op.
//
//	migrator := migrate.New(db, registry, migrate.WithLogger(logger))
//	if err := migrator.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/strata-cms/strata/layout"
	"github.com/strata-cms/strata/schema"
)

// Database is the execution capability the migrator needs. *database.DB
// satisfies it.
type Database interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecuteInTransaction(ctx context.Context, label string, statements []string) error
	SchemaName() string
}

// Migrator plans and applies additive schema migrations. It is meant to run
// once, sequentially, before the process starts serving queries.
type Migrator struct {
	db       Database
	registry *schema.Registry
	log      *zap.Logger
	exclude  []string
}

// New builds a Migrator over the given database and registry.
func New(db Database, registry *schema.Registry, opts ...Option) *Migrator {
	m := &Migrator{
		db:       db,
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Plan computes the DDL scripts for every desired table absent from the
// live database, in dependency order (main tables, then localization
// tables, then relation tables). No column-level diffing is performed.
func (m *Migrator) Plan(ctx context.Context) ([]TableScript, error) {
	existing, err := existingTables(ctx, m.db, m.db.SchemaName(), m.exclude)
	if err != nil {
		return nil, err
	}

	desired, err := layout.FromRegistry(m.registry)
	if err != nil {
		return nil, err
	}

	return Diff(m.db.SchemaName(), desired, existing), nil
}

// Diff selects the desired tables missing from existing and generates their
// scripts, preserving the dependency order of desired. It is split from
// Plan so planning logic is testable without a database.
func Diff(schemaName string, desired []layout.Table, existing map[string]bool) []TableScript {
	var scripts []TableScript
	for _, table := range desired {
		if existing[table.Name] {
			continue
		}
		scripts = append(scripts, Script(schemaName, table))
	}
	return scripts
}

// Apply executes each table script in its own transaction, sequentially.
// The first failure aborts the remaining plan; every already-applied table
// is fully formed because its script was transactional.
func (m *Migrator) Apply(ctx context.Context, scripts []TableScript) error {
	for _, script := range scripts {
		m.log.Info("creating table",
			zap.String("table", script.Table),
			zap.Int("statements", len(script.DDLs)))

		if err := m.db.ExecuteInTransaction(ctx, "CREATE TABLE "+script.Table, script.DDLs); err != nil {
			return fmt.Errorf("migration failed at table %s: %w", script.Table, err)
		}
	}
	return nil
}

// Run plans and applies in one step.
func (m *Migrator) Run(ctx context.Context) error {
	scripts, err := m.Plan(ctx)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		m.log.Info("database schema is up to date")
		return nil
	}

	m.log.Info("applying migration plan", zap.Int("tables", len(scripts)))
	return m.Apply(ctx, scripts)
}
