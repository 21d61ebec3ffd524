package strata

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strata-cms/strata/database"
	"github.com/strata-cms/strata/layout"
	"github.com/strata-cms/strata/migrate"
	"github.com/strata-cms/strata/repository"
	"github.com/strata-cms/strata/schema"
)

// Core bundles a loaded type registry, a connected database, and a
// repository over both. It is the entry point for embedding the
// persistence layer in a host application.
type Core struct {
	registry *schema.Registry
	db       *database.DB
	repo     *repository.Repository
	log      *zap.Logger
}

// Option customizes Open.
type Option func(*openConfig)

type openConfig struct {
	log           *zap.Logger
	skipMigration bool
	excludeTables []string
}

// WithLogger sets the logger used by the migrator and repository.
// The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *openConfig) { c.log = log }
}

// WithoutMigration skips reconciling the database layout during Open.
// Callers that migrate separately (for example via the CLI) use this to
// avoid DDL at application startup.
func WithoutMigration() Option {
	return func(c *openConfig) { c.skipMigration = true }
}

// WithExcludeTables declares pre-existing tables the migrator must treat
// as already present even when the registry does not derive them.
func WithExcludeTables(tables ...string) Option {
	return func(c *openConfig) { c.excludeTables = tables }
}

// Open loads every document type definition from schemaDir, connects to
// the configured database, reconciles the physical layout with the
// registry, and returns a Core ready to serve reads.
func Open(ctx context.Context, schemaDir string, cfg database.Config, opts ...Option) (*Core, error) {
	oc := openConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&oc)
	}

	registry, err := schema.Load(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load document types: %w", err)
	}
	oc.log.Info("loaded document types",
		zap.String("dir", schemaDir),
		zap.Int("count", registry.Len()))

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !oc.skipMigration {
		migrator := migrate.New(db, registry,
			migrate.WithLogger(oc.log),
			migrate.WithExcludeTables(oc.excludeTables...))
		if err := migrator.Run(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return &Core{
		registry: registry,
		db:       db,
		repo:     repository.New(db, registry, repository.WithLogger(oc.log)),
		log:      oc.log,
	}, nil
}

// Registry returns the loaded document type registry.
func (c *Core) Registry() *schema.Registry { return c.registry }

// Repository returns the read repository over the connected database.
func (c *Core) Repository() *repository.Repository { return c.repo }

// DB returns the underlying database handle.
func (c *Core) DB() *database.DB { return c.db }

// Close releases the database connection pool.
func (c *Core) Close() error { return c.db.Close() }

// DDL renders the complete creation script for every table the registry
// derives, in dependency order, without touching a database. Statements
// are separated by ";\n\n" and the script ends with ";\n".
func DDL(registry *schema.Registry, schemaName string) (string, error) {
	tables, err := layout.FromRegistry(registry)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, table := range tables {
		for _, ddl := range migrate.Script(schemaName, table).DDLs {
			builder.WriteString(ddl)
			builder.WriteString(";\n\n")
		}
	}
	return strings.TrimSuffix(builder.String(), "\n"), nil
}
