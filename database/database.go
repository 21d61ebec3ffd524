// Package database constructs the bounded Postgres connection pool and
// provides the transaction primitive the migrator and repository run on.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config describes how to reach the database and how the pool is bounded.
type Config struct {
	Host     string
	Port     int
	Name     string
	Schema   string
	User     string
	Password string
	SSLMode  string

	MinConnections int
	MaxConnections int
	AcquireTimeout time.Duration
}

const (
	defaultPort           = 5432
	defaultSchema         = "public"
	defaultMaxConnections = 10
	defaultAcquireTimeout = 5 * time.Second
)

// DB wraps the connection pool together with the configured database schema
// name. All generated SQL is schema-qualified with it.
type DB struct {
	pool           *sql.DB
	schemaName     string
	acquireTimeout time.Duration
}

// Connect opens the pool described by cfg and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Schema == "" {
		cfg.Schema = defaultSchema
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.AcquireTimeout == 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password, cfg.SSLMode,
	)

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s/%s: %w", cfg.Host, cfg.Name, err)
	}

	pool.SetMaxOpenConns(cfg.MaxConnections)
	pool.SetMaxIdleConns(cfg.MinConnections)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database at %s/%s: %w", cfg.Host, cfg.Name, err)
	}

	return &DB{
		pool:           pool,
		schemaName:     cfg.Schema,
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// Pool exposes the underlying pool.
func (d *DB) Pool() *sql.DB { return d.pool }

// SchemaName returns the configured database schema name.
func (d *DB) SchemaName() string { return d.schemaName }

// Close closes the pool.
func (d *DB) Close() error { return d.pool.Close() }

// Acquire checks a connection out of the pool, failing with the pool's
// acquire timeout rather than blocking indefinitely when the pool is
// exhausted. The caller must Close the connection to return it.
func (d *DB) Acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, d.acquireTimeout)
	defer cancel()

	conn, err := d.pool.Conn(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return conn, nil
}

// QueryContext runs a query on a freshly acquired connection.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.pool.QueryContext(ctx, query, args...)
}

// ExecuteInTransaction runs the given statements inside one transaction.
// Either all statements commit or none do; label names the unit of work in
// errors.
func (d *DB) ExecuteInTransaction(ctx context.Context, label string, statements []string) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start %s transaction: %w", label, err)
	}

	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute %s statement: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s transaction: %w", label, err)
	}
	return nil
}
