package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// System tables that may live in an application schema (PostGIS puts them in
// "public") and must never be treated as document tables.
var systemTables = []string{"geometry_columns", "spatial_ref_sys"}

// existingTables returns the names of the base tables currently present in
// the given database schema, excluding known system tables and any
// additional exclusions from options. This is the migrator's only read
// dependency on the live database.
func existingTables(ctx context.Context, db queryer, schemaName string, exclude []string) (map[string]bool, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := db.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in schema %s: %w", schemaName, err)
	}
	defer rows.Close()

	excluded := make(map[string]bool, len(systemTables)+len(exclude))
	for _, name := range systemTables {
		excluded[name] = true
	}
	for _, name := range exclude {
		excluded[name] = true
	}

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if excluded[name] {
			continue
		}
		existing[name] = true
	}

	return existing, rows.Err()
}

// queryer is the subset of *sql.DB the introspection needs; it keeps the
// migrator testable without a live database.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
