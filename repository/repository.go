// Package repository executes built queries against the connection pool
// and decodes result rows into typed document instances.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/strata-cms/strata/database"
	"github.com/strata-cms/strata/document"
	"github.com/strata-cms/strata/query"
	"github.com/strata-cms/strata/schema"
)

// Caller-facing validation errors. Both are detected before any SQL
// executes.
var (
	// ErrUnknownRelation is returned when a requested relation attribute is
	// not declared on the document type.
	ErrUnknownRelation = errors.New("unknown relation attribute")
	// ErrNotOwningRelation is returned when relation population is requested
	// for an inverse relation, which has no junction table to read.
	ErrNotOwningRelation = errors.New("relation is not owning")
)

// Query bounds a main fetch. A zero Limit means no pagination.
type Query struct {
	Offset int64
	Limit  int64
}

// Repository reads document instances through the derived table layout. It
// is safe for concurrent use; all state is read-only after construction.
type Repository struct {
	db       *database.DB
	registry *schema.Registry
	log      *zap.Logger
}

// New builds a repository over the given pool and registry.
func New(db *database.DB, registry *schema.Registry, opts ...Option) *Repository {
	r := &Repository{
		db:       db,
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures the repository.
type Option func(*Repository)

// WithLogger sets the logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

// Type looks the document type up in the registry backing this repository.
func (r *Repository) Type(id schema.DocumentTypeID) (*schema.DocumentType, bool) {
	return r.registry.Get(id)
}

// Find returns the instances of the given document type, ordered by row
// identity (and locale for localized types).
func (r *Repository) Find(ctx context.Context, doc *schema.DocumentType, q Query) ([]document.Instance, error) {
	builder := query.ForDocument(r.db.SchemaName(), doc)
	if q.Limit > 0 {
		builder.Paginate(q.Offset, q.Limit)
	}

	instances, _, err := r.fetch(ctx, doc, builder.Build())
	return instances, err
}

// FindByID returns the instance with the given row identity, or nil when no
// such row exists. The nil result is a normal outcome, not an error.
func (r *Repository) FindByID(ctx context.Context, doc *schema.DocumentType, id int64) (*document.Instance, error) {
	statement := query.ByID(r.db.SchemaName(), doc, id).Build()

	instances, _, err := r.fetch(ctx, doc, statement)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}
	return &instances[0], nil
}

// Count returns the number of rows in the document type's main table.
func (r *Repository) Count(ctx context.Context, doc *schema.DocumentType) (int64, error) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %q.%q", r.db.SchemaName(), doc.MainTableName())

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int64
	if err := conn.QueryRowContext(ctx, sql).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", doc.ID, err)
	}
	return count, nil
}

// FetchRelationsForMany populates the given owning relation attributes for
// every owner id in one query per attribute. The result maps every
// requested attribute to a mapping of owning id to related instances; an
// owner with no related rows maps to an empty list, never a missing entry.
// Relation attributes are validated before any SQL executes.
func (r *Repository) FetchRelationsForMany(
	ctx context.Context,
	doc *schema.DocumentType,
	owningIDs []int64,
	attrs []schema.AttributeID,
) (map[schema.AttributeID]map[int64][]document.Instance, error) {
	type relationFetch struct {
		attr   schema.AttributeID
		target *schema.DocumentType
	}

	fetches := make([]relationFetch, 0, len(attrs))
	for _, attr := range attrs {
		rel, ok := doc.Relations[attr]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, doc.ID, attr)
		}
		if !rel.Type.IsOwning() {
			return nil, fmt.Errorf("%w: %s.%s", ErrNotOwningRelation, doc.ID, attr)
		}
		fetches = append(fetches, relationFetch{attr: attr, target: rel.Target()})
	}

	result := make(map[schema.AttributeID]map[int64][]document.Instance, len(fetches))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, fetch := range fetches {
		fetch := fetch
		group.Go(func() error {
			statement := query.ForRelation(r.db.SchemaName(), doc, fetch.attr, fetch.target).
				OwnerIn(doc, owningIDs).
				Build()

			instances, owners, err := r.fetch(groupCtx, fetch.target, statement)
			if err != nil {
				return fmt.Errorf("failed to populate relation %s.%s: %w", doc.ID, fetch.attr, err)
			}

			grouped := groupByOwner(owningIDs, owners, instances)

			mu.Lock()
			result[fetch.attr] = grouped
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchRelationsForOne populates relations of a single owner row.
func (r *Repository) FetchRelationsForOne(
	ctx context.Context,
	doc *schema.DocumentType,
	owningID int64,
	attrs []schema.AttributeID,
) (map[schema.AttributeID][]document.Instance, error) {
	many, err := r.FetchRelationsForMany(ctx, doc, []int64{owningID}, attrs)
	if err != nil {
		return nil, err
	}

	result := make(map[schema.AttributeID][]document.Instance, len(many))
	for attr, grouped := range many {
		result[attr] = grouped[owningID]
	}
	return result, nil
}

// fetch runs one statement on an acquired connection and decodes every row.
// The returned owner ids are parallel to the instances and only meaningful
// for relation fetches.
func (r *Repository) fetch(ctx context.Context, doc *schema.DocumentType, statement query.Statement) ([]document.Instance, []int64, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	r.log.Debug("executing query",
		zap.String("document_type", doc.ID.String()),
		zap.Int("args", len(statement.Args)))

	rows, err := conn.QueryContext(ctx, statement.SQL, statement.Args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query %s: %w", doc.ID, err)
	}
	defer rows.Close()

	var instances []document.Instance
	var owners []int64
	for rows.Next() {
		targets, err := scanTargets(statement.Columns)
		if err != nil {
			return nil, nil, err
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan %s row: %w", doc.ID, err)
		}
		instance, owningID, err := decodeRow(doc, statement.Columns, targets)
		if err != nil {
			return nil, nil, err
		}
		instances = append(instances, instance)
		owners = append(owners, owningID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read %s rows: %w", doc.ID, err)
	}

	return instances, owners, nil
}

// groupByOwner groups related instances by their owning id. Every requested
// owner appears in the result, owners without related rows with an empty
// list.
func groupByOwner(owningIDs, owners []int64, instances []document.Instance) map[int64][]document.Instance {
	grouped := make(map[int64][]document.Instance, len(owningIDs))
	for _, id := range owningIDs {
		grouped[id] = []document.Instance{}
	}
	for i, instance := range instances {
		grouped[owners[i]] = append(grouped[owners[i]], instance)
	}
	return grouped
}
