// Package query builds parameterized SELECT statements over the derived
// table layout. Statements are assembled from typed tables, columns and
// conditions and serialized to SQL text only as the final step, keeping
// identifier quoting and parameter-placeholder numbering in one place.
package query

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/strata-cms/strata/schema"
)

// Table references one database table with its statement alias.
type Table struct {
	Schema string
	Name   string
	Alias  string
}

func (t Table) fromSQL() string {
	return fmt.Sprintf("%q.%q AS %s", t.Schema, t.Name, t.Alias)
}

// Column references one column through its table alias.
type Column struct {
	Qualifier string
	Name      string
}

// Qualified renders the alias-qualified, quoted column reference.
func (c Column) Qualified() string {
	return fmt.Sprintf("%s.%q", c.Qualifier, c.Name)
}

// Role tells the decoder what a selected column means. Decoding is driven
// by the declared role and field type, never by inspecting raw values.
type Role int

const (
	RoleDocumentID Role = iota
	RoleCreatedAt
	RoleUpdatedAt
	RolePublishedAt
	RoleLocale
	RoleOwningID
	RoleField
)

// Selected is one column of a statement's select list together with its
// decoding role.
type Selected struct {
	Column    Column
	Role      Role
	Attribute schema.AttributeID
	FieldType schema.AttributeType
}

// JoinKind selects the join operator.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

// Join describes one join clause.
type Join struct {
	Kind  JoinKind
	Table Table
	On    Column
	To    Column
}

// Condition is one WHERE predicate; conditions are AND'ed together.
type Condition interface {
	// appendSQL writes the predicate, allocating placeholders from counter,
	// and returns the bound arguments in placeholder order.
	appendSQL(builder *strings.Builder, counter *int) []any
}

// Equals is `column = $n`.
type Equals struct {
	Column Column
	Value  any
}

func (c Equals) appendSQL(builder *strings.Builder, counter *int) []any {
	fmt.Fprintf(builder, "%s = $%d", c.Column.Qualified(), *counter)
	*counter++
	return []any{c.Value}
}

// In is `column = ANY($n)` over a list of ids, binding the whole list as a
// single array parameter so N owners cost one round trip.
type In struct {
	Column Column
	Values []int64
}

func (c In) appendSQL(builder *strings.Builder, counter *int) []any {
	fmt.Fprintf(builder, "%s = ANY($%d)", c.Column.Qualified(), *counter)
	*counter++
	return []any{pq.Array(c.Values)}
}

// Statement is a built query: SQL text, ordered arguments, and the select
// list the result rows follow positionally.
type Statement struct {
	SQL     string
	Args    []any
	Columns []Selected
}

// Builder assembles one SELECT statement.
type Builder struct {
	from       Table
	selects    []Selected
	joins      []Join
	conditions []Condition
	orderBy    []Column
	limit      int64
	offset     int64
	paginated  bool
}

// From starts a builder over the given table.
func From(table Table) *Builder {
	return &Builder{from: table}
}

// Select appends columns to the select list.
func (b *Builder) Select(columns ...Selected) *Builder {
	b.selects = append(b.selects, columns...)
	return b
}

// Join appends a join clause.
func (b *Builder) Join(join Join) *Builder {
	b.joins = append(b.joins, join)
	return b
}

// Where appends a condition.
func (b *Builder) Where(condition Condition) *Builder {
	b.conditions = append(b.conditions, condition)
	return b
}

// OrderBy appends ordering columns (ascending).
func (b *Builder) OrderBy(columns ...Column) *Builder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

// Paginate bounds the result set with parameterized LIMIT/OFFSET.
func (b *Builder) Paginate(offset, limit int64) *Builder {
	b.offset = offset
	b.limit = limit
	b.paginated = true
	return b
}

// Build serializes the statement. Placeholder numbering is allocated here,
// in clause order, so arguments always line up with their placeholders.
func (b *Builder) Build() Statement {
	var sql strings.Builder
	var args []any
	counter := 1

	sql.WriteString("SELECT ")
	for i, selected := range b.selects {
		if i > 0 {
			sql.WriteString(", ")
		}
		sql.WriteString(selected.Column.Qualified())
	}

	sql.WriteString("\nFROM ")
	sql.WriteString(b.from.fromSQL())

	for _, join := range b.joins {
		keyword := "INNER JOIN"
		if join.Kind == LeftJoin {
			keyword = "LEFT JOIN"
		}
		fmt.Fprintf(&sql, "\n%s %s ON %s = %s",
			keyword, join.Table.fromSQL(), join.On.Qualified(), join.To.Qualified())
	}

	if len(b.conditions) > 0 {
		sql.WriteString("\nWHERE ")
		for i, condition := range b.conditions {
			if i > 0 {
				sql.WriteString(" AND ")
			}
			args = append(args, condition.appendSQL(&sql, &counter)...)
		}
	}

	if len(b.orderBy) > 0 {
		sql.WriteString("\nORDER BY ")
		for i, column := range b.orderBy {
			if i > 0 {
				sql.WriteString(", ")
			}
			sql.WriteString(column.Qualified())
		}
	}

	if b.paginated {
		fmt.Fprintf(&sql, "\nLIMIT $%d OFFSET $%d", counter, counter+1)
		counter += 2
		args = append(args, b.limit, b.offset)
	}

	return Statement{
		SQL:     sql.String(),
		Args:    args,
		Columns: b.selects,
	}
}
