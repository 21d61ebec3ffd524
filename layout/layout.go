// Package layout derives the normalized relational table layout of a
// document type: its main table, an optional localization side table, and
// one junction table per owning relation.
//
// Derivation is a pure function of the schema; the same registry always
// yields byte-identical Table values, which is what makes the migration diff
// idempotent.
package layout

import "fmt"

// Table describes one database table to be created.
type Table struct {
	// Name is the table name without schema qualification.
	Name string
	// Columns contains the table's columns in definition order.
	Columns []Column
	// ForeignKeys contains foreign key constraints from this table.
	ForeignKeys []ForeignKey
	// Indexes contains supporting (non primary key) indexes.
	Indexes []Index
}

// Column describes one column within a table.
type Column struct {
	// Name is the column name.
	Name string
	// Type is the abstract column type, rendered to SQL by the migrator.
	Type ColumnType
	// Length is an optional type length modifier (e.g. VARCHAR(2)).
	Length int
	// NotNull indicates a NOT NULL constraint.
	NotNull bool
	// Unique indicates an inline UNIQUE constraint.
	Unique bool
	// PrimaryKey marks the column as part of the table's primary key.
	PrimaryKey bool
	// Default is the default value expression, empty if none.
	Default string
}

// ForeignKey describes a foreign key constraint.
type ForeignKey struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Index describes an index on one or more columns.
type Index struct {
	Table   string
	Columns []string
	Unique  bool
}

// ColumnType enumerates the SQL column types derivation emits.
type ColumnType int

const (
	Serial ColumnType = iota
	UUID
	Text
	Varchar
	Integer
	Decimal
	Date
	TimestampTZ
	Boolean
)

// SQL returns the Postgres type name for the column type.
func (t ColumnType) SQL() string {
	switch t {
	case Serial:
		return "SERIAL"
	case UUID:
		return "UUID"
	case Text:
		return "TEXT"
	case Varchar:
		return "VARCHAR"
	case Integer:
		return "INTEGER"
	case Decimal:
		return "DECIMAL"
	case Date:
		return "DATE"
	case TimestampTZ:
		return "TIMESTAMPTZ"
	case Boolean:
		return "BOOLEAN"
	}
	panic(fmt.Sprintf("layout: unknown column type %d", int(t)))
}

func newColumn(name string, t ColumnType, notNull, unique bool, defaultValue string) Column {
	return Column{
		Name:    name,
		Type:    t,
		NotNull: notNull,
		Unique:  unique,
		Default: defaultValue,
	}
}

func primaryKeyColumn(name string, t ColumnType, length int) Column {
	return Column{
		Name:       name,
		Type:       t,
		Length:     length,
		PrimaryKey: true,
	}
}
