package migrate

import (
	"fmt"
	"strings"

	"github.com/strata-cms/strata/layout"
)

// TableScript is the ordered DDL for one table: a single CREATE TABLE with
// an inline primary key clause, then one ALTER TABLE per foreign key, then
// one CREATE INDEX per index. The whole script is applied in one
// transaction.
type TableScript struct {
	// Table is the unqualified table name, used for failure attribution.
	Table string
	// DDLs are the statements in execution order.
	DDLs []string
}

// Script generates the DDL script for one derived table in the given
// database schema.
func Script(schemaName string, table layout.Table) TableScript {
	ddls := []string{createTableDDL(schemaName, table)}

	for _, fk := range table.ForeignKeys {
		ddls = append(ddls, foreignKeyDDL(schemaName, fk))
	}
	for _, index := range table.Indexes {
		ddls = append(ddls, indexDDL(schemaName, index))
	}

	return TableScript{Table: table.Name, DDLs: ddls}
}

func createTableDDL(schemaName string, table layout.Table) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("CREATE TABLE %q.%q (\n", schemaName, table.Name))

	var pkColumns []string
	for _, column := range table.Columns {
		builder.WriteString("    ")
		builder.WriteString(columnDDL(column))
		builder.WriteString(",\n")
		if column.PrimaryKey {
			pkColumns = append(pkColumns, column.Name)
		}
	}

	builder.WriteString(fmt.Sprintf("    PRIMARY KEY(%s)\n)", strings.Join(pkColumns, ",")))
	return builder.String()
}

func columnDDL(column layout.Column) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%q %s", column.Name, column.Type.SQL()))
	if column.Length > 0 {
		builder.WriteString(fmt.Sprintf("(%d)", column.Length))
	}
	if column.NotNull {
		builder.WriteString(" NOT NULL")
	}
	if column.Default != "" {
		builder.WriteString(" DEFAULT " + column.Default)
	}
	if column.Unique {
		builder.WriteString(" UNIQUE")
	}

	return builder.String()
}

func foreignKeyDDL(schemaName string, fk layout.ForeignKey) string {
	return fmt.Sprintf(
		"ALTER TABLE %q.%q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q.%q (%q) ON DELETE CASCADE",
		schemaName, fk.Table,
		fk.Table+"_"+fk.Column+"_fkey",
		fk.Column,
		schemaName, fk.ReferencedTable,
		fk.ReferencedColumn,
	)
}

func indexDDL(schemaName string, index layout.Index) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}

	quoted := make([]string, len(index.Columns))
	for i, column := range index.Columns {
		quoted[i] = fmt.Sprintf("%q", column)
	}

	return fmt.Sprintf(
		"CREATE %sINDEX %q ON %q.%q (%s)",
		unique,
		index.Table+"_"+strings.Join(index.Columns, "_")+"_idx",
		schemaName, index.Table,
		strings.Join(quoted, ", "),
	)
}
