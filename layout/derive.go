package layout

import (
	"fmt"

	"github.com/strata-cms/strata/schema"
)

// Column names shared by every derived table. The query builder selects the
// same names; both paths go through schema identifier normalization so they
// can never diverge.
const (
	DocumentIDColumn = "document_id"
	RelationIDColumn = "relation_id"
	LocaleColumn     = "locale"
	CreatedAtColumn  = "created_at"
	UpdatedAtColumn  = "updated_at"
	PublishedColumn  = "published_at"
)

const localeLength = 2

// DocumentTables is the full table set derived from one document type.
type DocumentTables struct {
	Main         Table
	Localization *Table
	Relations    []Table
}

// Derive maps one document type into its table set. It consults the
// resolved relation targets for junction table naming; an unresolved target
// is a broken invariant (the registry links targets at load time) and is
// reported as an error rather than silently skipping the table.
func Derive(doc *schema.DocumentType) (DocumentTables, error) {
	main := deriveMainTable(doc)

	var localization *Table
	if doc.HasLocalization() {
		t := deriveLocalizationTable(doc)
		localization = &t
	}

	relations := make([]Table, 0, len(doc.Relations))
	for _, attr := range doc.RelationIDs() {
		rel := doc.Relations[attr]
		if rel.Type.IsInverse() {
			continue
		}
		table, err := deriveRelationTable(doc, attr, rel)
		if err != nil {
			return DocumentTables{}, err
		}
		relations = append(relations, table)
	}

	return DocumentTables{
		Main:         main,
		Localization: localization,
		Relations:    relations,
	}, nil
}

// FromRegistry derives every table for every loaded document type in
// dependency order: all main tables first, then all localization tables,
// then all relation tables, because junction foreign keys reference main
// tables. Document types are visited sorted by id so the result is
// deterministic.
func FromRegistry(reg *schema.Registry) ([]Table, error) {
	var tables []Table
	var relationTables []Table

	for _, doc := range reg.AllSorted() {
		derived, err := Derive(doc)
		if err != nil {
			return nil, err
		}
		tables = append(tables, derived.Main)
		if derived.Localization != nil {
			tables = append(tables, *derived.Localization)
		}
		relationTables = append(relationTables, derived.Relations...)
	}

	return append(tables, relationTables...), nil
}

func deriveMainTable(doc *schema.DocumentType) Table {
	columns := []Column{primaryKeyColumn(DocumentIDColumn, Serial, 0)}

	for _, attr := range doc.FieldIDs() {
		field := doc.Fields[attr]
		if field.Localized {
			continue
		}
		columns = append(columns, fieldColumn(attr, field))
	}

	columns = append(columns,
		newColumn(CreatedAtColumn, TimestampTZ, true, false, "now()"),
		newColumn(UpdatedAtColumn, TimestampTZ, false, false, ""),
	)
	if doc.HasDraftAndPublish() {
		columns = append(columns, newColumn(PublishedColumn, TimestampTZ, false, false, ""))
	}

	return Table{Name: doc.MainTableName(), Columns: columns}
}

func deriveLocalizationTable(doc *schema.DocumentType) Table {
	name := doc.LocalizationTableName()
	columns := []Column{
		primaryKeyColumn(DocumentIDColumn, Integer, 0),
		primaryKeyColumn(LocaleColumn, Varchar, localeLength),
	}

	for _, attr := range doc.FieldIDs() {
		field := doc.Fields[attr]
		if !field.Localized {
			continue
		}
		columns = append(columns, fieldColumn(attr, field))
	}

	return Table{
		Name:    name,
		Columns: columns,
		ForeignKeys: []ForeignKey{{
			Table:            name,
			Column:           DocumentIDColumn,
			ReferencedTable:  doc.MainTableName(),
			ReferencedColumn: DocumentIDColumn,
		}},
		Indexes: []Index{{
			Table:   name,
			Columns: []string{DocumentIDColumn},
		}},
	}
}

func deriveRelationTable(doc *schema.DocumentType, attr schema.AttributeID, rel schema.RelationSpec) (Table, error) {
	target := rel.Target()
	if target == nil {
		return Table{}, fmt.Errorf("document type %q: relation %q has no resolved target (registry not linked?)", doc.ID, attr)
	}

	name := doc.RelationTableName(attr)
	owningColumn := doc.RelationColumnName()
	inverseColumn := target.RelationColumnName()

	columns := []Column{
		primaryKeyColumn(RelationIDColumn, Serial, 0),
		newColumn(owningColumn, Integer, true, false, ""),
		newColumn(inverseColumn, Integer, true, false, ""),
	}
	if rel.Ordering {
		columns = append(columns, newColumn(inverseColumn+"_order", Integer, true, false, ""))
	}

	return Table{
		Name:    name,
		Columns: columns,
		ForeignKeys: []ForeignKey{
			{
				Table:            name,
				Column:           owningColumn,
				ReferencedTable:  doc.MainTableName(),
				ReferencedColumn: DocumentIDColumn,
			},
			{
				Table:            name,
				Column:           inverseColumn,
				ReferencedTable:  target.MainTableName(),
				ReferencedColumn: DocumentIDColumn,
			},
		},
		Indexes: []Index{
			{Table: name, Columns: []string{owningColumn}},
			{Table: name, Columns: []string{inverseColumn}},
		},
	}, nil
}

// fieldColumn picks the SQL column type for a field by its declared
// attribute type. The mapping is fixed, never inferred from data.
func fieldColumn(attr schema.AttributeID, field schema.FieldSpec) Column {
	return newColumn(attr.Normalized(), columnTypeFor(field.Type), field.Required, field.Unique, "")
}

func columnTypeFor(t schema.AttributeType) ColumnType {
	switch t {
	case schema.Uid, schema.Text:
		return Text
	case schema.Uuid:
		return UUID
	case schema.Integer:
		return Integer
	case schema.Decimal:
		return Decimal
	case schema.Date:
		return Date
	case schema.DateTime:
		return TimestampTZ
	case schema.Boolean:
		return Boolean
	}
	panic(fmt.Sprintf("layout: unknown attribute type %d", int(t)))
}
