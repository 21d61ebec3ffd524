package query

import (
	"github.com/strata-cms/strata/layout"
	"github.com/strata-cms/strata/schema"
)

// Statement aliases: the main table is always "m", its localization side
// table "l", and a junction table "r".
const (
	mainAlias         = "m"
	localizationAlias = "l"
	relationAlias     = "r"
)

// ForDocument builds the main fetch over a document type's table layout:
// identity and audit columns plus every field column, left-joined to the
// localization table when the type has one, ordered by identity (and
// locale) for deterministic pagination.
func ForDocument(schemaName string, doc *schema.DocumentType) *Builder {
	main := Table{Schema: schemaName, Name: doc.MainTableName(), Alias: mainAlias}

	builder := From(main).Select(documentColumns(doc)...)

	if doc.HasLocalization() {
		builder.Join(Join{
			Kind:  LeftJoin,
			Table: Table{Schema: schemaName, Name: doc.LocalizationTableName(), Alias: localizationAlias},
			On:    Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn},
			To:    Column{Qualifier: localizationAlias, Name: layout.DocumentIDColumn},
		})
	}

	builder.OrderBy(Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn})
	if doc.HasLocalization() {
		builder.OrderBy(Column{Qualifier: localizationAlias, Name: layout.LocaleColumn})
	}

	return builder
}

// ByID builds the main fetch narrowed to a single row identity.
func ByID(schemaName string, doc *schema.DocumentType, id int64) *Builder {
	return ForDocument(schemaName, doc).Where(Equals{
		Column: Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn},
		Value:  id,
	})
}

// ForRelation builds the relation-population fetch: the junction table of
// the owning relation attr on doc, inner-joined to the target's main table
// on the inverse foreign key. The select list is the target's main-fetch
// columns plus the owning id (for client-side grouping), ordered by owning
// id. Callers add the owner filter via OwnerEquals or OwnerIn.
func ForRelation(schemaName string, doc *schema.DocumentType, attr schema.AttributeID, target *schema.DocumentType) *Builder {
	junction := Table{Schema: schemaName, Name: doc.RelationTableName(attr), Alias: relationAlias}
	targetMain := Table{Schema: schemaName, Name: target.MainTableName(), Alias: mainAlias}

	owningColumn := Column{Qualifier: relationAlias, Name: doc.RelationColumnName()}
	inverseColumn := Column{Qualifier: relationAlias, Name: target.RelationColumnName()}

	columns := documentColumns(target)
	columns = append(columns, Selected{Column: owningColumn, Role: RoleOwningID})

	builder := From(junction).
		Join(Join{
			Kind:  InnerJoin,
			Table: targetMain,
			On:    Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn},
			To:    inverseColumn,
		}).
		Select(columns...)

	if target.HasLocalization() {
		builder.Join(Join{
			Kind:  LeftJoin,
			Table: Table{Schema: schemaName, Name: target.LocalizationTableName(), Alias: localizationAlias},
			On:    Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn},
			To:    Column{Qualifier: localizationAlias, Name: layout.DocumentIDColumn},
		})
	}

	builder.OrderBy(owningColumn, Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn})
	if target.HasLocalization() {
		builder.OrderBy(Column{Qualifier: localizationAlias, Name: layout.LocaleColumn})
	}

	return builder
}

// OwnerEquals narrows a relation fetch to one owner row.
func (b *Builder) OwnerEquals(doc *schema.DocumentType, id int64) *Builder {
	return b.Where(Equals{
		Column: Column{Qualifier: relationAlias, Name: doc.RelationColumnName()},
		Value:  id,
	})
}

// OwnerIn narrows a relation fetch to any of the given owner rows in one
// round trip. Results must be grouped by owning id client-side.
func (b *Builder) OwnerIn(doc *schema.DocumentType, ids []int64) *Builder {
	return b.Where(In{
		Column: Column{Qualifier: relationAlias, Name: doc.RelationColumnName()},
		Values: ids,
	})
}

// documentColumns is the shared select list of the main fetch: identity,
// audit columns, locale when localized, then every field column in sorted
// attribute order, each aliased to the main or localization table by its
// localized flag. The names come from the same normalization as table
// derivation.
func documentColumns(doc *schema.DocumentType) []Selected {
	columns := []Selected{
		{Column: Column{Qualifier: mainAlias, Name: layout.DocumentIDColumn}, Role: RoleDocumentID},
		{Column: Column{Qualifier: mainAlias, Name: layout.CreatedAtColumn}, Role: RoleCreatedAt},
		{Column: Column{Qualifier: mainAlias, Name: layout.UpdatedAtColumn}, Role: RoleUpdatedAt},
	}

	if doc.HasDraftAndPublish() {
		columns = append(columns, Selected{
			Column: Column{Qualifier: mainAlias, Name: layout.PublishedColumn},
			Role:   RolePublishedAt,
		})
	}
	if doc.HasLocalization() {
		columns = append(columns, Selected{
			Column: Column{Qualifier: localizationAlias, Name: layout.LocaleColumn},
			Role:   RoleLocale,
		})
	}

	for _, attr := range doc.FieldIDs() {
		field := doc.Fields[attr]
		qualifier := mainAlias
		if field.Localized {
			qualifier = localizationAlias
		}
		columns = append(columns, Selected{
			Column:    Column{Qualifier: qualifier, Name: attr.Normalized()},
			Role:      RoleField,
			Attribute: attr,
			FieldType: field.Type,
		})
	}

	return columns
}
