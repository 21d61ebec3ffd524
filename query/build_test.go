package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/strata-cms/strata/schema"
)

const articleYAML = `
id: article
kind: collectionType
info:
  title: Article
  singularName: article
  pluralName: articles
options:
  draftAndPublish: true
  localizations: [en, de]
attributes:
  slug:
    type: uid
    unique: true
    required: true
  title:
    type: text
    localized: true
  rating:
    type: decimal
  authors:
    relation: hasMany
    target: author
    ordering: true
`

const authorYAML = `
id: author
kind: collectionType
info:
  title: Author
  singularName: author
  pluralName: authors
attributes:
  name:
    type: text
    required: true
  active:
    type: boolean
  articles:
    relation: belongsToMany
    target: article
`

func loadRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "article.yaml"), []byte(articleYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "author.yaml"), []byte(authorYAML), 0o644))
	reg, err := schema.Load(dir)
	require.NoError(t, err)
	return reg
}

func getType(t *testing.T, reg *schema.Registry, raw string) *schema.DocumentType {
	t.Helper()
	id, err := schema.NewDocumentTypeID(raw)
	require.NoError(t, err)
	doc, ok := reg.Get(id)
	require.True(t, ok)
	return doc
}

func TestForDocumentLocalized(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")

	stmt := ForDocument("public", article).Build()

	require.Equal(t, `SELECT m."document_id", m."created_at", m."updated_at", m."published_at", l."locale", m."rating", m."slug", l."title"
FROM "public"."article" AS m
LEFT JOIN "public"."article_localization" AS l ON m."document_id" = l."document_id"
ORDER BY m."document_id", l."locale"`, stmt.SQL)
	require.Empty(t, stmt.Args)
}

func TestForDocumentPlain(t *testing.T) {
	reg := loadRegistry(t)
	author := getType(t, reg, "author")

	stmt := ForDocument("public", author).Build()

	require.Equal(t, `SELECT m."document_id", m."created_at", m."updated_at", m."active", m."name"
FROM "public"."author" AS m
ORDER BY m."document_id"`, stmt.SQL)
}

func TestForDocumentSelectListRoles(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")

	stmt := ForDocument("public", article).Build()

	roles := make([]Role, len(stmt.Columns))
	for i, col := range stmt.Columns {
		roles[i] = col.Role
	}
	require.Equal(t, []Role{
		RoleDocumentID, RoleCreatedAt, RoleUpdatedAt, RolePublishedAt,
		RoleLocale, RoleField, RoleField, RoleField,
	}, roles)

	// Field columns carry the declared type so decoding never inspects
	// raw values.
	require.Equal(t, schema.Decimal, stmt.Columns[5].FieldType)
	require.Equal(t, schema.Uid, stmt.Columns[6].FieldType)
	require.Equal(t, schema.Text, stmt.Columns[7].FieldType)
}

func TestByID(t *testing.T) {
	reg := loadRegistry(t)
	author := getType(t, reg, "author")

	stmt := ByID("public", author, 42).Build()

	require.Contains(t, stmt.SQL, `WHERE m."document_id" = $1`)
	require.Equal(t, []any{int64(42)}, stmt.Args)
}

func TestPaginationPlaceholders(t *testing.T) {
	reg := loadRegistry(t)
	author := getType(t, reg, "author")

	stmt := ByID("public", author, 7).Paginate(20, 10).Build()

	// Placeholders are numbered in clause order: conditions first, then
	// LIMIT/OFFSET.
	require.Contains(t, stmt.SQL, `WHERE m."document_id" = $1`)
	require.Contains(t, stmt.SQL, "LIMIT $2 OFFSET $3")
	require.Equal(t, []any{int64(7), int64(10), int64(20)}, stmt.Args)
}

func TestForRelation(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")
	authorsAttr, err := schema.NewAttributeID("authors")
	require.NoError(t, err)
	author := article.Relations[authorsAttr].Target()
	require.NotNil(t, author)

	stmt := ForRelation("public", article, authorsAttr, author).
		OwnerEquals(article, 3).
		Build()

	require.Equal(t, `SELECT m."document_id", m."created_at", m."updated_at", m."active", m."name", r."article_id"
FROM "public"."article_authors_relation" AS r
INNER JOIN "public"."author" AS m ON m."document_id" = r."author_id"
WHERE r."article_id" = $1
ORDER BY r."article_id", m."document_id"`, stmt.SQL)
	require.Equal(t, []any{int64(3)}, stmt.Args)

	last := stmt.Columns[len(stmt.Columns)-1]
	require.Equal(t, RoleOwningID, last.Role)
}

func TestOwnerInBindsOneArrayParameter(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")
	authorsAttr, err := schema.NewAttributeID("authors")
	require.NoError(t, err)
	author := article.Relations[authorsAttr].Target()

	owners := []int64{1, 2, 3, 5, 8}
	stmt := ForRelation("public", article, authorsAttr, author).
		OwnerIn(article, owners).
		Build()

	// All owners ride in a single array parameter, one round trip.
	require.Contains(t, stmt.SQL, `WHERE r."article_id" = ANY($1)`)
	require.Len(t, stmt.Args, 1)
	require.Equal(t, pq.Array(owners), stmt.Args[0])
}

func TestBuildIsDeterministic(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")

	first := ForDocument("public", article).Build()
	for i := 0; i < 10; i++ {
		require.Equal(t, first.SQL, ForDocument("public", article).Build().SQL)
	}
}
