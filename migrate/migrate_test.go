package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-cms/strata/layout"
	"github.com/strata-cms/strata/schema"
)

func desiredTables() []layout.Table {
	return []layout.Table{
		{Name: "article", Columns: []layout.Column{{Name: "document_id", Type: layout.Serial, PrimaryKey: true}}},
		{Name: "author", Columns: []layout.Column{{Name: "document_id", Type: layout.Serial, PrimaryKey: true}}},
		{Name: "article_authors_relation", Columns: []layout.Column{{Name: "relation_id", Type: layout.Serial, PrimaryKey: true}}},
	}
}

func TestDiffCreatesMissingTablesOnly(t *testing.T) {
	scripts := Diff("public", desiredTables(), map[string]bool{"article": true})

	require.Len(t, scripts, 2)
	require.Equal(t, "author", scripts[0].Table)
	require.Equal(t, "article_authors_relation", scripts[1].Table)
}

func TestDiffPreservesDependencyOrder(t *testing.T) {
	scripts := Diff("public", desiredTables(), map[string]bool{})

	names := make([]string, len(scripts))
	for i, script := range scripts {
		names[i] = script.Table
	}
	require.Equal(t, []string{"article", "author", "article_authors_relation"}, names)
}

func TestDiffIsIdempotent(t *testing.T) {
	existing := map[string]bool{
		"article":                  true,
		"author":                   true,
		"article_authors_relation": true,
	}

	scripts := Diff("public", desiredTables(), existing)
	require.Empty(t, scripts)
}

func TestPlanningAgainstEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "article.yaml"), []byte(`
kind: collection
info:
  title: Article
  singularName: article
  pluralName: articles
attributes:
  title:
    type: text
    required: true
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "author.yaml"), []byte(`
kind: collection
info:
  title: Author
  singularName: author
  pluralName: authors
attributes:
  articles:
    relation: hasMany
    target: article
`), 0o644))

	reg, err := schema.Load(dir)
	require.NoError(t, err)

	desired, err := layout.FromRegistry(reg)
	require.NoError(t, err)

	scripts := Diff("public", desired, map[string]bool{})
	require.Len(t, scripts, 3)
	require.Equal(t, "article", scripts[0].Table)
	require.Equal(t, "author", scripts[1].Table)
	require.Equal(t, "author_articles_relation", scripts[2].Table)

	// A second run against the now-complete table set plans nothing.
	applied := map[string]bool{}
	for _, script := range scripts {
		applied[script.Table] = true
	}
	require.Empty(t, Diff("public", desired, applied))
}

func TestDiffIgnoresExtraTables(t *testing.T) {
	// Tables present in the database but absent from the layout are left
	// alone; reconciliation never drops or alters.
	existing := map[string]bool{
		"article":                  true,
		"author":                   true,
		"article_authors_relation": true,
		"legacy_users":             true,
	}

	scripts := Diff("public", desiredTables(), existing)
	require.Empty(t, scripts)
}
