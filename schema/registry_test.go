package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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
  articles:
    relation: belongsToMany
    target: article
`

func writeSchemaDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadLinksRelations(t *testing.T) {
	// article.yaml sorts before author.yaml, so the article's relation
	// target is a forward reference resolved only by the second pass.
	dir := writeSchemaDir(t, map[string]string{
		"article.yaml": articleYAML,
		"author.yaml":  authorYAML,
	})

	reg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	articleID, err := NewDocumentTypeID("article")
	require.NoError(t, err)
	article, ok := reg.Get(articleID)
	require.True(t, ok)
	require.Equal(t, Collection, article.Kind)
	require.True(t, article.HasDraftAndPublish())
	require.True(t, article.HasLocalization())
	require.Len(t, article.Fields, 2)
	require.Len(t, article.Relations, 1)

	authorsAttr, err := NewAttributeID("authors")
	require.NoError(t, err)
	rel := article.Relations[authorsAttr]
	require.Equal(t, HasMany, rel.Type)
	require.True(t, rel.Ordering)
	require.NotNil(t, rel.Target())
	require.Equal(t, "author", rel.Target().ID.String())

	authorID, err := NewDocumentTypeID("author")
	require.NoError(t, err)
	author, ok := reg.Get(authorID)
	require.True(t, ok)
	articlesAttr, err := NewAttributeID("articles")
	require.NoError(t, err)
	require.Same(t, article, author.Relations[articlesAttr].Target())
}

func TestLoadRejectsDanglingTarget(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{"article.yaml": articleYAML})

	_, err := Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown document type")
}

func TestLoadRejectsDuplicateID(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"author.yaml":  authorYAML,
		"author2.yaml": authorYAML,
	})

	_, err := Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate document type id")
}

func TestLoadDerivesIDFromFileName(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"tag.yaml": `
kind: collectionType
info:
  title: Tag
  singularName: tag
  pluralName: tags
attributes:
  label:
    type: text
`,
	})

	reg, err := Load(dir)
	require.NoError(t, err)

	tagID, err := NewDocumentTypeID("tag")
	require.NoError(t, err)
	_, ok := reg.Get(tagID)
	require.True(t, ok)
}

func TestLoadReadsJSON(t *testing.T) {
	// yaml.v3 parses JSON as a YAML subset.
	dir := writeSchemaDir(t, map[string]string{
		"settings.json": `{
  "kind": "singleType",
  "info": {"title": "Settings", "singularName": "setting", "pluralName": "settings"},
  "attributes": {"site_name": {"type": "text", "required": true}}
}`,
	})

	reg, err := Load(dir)
	require.NoError(t, err)

	id, err := NewDocumentTypeID("settings")
	require.NoError(t, err)
	settings, ok := reg.Get(id)
	require.True(t, ok)
	require.Equal(t, SingleType, settings.Kind)
}

func TestLoadSkipsUnrelatedFiles(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"author.yaml": authorYAML,
		"notes.txt":   "not a schema",
	})
	// author's relation target is dangling without article; drop it.
	require.NoError(t, os.Remove(filepath.Join(dir, "author.yaml")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tag.yml"), []byte(`
kind: collection
info:
  title: Tag
  singularName: tag
  pluralName: tags
attributes:
  label:
    type: text
`), 0o644))

	reg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())
}

func TestLoadRejectsMalformedAttribute(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"broken.yaml": `
kind: collection
info:
  title: Broken
  singularName: broken
  pluralName: brokens
attributes:
  data:
    type: blob
`,
	})

	_, err := Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field type")
}

func TestLoadRejectsInvalidLocale(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"page.yaml": `
kind: collection
info:
  title: Page
  singularName: page
  pluralName: pages
options:
  localizations: [english]
attributes:
  title:
    type: text
`,
	})

	_, err := Load(dir)
	require.Error(t, err)
}

func TestFieldIDsSorted(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"article.yaml": articleYAML,
		"author.yaml":  authorYAML,
	})
	reg, err := Load(dir)
	require.NoError(t, err)

	articleID, err := NewDocumentTypeID("article")
	require.NoError(t, err)
	article, _ := reg.Get(articleID)

	ids := article.FieldIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	require.Equal(t, []string{"slug", "title"}, names)
}

func TestAllSorted(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"article.yaml": articleYAML,
		"author.yaml":  authorYAML,
	})
	reg, err := Load(dir)
	require.NoError(t, err)

	sorted := reg.AllSorted()
	require.Len(t, sorted, 2)
	require.Equal(t, "article", sorted[0].ID.String())
	require.Equal(t, "author", sorted[1].ID.String())
}

func TestNamingHelpers(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{
		"blog-post.yaml": `
kind: collection
info:
  title: Blog Post
  singularName: blog-post
  pluralName: blog-posts
options:
  localizations: [en]
attributes:
  title:
    type: text
  authors:
    relation: hasMany
    target: author
`,
		"author.yaml": authorYAML,
	})

	_, err := Load(dir)
	// author's inverse targets "article", which this fixture does not
	// declare; naming helpers do not need a linked registry anyway.
	require.Error(t, err)

	post, err := loadFile(filepath.Join(dir, "blog-post.yaml"))
	require.NoError(t, err)
	require.Equal(t, "blog_post", post.MainTableName())
	require.Equal(t, "blog_post_localization", post.LocalizationTableName())

	authorsAttr, err := NewAttributeID("authors")
	require.NoError(t, err)
	require.Equal(t, "blog_post_authors_relation", post.RelationTableName(authorsAttr))
	require.Equal(t, "blog_post_id", post.RelationColumnName())
}
