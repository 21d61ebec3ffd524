package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strata-cms/strata/schema"
)

func TestFetchRelationsValidatesBeforeSQL(t *testing.T) {
	reg := loadRegistry(t)
	article := getType(t, reg, "article")
	author := getType(t, reg, "author")

	// A nil database proves validation failures return before any SQL.
	repo := New(nil, reg)

	t.Run("unknown attribute", func(t *testing.T) {
		attr, err := schema.NewAttributeID("tags")
		require.NoError(t, err)

		_, err = repo.FetchRelationsForMany(context.Background(), article, []int64{1}, []schema.AttributeID{attr})
		require.ErrorIs(t, err, ErrUnknownRelation)
	})

	t.Run("inverse relation", func(t *testing.T) {
		attr, err := schema.NewAttributeID("articles")
		require.NoError(t, err)

		_, err = repo.FetchRelationsForMany(context.Background(), author, []int64{1}, []schema.AttributeID{attr})
		require.ErrorIs(t, err, ErrNotOwningRelation)
	})

	t.Run("one owner delegates", func(t *testing.T) {
		attr, err := schema.NewAttributeID("tags")
		require.NoError(t, err)

		_, err = repo.FetchRelationsForOne(context.Background(), article, 1, []schema.AttributeID{attr})
		require.ErrorIs(t, err, ErrUnknownRelation)
	})
}

func TestTypeLookup(t *testing.T) {
	reg := loadRegistry(t)
	repo := New(nil, reg)

	id, err := schema.NewDocumentTypeID("article")
	require.NoError(t, err)
	doc, ok := repo.Type(id)
	require.True(t, ok)
	require.Equal(t, id, doc.ID)

	missing, err := schema.NewDocumentTypeID("missing")
	require.NoError(t, err)
	_, ok = repo.Type(missing)
	require.False(t, ok)
}
