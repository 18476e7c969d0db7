package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/catalog"
)

func TestRelationRepository_ChildrenOfOrdersBySortOrder(t *testing.T) {
	db := setupTestDB(t)
	items := catalog.NewItemRepository(db)
	relations := catalog.NewRelationRepository(db)
	ctx := context.Background()

	show := &catalog.MetadataItem{Type: catalog.TypeShow, Title: "Severance"}
	require.NoError(t, items.Create(ctx, show))

	ep2 := &catalog.MetadataItem{Type: catalog.TypeEpisode, Title: "Episode 2"}
	ep1 := &catalog.MetadataItem{Type: catalog.TypeEpisode, Title: "Episode 1"}
	require.NoError(t, items.Create(ctx, ep2))
	require.NoError(t, items.Create(ctx, ep1))

	require.NoError(t, relations.Create(ctx, &catalog.ItemRelation{ParentID: show.ID, ChildID: ep2.ID, Edge: catalog.EdgeParentOf, SortOrder: 2}))
	require.NoError(t, relations.Create(ctx, &catalog.ItemRelation{ParentID: show.ID, ChildID: ep1.ID, Edge: catalog.EdgeParentOf, SortOrder: 1}))

	children, err := relations.ChildrenOf(ctx, show.ID, catalog.EdgeParentOf)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Episode 1", children[0].Title)
	assert.Equal(t, "Episode 2", children[1].Title)

	none, err := relations.ChildrenOf(ctx, ep1.ID, catalog.EdgeParentOf)
	require.NoError(t, err)
	assert.Empty(t, none)
}
