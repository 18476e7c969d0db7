package hubsource_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hubsource"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(catalog.AllTables()...))
	return db
}

func TestSource_RecentlyAddedOrdersNewestFirst(t *testing.T) {
	db := setupDB(t)
	older := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Old Movie"}
	require.NoError(t, db.Create(older).Error)
	db.Model(older).Update("created_at", time.Now().Add(-time.Hour))

	newer := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "New Movie"}
	require.NoError(t, db.Create(newer).Error)

	src := hubsource.New(db)
	items, err := src.RecentlyAdded(nil, catalog.TypeMovie, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "New Movie", items[0].Title)
}

func TestSource_ByGenreMatchesSerializedList(t *testing.T) {
	db := setupDB(t)
	item := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Dune", Genres: []string{"Science Fiction", "Adventure"}}
	require.NoError(t, db.Create(item).Error)
	other := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Romcom", Genres: []string{"Romance"}}
	require.NoError(t, db.Create(other).Error)

	src := hubsource.New(db)
	items, err := src.ByGenre(nil, "Science Fiction", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Dune", items[0].Title)
}

func TestSource_MoreFromShowExcludesCurrentEpisode(t *testing.T) {
	db := setupDB(t)
	show := &catalog.MetadataItem{Type: catalog.TypeShow, Title: "Show"}
	require.NoError(t, db.Create(show).Error)
	ep1 := &catalog.MetadataItem{Type: catalog.TypeEpisode, Title: "Ep 1"}
	require.NoError(t, db.Create(ep1).Error)
	ep2 := &catalog.MetadataItem{Type: catalog.TypeEpisode, Title: "Ep 2"}
	require.NoError(t, db.Create(ep2).Error)
	require.NoError(t, db.Create(&catalog.ItemRelation{ParentID: show.ID, ChildID: ep1.ID, Edge: catalog.EdgeParentOf}).Error)
	require.NoError(t, db.Create(&catalog.ItemRelation{ParentID: show.ID, ChildID: ep2.ID, Edge: catalog.EdgeParentOf}).Error)

	src := hubsource.New(db)
	items, err := src.MoreFromShow(uint(show.ID), uint(ep1.ID), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ep 2", items[0].Title)
}

func TestSource_ContinueWatchingSkipsWatchedItems(t *testing.T) {
	db := setupDB(t)
	inProgress := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "In Progress"}
	require.NoError(t, db.Create(inProgress).Error)
	finished := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Finished"}
	require.NoError(t, db.Create(finished).Error)

	require.NoError(t, db.Create(&catalog.UserItemData{ItemID: inProgress.ID, UserID: 1, ResumePosition: 60000}).Error)
	require.NoError(t, db.Create(&catalog.UserItemData{ItemID: finished.ID, UserID: 1, Watched: true}).Error)

	src := hubsource.New(db)
	items, err := src.ContinueWatching(1, nil, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "In Progress", items[0].Title)
}

func TestSource_ReadableLibrarySectionsReturnsAllSections(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&catalog.LibrarySection{Name: "Movies", Type: catalog.LibraryMovies}).Error)
	require.NoError(t, db.Create(&catalog.LibrarySection{Name: "TV", Type: catalog.LibraryTVShows}).Error)

	src := hubsource.New(db)
	ids, err := src.ReadableLibrarySections(42)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
