package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/config"
)

// setupTestDB opens an in-memory sqlite database through catalog.Open, so
// the NATURALSORT collation that List orders by is registered.
func setupTestDB(t *testing.T) *gorm.DB {
	cfg := &config.Configuration{}
	cfg.Db.Driver = "sqlite"
	cfg.Db.Path = ":memory:"
	db, err := catalog.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(catalog.AllTables()...))
	return db
}

func TestItemRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewItemRepository(db)
	ctx := context.Background()

	item := &catalog.MetadataItem{
		Type:     catalog.TypeMovie,
		Title:    "The Matrix",
		Language: "en",
	}
	require.NoError(t, repo.Create(ctx, item))
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Matrix", item.SortTitle)

	fetched, err := repo.GetByUUID(ctx, item.UUID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, fetched.Title)
}

func TestItemRepository_UpdateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewItemRepository(db)
	ctx := context.Background()

	item := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Arrival"}
	require.NoError(t, repo.Create(ctx, item))

	patch := func(m *catalog.MetadataItem) error {
		m.Summary = "A linguist deciphers an alien language."
		return nil
	}

	first, err := repo.Update(ctx, item.ID, patch)
	require.NoError(t, err)

	second, err := repo.Update(ctx, item.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
}

func TestItemRepository_SoftDeleteFiltersDefaultQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewItemRepository(db)
	ctx := context.Background()

	item := &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Gone"}
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.SoftDelete(ctx, item.ID))

	_, err := repo.GetByID(ctx, item.ID)
	assert.Error(t, err, "soft-deleted rows must not surface from default queries")
}

func TestItemRepository_ListNaturalSortOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewItemRepository(db)
	ctx := context.Background()

	section := &catalog.LibrarySection{Name: "Shows", Type: catalog.LibraryTVShows}
	require.NoError(t, db.Create(section).Error)

	titles := []string{"Episode 10", "Episode 2", "Episode 1"}
	for _, title := range titles {
		require.NoError(t, repo.Create(ctx, &catalog.MetadataItem{
			LibrarySectionID: section.ID,
			Type:             catalog.TypeEpisode,
			Title:            title,
		}))
	}

	result, err := repo.List(ctx, catalog.Filter{LibrarySectionID: section.ID}, catalog.Order{Field: "sortTitle"}, catalog.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, []string{"Episode 1", "Episode 2", "Episode 10"},
		[]string{result.Items[0].Title, result.Items[1].Title, result.Items[2].Title})
}

func TestLibrarySectionRepository_RejectsOverlappingRoots(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewLibrarySectionRepository(db)
	ctx := context.Background()

	root := t.TempDir()
	_, err := repo.Create(ctx, "Movies", catalog.LibraryMovies, []string{root})
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Movies 2", catalog.LibraryMovies, []string{root})
	assert.Error(t, err)
}

func TestLibrarySectionRepository_RemoveCascades(t *testing.T) {
	db := setupTestDB(t)
	sectionRepo := catalog.NewLibrarySectionRepository(db)
	itemRepo := catalog.NewItemRepository(db)
	ctx := context.Background()

	root := t.TempDir()
	section, err := sectionRepo.Create(ctx, "Movies", catalog.LibraryMovies, []string{root})
	require.NoError(t, err)

	item := &catalog.MetadataItem{LibrarySectionID: section.ID, Type: catalog.TypeMovie, Title: "Heat"}
	require.NoError(t, itemRepo.Create(ctx, item))

	require.NoError(t, sectionRepo.Remove(ctx, section.ID))

	_, err = itemRepo.GetByID(ctx, item.ID)
	assert.Error(t, err, "removing a library section must cascade-delete its items")
}

func TestMediaPartRepository_FindUnchangedFastPath(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewMediaPartRepository(db)
	ctx := context.Background()

	mtime := time.Now().Truncate(time.Second)
	part := &catalog.MediaPart{ItemID: 1, Path: "/movies/heat.mkv", Size: 1024, ModTime: mtime}
	require.NoError(t, repo.Upsert(ctx, part))

	found, ok, err := repo.FindUnchanged(ctx, "/movies/heat.mkv", 1024, mtime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, part.ID, found.ID)

	_, ok, err = repo.FindUnchanged(ctx, "/movies/heat.mkv", 2048, mtime)
	require.NoError(t, err)
	assert.False(t, ok, "a changed size must miss the fast path")
}
