package scan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/scan"
)

func setupPersistDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(catalog.AllTables()...))
	return db
}

type countingDownstream struct {
	trickplay int
	images    int
}

func (d *countingDownstream) EnqueueTrickplay(ctx context.Context, librarySectionID uint, itemID uint64) error {
	d.trickplay++
	return nil
}

func (d *countingDownstream) EnqueueImageGeneration(ctx context.Context, librarySectionID uint, itemID uint64) error {
	d.images++
	return nil
}

func TestPersistWritesItemAndMediaPartsAndEnqueuesDownstream(t *testing.T) {
	db := setupPersistDB(t)
	items := catalog.NewItemRepository(db)
	parts := catalog.NewMediaPartRepository(db)
	downstream := &countingDownstream{}

	p := &scan.Persist{
		Items:            items,
		Parts:            parts,
		LibrarySectionID: 1,
		LibraryType:      catalog.LibraryMovies,
		Downstream:       downstream,
	}

	in := make(chan scan.Normalized, 1)
	in <- scan.Normalized{
		Item:  &catalog.MetadataItem{Type: catalog.TypeMovie, Title: "Arrival"},
		Paths: []string{"/movies/Arrival.mkv"},
	}
	close(in)

	out, err := p.Run(context.Background(), in, scan.NewProgress(nil))
	require.NoError(t, err)

	outcome := <-out
	require.NoError(t, outcome.Err)
	assert.NotZero(t, outcome.ItemID)
	assert.Equal(t, 1, downstream.trickplay, "a movie should enqueue trickplay generation")
	assert.Equal(t, 1, downstream.images)

	fetched, err := items.GetByID(context.Background(), outcome.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", fetched.Title)

	mediaParts, err := parts.ListByItem(context.Background(), outcome.ItemID)
	require.NoError(t, err)
	require.Len(t, mediaParts, 1)
	assert.Equal(t, "/movies/Arrival.mkv", mediaParts[0].Path)
}

func TestPersistSkipsTrickplayForNonVideoLibraries(t *testing.T) {
	db := setupPersistDB(t)
	items := catalog.NewItemRepository(db)
	parts := catalog.NewMediaPartRepository(db)
	downstream := &countingDownstream{}

	p := &scan.Persist{
		Items:            items,
		Parts:            parts,
		LibrarySectionID: 2,
		LibraryType:      catalog.LibraryMusic,
		Downstream:       downstream,
	}

	in := make(chan scan.Normalized, 1)
	in <- scan.Normalized{
		Item:  &catalog.MetadataItem{Type: catalog.TypeTrack, Title: "Track One"},
		Paths: []string{"/music/track1.flac"},
	}
	close(in)

	out, err := p.Run(context.Background(), in, scan.NewProgress(nil))
	require.NoError(t, err)

	outcome := <-out
	require.NoError(t, outcome.Err)
	assert.Zero(t, downstream.trickplay)
	assert.Equal(t, 1, downstream.images)
}
