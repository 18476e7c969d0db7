package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/config"
	"nexamediaserver/internal/scan"
)

type alwaysChangedLookup struct{}

func (alwaysChangedLookup) FindUnchanged(path string, size int64, modTime int64) (bool, error) {
	return false, nil
}

func TestRunDiscoversFiltersClassifiesAndPersistsAMovieLibrary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Arrival (2016).mkv"), []byte("fake"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "poster.txt"), []byte("ignored"), 0o644))

	// catalog.Open registers the NATURALSORT collation items.List orders by.
	cfg := &config.Configuration{}
	cfg.Db.Driver = "sqlite"
	cfg.Db.Path = ":memory:"
	db, err := catalog.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(catalog.AllTables()...))

	items := catalog.NewItemRepository(db)
	parts := catalog.NewMediaPartRepository(db)

	registry := agents.NewRegistry(agents.NewFilenameAgent())
	persist := &scan.Persist{
		Items:            items,
		Parts:            parts,
		LibrarySectionID: 1,
		LibraryType:      catalog.LibraryMovies,
	}

	summary, err := scan.Run(context.Background(), scan.RunOptions{
		Roots:       []string{root},
		LibraryType: catalog.LibraryMovies,
		Lookup:      alwaysChangedLookup{},
		Registry:    registry,
		TagPolicy:   agents.TagPolicy{},
		Persist:     persist,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ItemsPersisted, "only the .mkv file should match a known media extension")
	assert.Empty(t, summary.Failures)

	page, err := items.List(context.Background(), catalog.Filter{}, catalog.Order{}, catalog.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Arrival", page.Items[0].Title)
	assert.Equal(t, 2016, page.Items[0].Year)
}
