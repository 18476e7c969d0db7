package hub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
)

func setupConfigDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(hub.ConfigurationTable()...))
	return db
}

func TestGormConfigurationStore_GetMissingReturnsNil(t *testing.T) {
	store := hub.NewGormConfigurationStore(setupConfigDB(t))
	cfg, err := store.Get(hub.Scope{Context: hub.ContextHome})
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestGormConfigurationStore_SetThenGetRoundTrips(t *testing.T) {
	store := hub.NewGormConfigurationStore(setupConfigDB(t))
	sectionID := uint(7)
	cfg := hub.Configuration{
		Scope:    hub.Scope{Context: hub.ContextLibraryDiscover, LibrarySectionID: &sectionID},
		Enabled:  []hub.Type{hub.TypeRecentlyAdded, hub.TypeTopRated},
		Disabled: []hub.Type{hub.TypeByGenre},
	}
	require.NoError(t, store.Set(cfg))

	loaded, err := store.Get(hub.Scope{Context: hub.ContextLibraryDiscover, LibrarySectionID: &sectionID})
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg.Enabled, loaded.Enabled)
	assert.Equal(t, cfg.Disabled, loaded.Disabled)

	otherSection := uint(9)
	missing, err := store.Get(hub.Scope{Context: hub.ContextLibraryDiscover, LibrarySectionID: &otherSection})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormConfigurationStore_SetOverwritesExisting(t *testing.T) {
	db := setupConfigDB(t)
	store := hub.NewGormConfigurationStore(db)
	mt := catalog.TypeMovie
	scope := hub.Scope{Context: hub.ContextItemDetail, MetadataType: &mt}

	require.NoError(t, store.Set(hub.Configuration{Scope: scope, Enabled: []hub.Type{hub.TypeCast}}))
	require.NoError(t, store.Set(hub.Configuration{Scope: scope, Enabled: []hub.Type{hub.TypeCrew}}))

	loaded, err := store.Get(scope)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []hub.Type{hub.TypeCrew}, loaded.Enabled)

	var count int64
	db.Table("hub_configurations").Count(&count)
	assert.Equal(t, int64(1), count)
}
