package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/catalog"
)

func TestSettingsRepositorySetThenGetAndAll(t *testing.T) {
	db := setupTestDB(t)
	repo := catalog.NewSettingsRepository(db)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "server.name")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "server.name", "Living Room"))
	value, ok, err := repo.Get(ctx, "server.name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Living Room", value)

	require.NoError(t, repo.Set(ctx, "server.name", "Den"))
	value, ok, err = repo.Get(ctx, "server.name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Den", value)

	require.NoError(t, repo.Set(ctx, "server.tagline", "watch stuff"))
	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"server.name": "Den", "server.tagline": "watch stuff"}, all)
}
