package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexamediaserver/internal/jobs"
)

func setupJobsGormStore(t *testing.T) *jobs.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(jobs.EntryTable()...))
	return jobs.NewGormStore(db)
}

func TestGormStoreUpsertThenFindActiveAndListActive(t *testing.T) {
	store := setupJobsGormStore(t)
	ctx := context.Background()
	section := uint(7)

	entry := &jobs.Entry{
		ID:               "job-1",
		LibrarySectionID: &section,
		JobType:          jobs.TypeLibraryScan,
		Status:           jobs.StatusRunning,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, store.Upsert(ctx, entry))

	active, err := store.FindActive(ctx, &section, jobs.TypeLibraryScan)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "job-1", active.ID)

	none, err := store.FindActive(ctx, &section, jobs.TypeMetadataRefresh)
	require.NoError(t, err)
	assert.Nil(t, none)

	listed, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	entry.Status = jobs.StatusSucceeded
	entry.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Upsert(ctx, entry))

	listed, err = store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	purged, err := store.PurgeTerminalOlderThan(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
