package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nexamediaserver/internal/auth"
)

func setupGormStore(t *testing.T) *auth.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(auth.AuthTables()...))
	return auth.NewGormStore(db)
}

func TestGormStoreCreateUserThenFindByEmailAndID(t *testing.T) {
	store := setupGormStore(t)

	user := &auth.User{Email: "a@example.com"}
	require.NoError(t, user.SetPassword("hunter2"))
	require.NoError(t, store.CreateUser(user))
	assert.NotZero(t, user.ID)

	byEmail, err := store.FindUserByEmail("a@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.True(t, byEmail.CheckPassword("hunter2"))

	byID, err := store.FindUserByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "a@example.com", byID.Email)

	missing, err := store.FindUserByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormStoreDeviceUpsertAndSessionLifecycle(t *testing.T) {
	store := setupGormStore(t)

	device, err := store.FindOrCreateDevice(1, auth.DeviceRegistration{Identifier: "dev-1", Name: "Living Room TV"})
	require.NoError(t, err)
	assert.Equal(t, "Living Room TV", device.Name)

	again, err := store.FindOrCreateDevice(1, auth.DeviceRegistration{Identifier: "dev-1", Name: "Renamed TV"})
	require.NoError(t, err)
	assert.Equal(t, device.ID, again.ID)
	assert.Equal(t, "Renamed TV", again.Name)

	sess := &auth.Session{PublicID: "pub-1", UserID: 1, DeviceID: device.ID}
	require.NoError(t, store.CreateSession(sess))
	assert.NotZero(t, sess.ID)

	found, err := store.FindSessionByPublicID("pub-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.Revoked)

	require.NoError(t, store.RevokeSession("pub-1"))
	revoked, err := store.FindSessionByPublicID("pub-1")
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)
}
