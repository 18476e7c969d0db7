package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/auth"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	devices  map[string]*auth.Device
	sessions map[string]*auth.Session
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*auth.User),
		devices:  make(map[string]*auth.Device),
		sessions: make(map[string]*auth.Session),
	}
}

func (m *memStore) FindUserByEmail(email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email], nil
}

func (m *memStore) CreateUser(u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.users[u.Email] = u
	return nil
}

func (m *memStore) FindUserByID(id uint64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindOrCreateDevice(userID uint64, reg auth.DeviceRegistration) (*auth.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reg.Identifier
	if d, ok := m.devices[key]; ok {
		return d, nil
	}
	m.nextID++
	d := &auth.Device{ID: m.nextID, UserID: userID, Identifier: reg.Identifier, Name: reg.Name}
	m.devices[key] = d
	return d, nil
}

func (m *memStore) CreateSession(s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.PublicID] = s
	return nil
}

func (m *memStore) FindSessionByPublicID(publicID string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[publicID], nil
}

func (m *memStore) UpdateSession(s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.PublicID] = s
	return nil
}

func (m *memStore) RevokeSession(publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[publicID]; ok {
		s.Revoked = true
	}
	return nil
}

func newTestService(t *testing.T) (*auth.Service, *memStore) {
	t.Helper()
	store := newMemStore()
	user := &auth.User{ID: 1, Email: "user@example.com"}
	require.NoError(t, user.SetPassword("hunter2pass"))
	store.users[user.Email] = user

	svc := auth.NewService(store, auth.NewTokenIssuer("test-secret"), 30)
	return svc, store
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Login("user@example.com", "hunter2pass", auth.DeviceRegistration{Identifier: "device-1"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.SessionPublicID)
}

func TestLoginFailsWithWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Login("user@example.com", "wrong-password", auth.DeviceRegistration{Identifier: "device-1"}, true)
	assert.Error(t, err)
}

func TestLogoutThenAuthenticateFails(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Login("user@example.com", "hunter2pass", auth.DeviceRegistration{Identifier: "device-1"}, true)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(result.AccessToken))

	_, _, err = svc.Authenticate(result.AccessToken)
	assert.Error(t, err)
}

func TestRefreshExtendsSessionAndIssuesNewToken(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Login("user@example.com", "hunter2pass", auth.DeviceRegistration{Identifier: "device-1"}, true)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(result.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.True(t, refreshed.ExpiresAt.After(time.Now()))
}

func TestAuthorizeRequiresAdminForAdministratorPolicy(t *testing.T) {
	svc, _ := newTestService(t)
	nonAdmin := &auth.User{IsAdmin: false}
	admin := &auth.User{IsAdmin: true}

	assert.Error(t, svc.Authorize(auth.PolicyAdministrator, nonAdmin))
	assert.NoError(t, svc.Authorize(auth.PolicyAdministrator, admin))
}

func TestWWWAuthenticateFormat(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Login("user@example.com", "wrong-password", auth.DeviceRegistration{Identifier: "device-1"}, true)
	require.Error(t, err)

	header := auth.WWWAuthenticate(err)
	assert.Contains(t, header, `Bearer error="invalid_token"`)
}
