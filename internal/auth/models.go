// Package auth implements the session and device-scoped authentication
// core from §4.F: credential verification, device registration, session
// lifecycle, and JWT access/refresh token issuance.
//
// Grounded on the teacher's models/auth.go (Session, JWTClaim, bcrypt
// password hooks) and services/auth JWT issuance pattern, generalized with
// a Device entity the teacher's Session lacked.
package auth

import "time"

// User is the minimal account record auth operates over; the full user
// profile (display name, preferences) belongs to a different bounded
// context this spec does not cover.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	IsAdmin      bool
}

func (u *User) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return checkPassword(u.PasswordHash, password)
}

// Device is (user, client-identifier) -> friendly-name, platform, optional
// version, per §3.
type Device struct {
	ID         uint64
	UserID     uint64
	Identifier string
	Name       string
	Platform   string
	Version    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Session is the §3 Session entity: a public GUID bound to a user and
// device, with an expiry and revocation flag.
type Session struct {
	ID         uint64
	PublicID   string
	UserID     uint64
	DeviceID   uint64
	IssuedAt   time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time
	Revoked    bool
}

func (s Session) Valid(at time.Time) bool {
	return !s.Revoked && at.Before(s.ExpiresAt)
}

// DeviceRegistration is the client-supplied device info on Login.
type DeviceRegistration struct {
	Identifier string
	Name       string
	Platform   string
	Version    string
}

// Store is the persistence surface auth depends on; GormStore
// (store_gorm.go) satisfies it in production.
type Store interface {
	CreateUser(u *User) error
	FindUserByEmail(email string) (*User, error)
	FindUserByID(id uint64) (*User, error)
	FindOrCreateDevice(userID uint64, reg DeviceRegistration) (*Device, error)
	CreateSession(s *Session) error
	FindSessionByPublicID(publicID string) (*Session, error)
	UpdateSession(s *Session) error
	RevokeSession(publicID string) error
}
