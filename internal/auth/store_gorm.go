package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// userRecord, deviceRecord, and sessionRecord are the gorm-mapped shapes of
// User, Device, and Session. Kept distinct from the domain types so this
// package's exported structs stay free of gorm tags, the same separation
// the catalog package draws between its domain models and the repository
// layer that persists them.
type userRecord struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool
}

func (userRecord) TableName() string { return "auth_users" }

type deviceRecord struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID     uint64 `gorm:"uniqueIndex:idx_device_user_identifier;not null"`
	Identifier string `gorm:"uniqueIndex:idx_device_user_identifier;not null"`
	Name       string
	Platform   string
	Version    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (deviceRecord) TableName() string { return "auth_devices" }

type sessionRecord struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	PublicID   string `gorm:"uniqueIndex;not null"`
	UserID     uint64 `gorm:"index;not null"`
	DeviceID   uint64 `gorm:"index;not null"`
	IssuedAt   time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time
	Revoked    bool
}

func (sessionRecord) TableName() string { return "auth_sessions" }

// AuthTables lists the gorm models GormStore needs migrated, for callers
// assembling the full AutoMigrate list alongside the catalog package's
// AllTables.
func AuthTables() []any {
	return []any{&userRecord{}, &deviceRecord{}, &sessionRecord{}}
}

// GormStore is the default Store, backing the Service the way the catalog
// package's gorm repositories back the scan and hub packages.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(u *User) error {
	rec := userRecord{Email: u.Email, PasswordHash: u.PasswordHash, IsAdmin: u.IsAdmin}
	if err := s.db.Create(&rec).Error; err != nil {
		return apperrors.Wrap(apperrors.Conflict, err, "creating user")
	}
	u.ID = rec.ID
	return nil
}

func (s *GormStore) FindUserByEmail(email string) (*User, error) {
	var rec userRecord
	err := s.db.Where("email = ?", email).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading user by email")
	}
	return userFromRecord(rec), nil
}

func (s *GormStore) FindUserByID(id uint64) (*User, error) {
	var rec userRecord
	err := s.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading user by id")
	}
	return userFromRecord(rec), nil
}

func (s *GormStore) FindOrCreateDevice(userID uint64, reg DeviceRegistration) (*Device, error) {
	var rec deviceRecord
	err := s.db.Where("user_id = ? AND identifier = ?", userID, reg.Identifier).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = deviceRecord{
			UserID:     userID,
			Identifier: reg.Identifier,
			Name:       reg.Name,
			Platform:   reg.Platform,
			Version:    reg.Version,
		}
		if err := s.db.Create(&rec).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, err, "creating device")
		}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading device")
	default:
		rec.Name = reg.Name
		rec.Platform = reg.Platform
		rec.Version = reg.Version
		if err := s.db.Save(&rec).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, err, "updating device")
		}
	}
	return deviceFromRecord(rec), nil
}

func (s *GormStore) CreateSession(sess *Session) error {
	rec := sessionRecord{
		PublicID:   sess.PublicID,
		UserID:     sess.UserID,
		DeviceID:   sess.DeviceID,
		IssuedAt:   sess.IssuedAt,
		ExpiresAt:  sess.ExpiresAt,
		LastUsedAt: sess.LastUsedAt,
		Revoked:    sess.Revoked,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "creating session")
	}
	sess.ID = rec.ID
	return nil
}

func (s *GormStore) FindSessionByPublicID(publicID string) (*Session, error) {
	var rec sessionRecord
	err := s.db.Where("public_id = ?", publicID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading session")
	}
	return sessionFromRecord(rec), nil
}

func (s *GormStore) UpdateSession(sess *Session) error {
	rec := sessionRecord{
		ID:         sess.ID,
		PublicID:   sess.PublicID,
		UserID:     sess.UserID,
		DeviceID:   sess.DeviceID,
		IssuedAt:   sess.IssuedAt,
		ExpiresAt:  sess.ExpiresAt,
		LastUsedAt: sess.LastUsedAt,
		Revoked:    sess.Revoked,
	}
	if err := s.db.Save(&rec).Error; err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "updating session")
	}
	return nil
}

func (s *GormStore) RevokeSession(publicID string) error {
	err := s.db.Model(&sessionRecord{}).Where("public_id = ?", publicID).Update("revoked", true).Error
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "revoking session")
	}
	return nil
}

func userFromRecord(rec userRecord) *User {
	return &User{ID: rec.ID, Email: rec.Email, PasswordHash: rec.PasswordHash, IsAdmin: rec.IsAdmin}
}

func deviceFromRecord(rec deviceRecord) *Device {
	return &Device{
		ID:         rec.ID,
		UserID:     rec.UserID,
		Identifier: rec.Identifier,
		Name:       rec.Name,
		Platform:   rec.Platform,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func sessionFromRecord(rec sessionRecord) *Session {
	return &Session{
		ID:         rec.ID,
		PublicID:   rec.PublicID,
		UserID:     rec.UserID,
		DeviceID:   rec.DeviceID,
		IssuedAt:   rec.IssuedAt,
		ExpiresAt:  rec.ExpiresAt,
		LastUsedAt: rec.LastUsedAt,
		Revoked:    rec.Revoked,
	}
}
