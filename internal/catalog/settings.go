package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// SettingsRepository persists the flat (key, value) ServerSetting rows
// backing updateServerSettings, per §3.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var row ServerSetting
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.Internal, err, "loading server setting")
	}
	return row.Value, true, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	var existing ServerSetting
	err := r.db.WithContext(ctx).First(&existing, "key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(&ServerSetting{Key: key, Value: value}).Error; err != nil {
			return apperrors.Wrap(apperrors.Internal, err, "creating server setting")
		}
		return nil
	case err != nil:
		return apperrors.Wrap(apperrors.Internal, err, "loading server setting")
	default:
		existing.Value = value
		if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.Internal, err, "updating server setting")
		}
		return nil
	}
}

func (r *settingsRepository) All(ctx context.Context) (map[string]string, error) {
	var rows []ServerSetting
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "listing server settings")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}
