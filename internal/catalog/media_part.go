package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// MediaPartRepository manages the concrete on-disk files backing items.
type MediaPartRepository interface {
	// FindUnchanged reports whether a part with this path+size+mtime already
	// exists, used by the scan Filter stage's fast path (§4.B step 2).
	FindUnchanged(ctx context.Context, path string, size int64, modTime time.Time) (*MediaPart, bool, error)
	Upsert(ctx context.Context, part *MediaPart) error
	DeleteMissing(ctx context.Context, itemID uint64, survivingPaths []string) error
	ListByItem(ctx context.Context, itemID uint64) ([]*MediaPart, error)
	GetByID(ctx context.Context, id uint64) (*MediaPart, error)
}

type mediaPartRepository struct {
	db *gorm.DB
}

func NewMediaPartRepository(db *gorm.DB) MediaPartRepository {
	return &mediaPartRepository{db: db}
}

func (r *mediaPartRepository) FindUnchanged(ctx context.Context, path string, size int64, modTime time.Time) (*MediaPart, bool, error) {
	var part MediaPart
	err := r.db.WithContext(ctx).
		Where("path = ? AND size = ? AND mod_time = ?", path, size, modTime).
		First(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.Internal, err, "checking media part")
	}
	return &part, true, nil
}

// Upsert inserts or updates a part keyed by its globally-unique path (§3).
func (r *mediaPartRepository) Upsert(ctx context.Context, part *MediaPart) error {
	var existing MediaPart
	err := r.db.WithContext(ctx).Where("path = ?", part.Path).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(part).Error; err != nil {
			return translateWriteErr(err)
		}
		return nil
	case err != nil:
		return apperrors.Wrap(apperrors.Internal, err, "loading existing media part")
	default:
		part.ID = existing.ID
		if err := r.db.WithContext(ctx).Save(part).Error; err != nil {
			return translateWriteErr(err)
		}
		return nil
	}
}

// DeleteMissing soft-deletes parts of itemID whose path is no longer among
// survivingPaths. It does not soft-delete the owning item, and the scan's
// persist stage does not either: an item whose last part is gone stays live.
func (r *mediaPartRepository) DeleteMissing(ctx context.Context, itemID uint64, survivingPaths []string) error {
	q := r.db.WithContext(ctx).Where("item_id = ?", itemID)
	if len(survivingPaths) > 0 {
		q = q.Where("path NOT IN ?", survivingPaths)
	}
	if err := q.Delete(&MediaPart{}).Error; err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "deleting stale media parts")
	}
	return nil
}

func (r *mediaPartRepository) ListByItem(ctx context.Context, itemID uint64) ([]*MediaPart, error) {
	var parts []*MediaPart
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Find(&parts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "listing media parts")
	}
	return parts, nil
}

// GetByID loads a single part directly, used by the streaming handlers that
// address a playable file by its own id rather than its owning item.
func (r *mediaPartRepository) GetByID(ctx context.Context, id uint64) (*MediaPart, error) {
	var part MediaPart
	err := r.db.WithContext(ctx).First(&part, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.NotFound, "media part not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading media part")
	}
	return &part, nil
}
