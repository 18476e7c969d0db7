package jobs

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// entryRecord is the gorm-mapped shape of Entry, kept separate from the
// domain type the same way the auth and catalog packages split their
// gorm records from their exported structs.
type entryRecord struct {
	ID               string `gorm:"primaryKey"`
	LibrarySectionID *uint  `gorm:"index"`
	JobType          string `gorm:"type:varchar(32);index;not null"`
	Status           string `gorm:"type:varchar(16);not null"`
	Progress         float64
	Completed        int
	Total            int
	Error            string
	UpdatedAt        time.Time `gorm:"index"`
	CreatedAt        time.Time
}

func (entryRecord) TableName() string { return "job_notification_entries" }

// EntryTable lists the gorm model GormStore needs migrated.
func EntryTable() []any { return []any{&entryRecord{}} }

// GormStore is the default, persistent Store, backing the Scheduler the way
// auth.GormStore backs the auth Service.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Upsert(ctx context.Context, entry *Entry) error {
	rec := recordFromEntry(*entry)
	err := s.db.WithContext(ctx).Save(&rec).Error
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "upserting job notification entry")
	}
	return nil
}

func (s *GormStore) FindActive(ctx context.Context, section *uint, jobType Type) (*Entry, error) {
	q := s.db.WithContext(ctx).Where("job_type = ?", string(jobType)).
		Where("status IN ?", []string{string(StatusPending), string(StatusRunning)})
	if section != nil {
		q = q.Where("library_section_id = ?", *section)
	} else {
		q = q.Where("library_section_id IS NULL")
	}
	var rec entryRecord
	err := q.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "finding active job notification entry")
	}
	entry := entryFromRecord(rec)
	return &entry, nil
}

func (s *GormStore) ListActive(ctx context.Context) ([]Entry, error) {
	var recs []entryRecord
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{string(StatusPending), string(StatusRunning)}).
		Order("updated_at DESC").Find(&recs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "listing active job notification entries")
	}
	out := make([]Entry, len(recs))
	for i, rec := range recs {
		out[i] = entryFromRecord(rec)
	}
	return out, nil
}

func (s *GormStore) PurgeTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	terminal := []string{string(StatusSucceeded), string(StatusFailed), string(StatusCancelled)}
	tx := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", terminal, cutoff).
		Delete(&entryRecord{})
	if tx.Error != nil {
		return 0, apperrors.Wrap(apperrors.Internal, tx.Error, "purging terminal job notification entries")
	}
	return tx.RowsAffected, nil
}

func recordFromEntry(e Entry) entryRecord {
	return entryRecord{
		ID:               e.ID,
		LibrarySectionID: e.LibrarySectionID,
		JobType:          string(e.JobType),
		Status:           string(e.Status),
		Progress:         e.Progress,
		Completed:        e.Completed,
		Total:            e.Total,
		Error:            e.Error,
		UpdatedAt:        e.UpdatedAt,
		CreatedAt:        e.CreatedAt,
	}
}

func entryFromRecord(rec entryRecord) Entry {
	return Entry{
		ID:               rec.ID,
		LibrarySectionID: rec.LibrarySectionID,
		JobType:          Type(rec.JobType),
		Status:           Status(rec.Status),
		Progress:         rec.Progress,
		Completed:        rec.Completed,
		Total:            rec.Total,
		Error:            rec.Error,
		UpdatedAt:        rec.UpdatedAt,
		CreatedAt:        rec.CreatedAt,
	}
}
