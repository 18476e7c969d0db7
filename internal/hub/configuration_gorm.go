package hub

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
)

// configurationRecord is the gorm-tagged row backing a Configuration, kept
// private so callers only ever see the exported domain type, the same
// record/domain split catalog's repositories use.
type configurationRecord struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	Context          string `gorm:"type:varchar(32);not null;uniqueIndex:idx_hub_config_scope"`
	LibrarySectionID *uint  `gorm:"uniqueIndex:idx_hub_config_scope"`
	MetadataType     *string `gorm:"type:varchar(32);uniqueIndex:idx_hub_config_scope"`
	Enabled          string `gorm:"type:text"`
	Disabled         string `gorm:"type:text"`
}

func (configurationRecord) TableName() string { return "hub_configurations" }

// ConfigurationTable returns the model AutoMigrate needs for hub
// configuration storage, following catalog.AllTables' convention.
func ConfigurationTable() []any {
	return []any{&configurationRecord{}}
}

// GormConfigurationStore is the gorm-backed ConfigurationStore used in
// production.
type GormConfigurationStore struct {
	db *gorm.DB
}

func NewGormConfigurationStore(db *gorm.DB) *GormConfigurationStore {
	return &GormConfigurationStore{db: db}
}

func (s *GormConfigurationStore) Get(scope Scope) (*Configuration, error) {
	record, err := s.findRecord(scope)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return recordToConfiguration(record)
}

func (s *GormConfigurationStore) Set(cfg Configuration) error {
	record, err := recordFromConfiguration(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "encoding hub configuration")
	}

	existing, err := s.findRecord(cfg.Scope)
	if err != nil {
		return err
	}
	if existing != nil {
		record.ID = existing.ID
	}
	if err := s.db.Save(record).Error; err != nil {
		return apperrors.Wrap(apperrors.Internal, err, "saving hub configuration")
	}
	return nil
}

func (s *GormConfigurationStore) findRecord(scope Scope) (*configurationRecord, error) {
	q := s.db.Where("context = ?", string(scope.Context))
	if scope.LibrarySectionID != nil {
		q = q.Where("library_section_id = ?", *scope.LibrarySectionID)
	} else {
		q = q.Where("library_section_id IS NULL")
	}
	if scope.MetadataType != nil {
		q = q.Where("metadata_type = ?", string(*scope.MetadataType))
	} else {
		q = q.Where("metadata_type IS NULL")
	}

	var record configurationRecord
	err := q.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading hub configuration")
	}
	return &record, nil
}

func recordFromConfiguration(cfg Configuration) (*configurationRecord, error) {
	enabled, err := json.Marshal(cfg.Enabled)
	if err != nil {
		return nil, err
	}
	disabled, err := json.Marshal(cfg.Disabled)
	if err != nil {
		return nil, err
	}
	var metadataType *string
	if cfg.Scope.MetadataType != nil {
		s := string(*cfg.Scope.MetadataType)
		metadataType = &s
	}
	return &configurationRecord{
		Context:          string(cfg.Scope.Context),
		LibrarySectionID: cfg.Scope.LibrarySectionID,
		MetadataType:     metadataType,
		Enabled:          string(enabled),
		Disabled:         string(disabled),
	}, nil
}

func recordToConfiguration(record *configurationRecord) (*Configuration, error) {
	var enabled, disabled []Type
	if record.Enabled != "" {
		if err := json.Unmarshal([]byte(record.Enabled), &enabled); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, err, "decoding hub configuration")
		}
	}
	if record.Disabled != "" {
		if err := json.Unmarshal([]byte(record.Disabled), &disabled); err != nil {
			return nil, apperrors.Wrap(apperrors.Internal, err, "decoding hub configuration")
		}
	}
	var metadataType *catalog.MetadataType
	if record.MetadataType != nil {
		t := catalog.MetadataType(*record.MetadataType)
		metadataType = &t
	}
	return &Configuration{
		Scope: Scope{
			Context:          Context(record.Context),
			LibrarySectionID: record.LibrarySectionID,
			MetadataType:     metadataType,
		},
		Enabled:  enabled,
		Disabled: disabled,
	}, nil
}
