package catalog

import (
	"context"
	"errors"
	"os"
	"strings"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// LibrarySectionRepository manages LibrarySection and its SectionLocation
// children, enforcing the no-overlapping-roots invariant from §3 at
// creation time (§9 open question: not re-enforced on later mount changes).
type LibrarySectionRepository interface {
	Create(ctx context.Context, name string, libType LibraryType, roots []string) (*LibrarySection, error)
	GetByID(ctx context.Context, id uint64) (*LibrarySection, error)
	GetByUUID(ctx context.Context, id string) (*LibrarySection, error)
	List(ctx context.Context) ([]*LibrarySection, error)
	// Remove cascade-deletes every item attributed to the section (§3 lifecycle).
	Remove(ctx context.Context, id uint64) error
}

type librarySectionRepository struct {
	db *gorm.DB
}

func NewLibrarySectionRepository(db *gorm.DB) LibrarySectionRepository {
	return &librarySectionRepository{db: db}
}

// Create validates that every root is an existing, readable directory and
// that no root overlaps a root already claimed by another section, then
// persists the section and its locations in one transaction.
func (r *librarySectionRepository) Create(ctx context.Context, name string, libType LibraryType, roots []string) (*LibrarySection, error) {
	if len(roots) == 0 {
		return nil, apperrors.New(apperrors.InvalidArgument, "a library section needs at least one root path").WithField("locations")
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, apperrors.Newf(apperrors.InvalidArgument, "root %q is not an existing, readable directory", root).WithField("locations")
		}
	}

	var existing []SectionLocation
	if err := r.db.WithContext(ctx).Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading existing section locations")
	}
	for _, root := range roots {
		for _, e := range existing {
			if overlaps(root, e.Path) {
				return nil, apperrors.Newf(apperrors.Conflict, "root %q overlaps existing library root %q", root, e.Path)
			}
		}
	}

	section := &LibrarySection{Name: name, Type: libType}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(section).Error; err != nil {
			return translateWriteErr(err)
		}
		for _, root := range roots {
			loc := SectionLocation{LibrarySectionID: section.ID, Path: root}
			if err := tx.Create(&loc).Error; err != nil {
				return translateWriteErr(err)
			}
			section.Locations = append(section.Locations, loc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return section, nil
}

// overlaps reports whether two filesystem paths are equal or one contains
// the other as an ancestor directory.
func overlaps(a, b string) bool {
	a, b = strings.TrimRight(a, "/"), strings.TrimRight(b, "/")
	if a == b {
		return true
	}
	return strings.HasPrefix(a+"/", b+"/") || strings.HasPrefix(b+"/", a+"/")
}

// GetByID loads a single section directly, used by callers that already
// hold an internal id (e.g. a MetadataItem's LibrarySectionID) rather than
// the external uuid.
func (r *librarySectionRepository) GetByID(ctx context.Context, id uint64) (*LibrarySection, error) {
	var section LibrarySection
	err := r.db.WithContext(ctx).Preload("Locations").First(&section, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.NotFound, "library section %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "fetching library section")
	}
	return &section, nil
}

func (r *librarySectionRepository) GetByUUID(ctx context.Context, id string) (*LibrarySection, error) {
	var section LibrarySection
	err := r.db.WithContext(ctx).Preload("Locations").First(&section, "uuid = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.NotFound, "library section %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "fetching library section")
	}
	return &section, nil
}

func (r *librarySectionRepository) List(ctx context.Context) ([]*LibrarySection, error) {
	var sections []*LibrarySection
	if err := r.db.WithContext(ctx).Preload("Locations").Order("name ASC").Find(&sections).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "listing library sections")
	}
	return sections, nil
}

// Remove cascade-deletes every item, relation, media part, and location
// belonging to the section inside a single transaction.
func (r *librarySectionRepository) Remove(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint64
		if err := tx.Model(&MetadataItem{}).Where("library_section_id = ?", id).Pluck("id", &itemIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.Internal, err, "collecting section items")
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("item_id IN ?", itemIDs).Delete(&MediaPart{}).Error; err != nil {
				return apperrors.Wrap(apperrors.Internal, err, "cascading media part delete")
			}
			if err := tx.Where("parent_id IN ? OR child_id IN ?", itemIDs, itemIDs).Delete(&ItemRelation{}).Error; err != nil {
				return apperrors.Wrap(apperrors.Internal, err, "cascading relation delete")
			}
			if err := tx.Where("id IN ?", itemIDs).Delete(&MetadataItem{}).Error; err != nil {
				return apperrors.Wrap(apperrors.Internal, err, "cascading item delete")
			}
		}
		if err := tx.Where("library_section_id = ?", id).Delete(&SectionLocation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.Internal, err, "cascading location delete")
		}
		if err := tx.Delete(&LibrarySection{}, "id = ?", id).Error; err != nil {
			return apperrors.Wrap(apperrors.Internal, err, "deleting library section")
		}
		return nil
	})
}
