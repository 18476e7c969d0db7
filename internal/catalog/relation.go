package catalog

import (
	"context"

	"gorm.io/gorm"

	"nexamediaserver/internal/apperrors"
)

// RelationRepository manages the ItemRelation parent-of/contains-extra
// edges described in §3's "Relations".
type RelationRepository interface {
	Create(ctx context.Context, rel *ItemRelation) error
	ChildrenOf(ctx context.Context, parentID uint64, edge EdgeType) ([]*MetadataItem, error)
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) Create(ctx context.Context, rel *ItemRelation) error {
	if err := r.db.WithContext(ctx).Create(rel).Error; err != nil {
		return translateWriteErr(err)
	}
	return nil
}

// ChildrenOf lists the items parentID is linked to via edge, ordered by the
// relation's SortOrder (track/episode/chapter ordering, §3).
func (r *relationRepository) ChildrenOf(ctx context.Context, parentID uint64, edge EdgeType) ([]*MetadataItem, error) {
	var relations []ItemRelation
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND edge = ?", parentID, edge).
		Order("sort_order ASC").
		Find(&relations).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "listing item relations")
	}
	if len(relations) == 0 {
		return nil, nil
	}

	childIDs := make([]uint64, len(relations))
	for i, rel := range relations {
		childIDs[i] = rel.ChildID
	}
	var items []*MetadataItem
	if err := r.db.WithContext(ctx).Where("id IN ?", childIDs).Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "loading relation children")
	}

	byID := make(map[uint64]*MetadataItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]*MetadataItem, 0, len(childIDs))
	for _, id := range childIDs {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}
