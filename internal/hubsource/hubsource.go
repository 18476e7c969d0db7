// Package hubsource provides the gorm-backed hub.ItemSource used in
// production, kept out of internal/catalog so catalog need not import hub
// (hub already imports catalog for its domain types).
package hubsource

import (
	"gorm.io/gorm"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
)

// Source is the gorm-backed hub.ItemSource.
//
// This deployment carries no per-user library ACL (an open question decided
// in favor of the simpler behavior): ReadableLibrarySections returns every
// section regardless of userID.
type Source struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Source {
	return &Source{db: db}
}

func (s *Source) scoped(sectionIDs []uint) *gorm.DB {
	q := s.db.Model(&catalog.MetadataItem{})
	if len(sectionIDs) > 0 {
		q = q.Where("library_section_id IN ?", sectionIDs)
	}
	return q
}

func (s *Source) RecentlyAdded(sectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	q := s.scoped(sectionIDs)
	if metadataType != "" {
		q = q.Where("type = ?", metadataType)
	}
	var items []catalog.MetadataItem
	err := q.Order("created_at DESC").Limit(count).Find(&items).Error
	return items, err
}

func (s *Source) RecentlyReleased(sectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	q := s.scoped(sectionIDs)
	if metadataType != "" {
		q = q.Where("type = ?", metadataType)
	}
	var items []catalog.MetadataItem
	err := q.Where("originally_available_at IS NOT NULL").
		Order("originally_available_at DESC").Limit(count).Find(&items).Error
	return items, err
}

// TopRated ranks by recency: this deployment's data model has no
// user-rating table, so there is no rating signal to sort by.
func (s *Source) TopRated(sectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error) {
	return s.RecentlyReleased(sectionIDs, metadataType, count)
}

func (s *Source) ByGenre(sectionIDs []uint, genre string, count int) ([]catalog.MetadataItem, error) {
	q := s.scoped(sectionIDs).Where("genres LIKE ?", "%\""+genre+"\"%")
	var items []catalog.MetadataItem
	err := q.Order("sort_title ASC").Limit(count).Find(&items).Error
	return items, err
}

func (s *Source) ByDirector(sectionIDs []uint, personName string, count int) ([]catalog.MetadataItem, error) {
	var person catalog.MetadataItem
	if err := s.db.Where("type = ? AND title = ?", catalog.TypePerson, personName).First(&person).Error; err != nil {
		return nil, nil
	}

	var credits []catalog.PersonCredit
	if err := s.db.Where("person_item_id = ? AND relation = ?", person.ID, catalog.RelationDirector).
		Order("sort_order ASC").Limit(count).Find(&credits).Error; err != nil {
		return nil, err
	}
	itemIDs := make([]uint64, len(credits))
	for i, c := range credits {
		itemIDs[i] = c.ItemID
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}

	var items []catalog.MetadataItem
	err := s.scoped(sectionIDs).Where("id IN ?", itemIDs).Find(&items).Error
	return items, err
}

func (s *Source) MoreFromShow(showID, excludeID uint, count int) ([]catalog.MetadataItem, error) {
	var relations []catalog.ItemRelation
	if err := s.db.Where("parent_id = ? AND edge = ?", showID, catalog.EdgeParentOf).Find(&relations).Error; err != nil {
		return nil, err
	}
	var childIDs []uint64
	for _, rel := range relations {
		if rel.ChildID != uint64(excludeID) {
			childIDs = append(childIDs, rel.ChildID)
		}
	}
	if len(childIDs) == 0 {
		return nil, nil
	}
	var items []catalog.MetadataItem
	err := s.db.Where("id IN ?", childIDs).Limit(count).Find(&items).Error
	return items, err
}

func (s *Source) ContinueWatching(userID uint64, sectionIDs []uint, count int) ([]catalog.MetadataItem, error) {
	var states []catalog.UserItemData
	q := s.db.Where("user_id = ? AND watched = ? AND resume_position > 0", userID, false)
	if err := q.Order("last_played_at DESC").Limit(count).Find(&states).Error; err != nil {
		return nil, err
	}
	itemIDs := make([]uint64, len(states))
	for i, st := range states {
		itemIDs[i] = st.ItemID
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var items []catalog.MetadataItem
	err := s.scoped(sectionIDs).Where("id IN ?", itemIDs).Find(&items).Error
	return items, err
}

func (s *Source) Credits(itemID uint, relation catalog.RelationType, count int) ([]hub.Person, error) {
	var credits []catalog.PersonCredit
	err := s.db.Where("item_id = ? AND relation = ?", itemID, relation).
		Order("sort_order ASC").Limit(count).Find(&credits).Error
	if err != nil {
		return nil, err
	}
	out := make([]hub.Person, 0, len(credits))
	for _, c := range credits {
		var person catalog.MetadataItem
		if err := s.db.First(&person, c.PersonItemID).Error; err != nil {
			continue
		}
		out = append(out, hub.Person{Name: person.Title, Role: c.Role, Order: c.SortOrder})
	}
	return out, nil
}

func (s *Source) ReadableLibrarySections(userID uint64) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&catalog.LibrarySection{}).Pluck("id", &ids).Error
	return ids, err
}
