// Package hub implements the browse query engine from §4.D: compiled hub
// definitions that produce ranked, paginated projections over the catalog
// for discovery surfaces (Home, a library's discover page, an item's detail
// page).
package hub

import (
	"sort"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
)

// Type enumerates the hub types named in §4.D.
type Type string

const (
	TypeRecentlyAdded   Type = "RecentlyAdded"
	TypeContinueWatching Type = "ContinueWatching"
	TypeRecentlyReleased Type = "RecentlyReleased"
	TypeTopRated        Type = "TopRated"
	TypeByGenre         Type = "ByGenre"
	TypeByDirector      Type = "ByDirector"
	TypeMoreFromShow    Type = "MoreFromShow"
	TypeCast            Type = "Cast"
	TypeCrew            Type = "Crew"
)

// Context scopes a hub to Home, a single library section's discover page,
// or a single item's detail page, per §4.D.
type Context string

const (
	ContextHome            Context = "Home"
	ContextLibraryDiscover Context = "LibraryDiscover"
	ContextItemDetail      Context = "ItemDetail"
)

// Definition is the HubDefinition entity from §4.D.
type Definition struct {
	Type         Type
	Title        string
	MetadataType catalog.MetadataType
	HubContext   Context
	SortOrder    int
	FilterValue  string
	WidgetHint   string
}

// Item is one row of a resolved hub.
type Item struct {
	MetadataItem catalog.MetadataItem
	RankKey      float64 // larger sorts first
}

// Person is one row of a GetHubPeople projection.
type Person struct {
	Name  string
	Role  string
	Order int
}

// ItemSource abstracts the catalog queries a hub resolver needs, so this
// package does not depend on a concrete gorm repository.
type ItemSource interface {
	RecentlyAdded(librarySectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error)
	RecentlyReleased(librarySectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error)
	TopRated(librarySectionIDs []uint, metadataType catalog.MetadataType, count int) ([]catalog.MetadataItem, error)
	ByGenre(librarySectionIDs []uint, genre string, count int) ([]catalog.MetadataItem, error)
	ByDirector(librarySectionIDs []uint, personName string, count int) ([]catalog.MetadataItem, error)
	MoreFromShow(showID uint, excludeID uint, count int) ([]catalog.MetadataItem, error)
	ContinueWatching(userID uint64, librarySectionIDs []uint, count int) ([]catalog.MetadataItem, error)
	Credits(itemID uint, relation catalog.RelationType, count int) ([]Person, error)
	ReadableLibrarySections(userID uint64) ([]uint, error)
}

// Resolver resolves hub definitions into item/person lists.
type Resolver struct {
	source ItemSource
}

func NewResolver(source ItemSource) *Resolver {
	return &Resolver{source: source}
}

// GetHubItems returns up to count HubItems for hubType in the given
// context, per the resolution rules in §4.D.
func (r *Resolver) GetHubItems(userID uint64, hubType Type, hubCtx Context, librarySectionID *uint, itemID *uint, filter string, count int) ([]catalog.MetadataItem, error) {
	var sectionIDs []uint
	switch hubCtx {
	case ContextHome:
		ids, err := r.source.ReadableLibrarySections(userID)
		if err != nil {
			return nil, err
		}
		sectionIDs = ids
	case ContextLibraryDiscover:
		if librarySectionID == nil {
			return nil, errMissingScope("LibraryDiscover hub requires a library section")
		}
		sectionIDs = []uint{*librarySectionID}
	case ContextItemDetail:
		if itemID == nil {
			return nil, errMissingScope("ItemDetail hub requires a context item")
		}
	}

	switch hubType {
	case TypeRecentlyAdded:
		return r.source.RecentlyAdded(sectionIDs, "", count)
	case TypeRecentlyReleased:
		return r.source.RecentlyReleased(sectionIDs, "", count)
	case TypeTopRated:
		return r.source.TopRated(sectionIDs, "", count)
	case TypeByGenre:
		return r.source.ByGenre(sectionIDs, filter, count)
	case TypeByDirector:
		return r.source.ByDirector(sectionIDs, filter, count)
	case TypeContinueWatching:
		return r.source.ContinueWatching(userID, sectionIDs, count)
	case TypeMoreFromShow:
		if itemID == nil {
			return nil, errMissingScope("MoreFromShow hub requires a context item")
		}
		return r.source.MoreFromShow(*itemID, *itemID, count)
	default:
		return nil, errMissingScope("unsupported hub type for GetHubItems")
	}
}

// GetHubPeople returns the cast/crew projection for hubType bound to itemID.
func (r *Resolver) GetHubPeople(hubType Type, itemID uint, count int) ([]Person, error) {
	relation := catalog.RelationActor
	if hubType == TypeCrew {
		relation = catalog.RelationDirector
	}
	people, err := r.source.Credits(itemID, relation, count)
	if err != nil {
		return nil, err
	}
	sort.Slice(people, func(i, j int) bool { return people[i].Order < people[j].Order })
	return people, nil
}

func errMissingScope(msg string) error {
	return apperrors.New(apperrors.InvalidArgument, msg)
}
