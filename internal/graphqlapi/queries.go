package graphqlapi

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/hub"
	"nexamediaserver/internal/jobs"
)

const serverVersion = "0.1.0"

// ServerInfoResult is the serverInfo query's payload.
type ServerInfoResult struct {
	Name    string
	Version string
}

// ServerInfo reports the server's display name (configurable via
// updateServerSettings) and build version.
func (r *Resolver) ServerInfo(ctx context.Context) (ServerInfoResult, error) {
	name, ok, err := r.Settings.Get(ctx, "server.name")
	if err != nil {
		return ServerInfoResult{}, err
	}
	if !ok {
		name = "Nexa Media Server"
	}
	return ServerInfoResult{Name: name, Version: serverVersion}, nil
}

// LibrarySection resolves one section by its external id.
func (r *Resolver) LibrarySection(ctx context.Context, uuid string) (*catalog.LibrarySection, error) {
	return r.Sections.GetByUUID(ctx, uuid)
}

// LibrarySections lists every configured section.
func (r *Resolver) LibrarySections(ctx context.Context) ([]*catalog.LibrarySection, error) {
	return r.Sections.List(ctx)
}

// MetadataItem resolves one catalog entry by its external id.
func (r *Resolver) MetadataItem(ctx context.Context, uuid string) (*catalog.MetadataItem, error) {
	return r.Items.GetByUUID(ctx, uuid)
}

// MetadataItemsInput selects, filters, orders, and pages a metadataItems query.
type MetadataItemsInput struct {
	Filter catalog.Filter
	Order  catalog.Order
	Page   catalog.Page
}

// MetadataItems runs a filtered, ordered, paginated catalog query.
func (r *Resolver) MetadataItems(ctx context.Context, input MetadataItemsInput) (catalog.PageResult, error) {
	return r.Items.List(ctx, input.Filter, input.Order, input.Page)
}

// LibrarySectionChildren lists a section's direct children, optionally
// narrowed to metadataTypes, per §6's librarySection.children(...).
func (r *Resolver) LibrarySectionChildren(ctx context.Context, sectionUUID string, metadataTypes []catalog.MetadataType, skip, take int) (catalog.PageResult, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return catalog.PageResult{}, err
	}
	return r.Items.List(ctx,
		catalog.Filter{LibrarySectionID: section.ID, Types: metadataTypes},
		catalog.Order{Field: "sortTitle"},
		catalog.Page{Limit: take, Offset: skip},
	)
}

// LetterIndex buckets a section's items by the first character of their
// sort title, for an A-Z jump bar (librarySection.letterIndex).
func (r *Resolver) LetterIndex(ctx context.Context, sectionUUID string, metadataTypes []catalog.MetadataType) (map[string]int, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return nil, err
	}
	page, err := r.Items.List(ctx,
		catalog.Filter{LibrarySectionID: section.ID, Types: metadataTypes},
		catalog.Order{Field: "sortTitle"},
		catalog.Page{Limit: 1_000_000},
	)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for _, item := range page.Items {
		letter := "#"
		if len(item.SortTitle) > 0 {
			r := []rune(strings.ToUpper(item.SortTitle))[0]
			if r >= 'A' && r <= 'Z' {
				letter = string(r)
			}
		}
		index[letter]++
	}
	return index, nil
}

// rootItemTypesByLibrary names the MetadataType(s) a library section's
// top-level browse listing shows, per library type.
var rootItemTypesByLibrary = map[catalog.LibraryType][]catalog.MetadataType{
	catalog.LibraryMovies:      {catalog.TypeMovie, catalog.TypeCollection},
	catalog.LibraryTVShows:     {catalog.TypeShow},
	catalog.LibraryMusic:       {catalog.TypeAlbumReleaseGrp, catalog.TypeGroup},
	catalog.LibraryMusicVideos: {catalog.TypeMovie},
	catalog.LibraryHomeVideos:  {catalog.TypeMovie},
	catalog.LibraryAudiobooks:  {catalog.TypeAudioWork},
	catalog.LibraryPodcasts:    {catalog.TypeGroup},
	catalog.LibraryPhotos:      {catalog.TypePhotoAlbum},
	catalog.LibraryPictures:    {catalog.TypePictureSet},
	catalog.LibraryBooks:       {catalog.TypeBookSeries, catalog.TypeEditionGroup},
	catalog.LibraryComics:      {catalog.TypeBookSeries, catalog.TypeEditionGroup},
	catalog.LibraryManga:       {catalog.TypeBookSeries, catalog.TypeEditionGroup},
	catalog.LibraryMagazines:   {catalog.TypeBookSeries},
	catalog.LibraryGames:       {catalog.TypeGame},
}

// AvailableRootItemTypes reports the metadata types a section's browse view
// lists at the top level (librarySection.availableRootItemTypes).
func (r *Resolver) AvailableRootItemTypes(ctx context.Context, sectionUUID string) ([]catalog.MetadataType, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return nil, err
	}
	return rootItemTypesByLibrary[section.Type], nil
}

// AvailableSortFields reports the sort dimensions List accepts
// (librarySection.availableSortFields): the same set understood by
// catalog.Order regardless of library type.
func (r *Resolver) AvailableSortFields(ctx context.Context, sectionUUID string) ([]string, error) {
	if _, err := r.Sections.GetByUUID(ctx, sectionUUID); err != nil {
		return nil, err
	}
	return []string{"sortTitle", "year", "createdAt", "originallyAvailableAt"}, nil
}

// defaultHubDefinitions names the stock hubs offered per context before a
// server's updateHubConfiguration mutation overrides ordering and
// enablement, grounded on the hub types enumerated in §4.D.
func defaultHubDefinitions(hubCtx hub.Context) []hub.Definition {
	switch hubCtx {
	case hub.ContextHome:
		return []hub.Definition{
			{Type: hub.TypeContinueWatching, Title: "Continue Watching", HubContext: hubCtx, SortOrder: 0},
			{Type: hub.TypeRecentlyAdded, Title: "Recently Added", HubContext: hubCtx, SortOrder: 1},
			{Type: hub.TypeRecentlyReleased, Title: "Recently Released", HubContext: hubCtx, SortOrder: 2},
			{Type: hub.TypeTopRated, Title: "Top Rated", HubContext: hubCtx, SortOrder: 3},
		}
	case hub.ContextLibraryDiscover:
		return []hub.Definition{
			{Type: hub.TypeRecentlyAdded, Title: "Recently Added", HubContext: hubCtx, SortOrder: 0},
			{Type: hub.TypeRecentlyReleased, Title: "Recently Released", HubContext: hubCtx, SortOrder: 1},
			{Type: hub.TypeTopRated, Title: "Top Rated", HubContext: hubCtx, SortOrder: 2},
			{Type: hub.TypeByGenre, Title: "By Genre", HubContext: hubCtx, SortOrder: 3},
		}
	case hub.ContextItemDetail:
		return []hub.Definition{
			{Type: hub.TypeMoreFromShow, Title: "More Like This", HubContext: hubCtx, SortOrder: 0},
			{Type: hub.TypeCast, Title: "Cast", HubContext: hubCtx, SortOrder: 1},
			{Type: hub.TypeCrew, Title: "Crew", HubContext: hubCtx, SortOrder: 2},
		}
	default:
		return nil
	}
}

// reconciledDefinitions orders defaultHubDefinitions(scope.Context) per the
// stored Configuration for scope, dropping hub types the operator disabled.
func (r *Resolver) reconciledDefinitions(scope hub.Scope) ([]hub.Definition, error) {
	defs := defaultHubDefinitions(scope.Context)
	byType := make(map[hub.Type]hub.Definition, len(defs))
	knownTypes := make([]hub.Type, 0, len(defs))
	for _, d := range defs {
		byType[d.Type] = d
		knownTypes = append(knownTypes, d.Type)
	}

	cfg, err := r.HubConfig.Get(scope)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return defs, nil
	}

	disabled := make(map[hub.Type]bool, len(cfg.Disabled))
	for _, t := range cfg.Disabled {
		disabled[t] = true
	}

	var out []hub.Definition
	for i, t := range cfg.Reconcile(knownTypes) {
		if disabled[t] {
			continue
		}
		d, ok := byType[t]
		if !ok {
			continue
		}
		d.SortOrder = i
		out = append(out, d)
	}
	return out, nil
}

// HomeHubDefinitions lists the Home screen's enabled hubs in display order.
func (r *Resolver) HomeHubDefinitions(ctx context.Context) ([]hub.Definition, error) {
	return r.reconciledDefinitions(hub.Scope{Context: hub.ContextHome})
}

// LibraryDiscoverHubDefinitions lists a section's discover-page hubs.
func (r *Resolver) LibraryDiscoverHubDefinitions(ctx context.Context, sectionUUID string) ([]hub.Definition, error) {
	section, err := r.Sections.GetByUUID(ctx, sectionUUID)
	if err != nil {
		return nil, err
	}
	id := uint(section.ID)
	return r.reconciledDefinitions(hub.Scope{Context: hub.ContextLibraryDiscover, LibrarySectionID: &id})
}

// ItemDetailHubDefinitions lists the hubs shown under an item's detail page.
func (r *Resolver) ItemDetailHubDefinitions(ctx context.Context, metadataType catalog.MetadataType) ([]hub.Definition, error) {
	mt := metadataType
	return r.reconciledDefinitions(hub.Scope{Context: hub.ContextItemDetail, MetadataType: &mt})
}

// HubItemsInput scopes a hubItems(input) query.
type HubItemsInput struct {
	UserID           uint64
	HubType          hub.Type
	HubContext       hub.Context
	LibrarySectionID *uint
	ItemID           *uint
	Filter           string
	Count            int
}

// HubItems resolves one hub's item list.
func (r *Resolver) HubItems(ctx context.Context, input HubItemsInput) ([]catalog.MetadataItem, error) {
	count := input.Count
	if count <= 0 {
		count = 25
	}
	return r.Hub.GetHubItems(input.UserID, input.HubType, input.HubContext, input.LibrarySectionID, input.ItemID, input.Filter, count)
}

// HubPeople resolves a Cast or Crew hub's credit list.
func (r *Resolver) HubPeople(ctx context.Context, hubType hub.Type, metadataItemID uint) ([]hub.Person, error) {
	return r.Hub.GetHubPeople(hubType, metadataItemID, 25)
}

// SearchPivot narrows a search(query, pivot, limit) call to one family, or
// "Top" for a cross-family blend.
type SearchPivot string

const (
	PivotTop     SearchPivot = "Top"
	PivotMovie   SearchPivot = "Movie"
	PivotShow    SearchPivot = "Show"
	PivotEpisode SearchPivot = "Episode"
	PivotPeople  SearchPivot = "People"
	PivotAlbum   SearchPivot = "Album"
	PivotTrack   SearchPivot = "Track"
)

var pivotTypes = map[SearchPivot][]catalog.MetadataType{
	PivotMovie:   {catalog.TypeMovie},
	PivotShow:    {catalog.TypeShow},
	PivotEpisode: {catalog.TypeEpisode},
	PivotPeople:  {catalog.TypePerson},
	PivotAlbum:   {catalog.TypeAlbumReleaseGrp, catalog.TypeAlbumRelease},
	PivotTrack:   {catalog.TypeTrack},
}

// Search runs a title-substring search across the catalog, narrowed to
// pivot's metadata types (or every primary family for PivotTop), per
// search(query, pivot, limit).
func (r *Resolver) Search(ctx context.Context, query string, pivot SearchPivot, limit int) ([]*catalog.MetadataItem, error) {
	if limit <= 0 {
		limit = 25
	}
	types := pivotTypes[pivot]
	page, err := r.Items.List(ctx,
		catalog.Filter{TitleContains: query, Types: types},
		catalog.Order{Field: "sortTitle"},
		catalog.Page{Limit: limit},
	)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FileSystemRoots returns the directories a client may browse from: every
// currently configured library section root, deduplicated.
func (r *Resolver) FileSystemRoots(ctx context.Context) ([]string, error) {
	sections, err := r.Sections.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var roots []string
	for _, s := range sections {
		for _, loc := range s.Locations {
			if !seen[loc.Path] {
				seen[loc.Path] = true
				roots = append(roots, loc.Path)
			}
		}
	}
	sort.Strings(roots)
	return roots, nil
}

// DirectoryEntry is one child of a browseDirectory(path) listing.
type DirectoryEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// DirectoryListing is browseDirectory(path)'s payload.
type DirectoryListing struct {
	Path    string
	Parent  string
	Entries []DirectoryEntry
}

// BrowseDirectory lists path's immediate children for the library-creation
// file picker, per §3's FileSystemBrowse error kind: a missing, unreadable,
// or non-directory path fails with apperrors.FileSystemBrowse rather than
// Internal or NotFound, since the cause is the path itself, not the server.
func (r *Resolver) BrowseDirectory(ctx context.Context, path string) (DirectoryListing, error) {
	if !filepath.IsAbs(path) {
		return DirectoryListing{}, apperrors.Newf(apperrors.FileSystemBrowse, "path %q must be absolute", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return DirectoryListing{}, apperrors.Wrap(apperrors.FileSystemBrowse, err, "path not accessible")
	}
	if !info.IsDir() {
		return DirectoryListing{}, apperrors.Newf(apperrors.FileSystemBrowse, "path %q is not a directory", path)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return DirectoryListing{}, apperrors.Wrap(apperrors.FileSystemBrowse, err, "listing directory")
	}

	listing := DirectoryListing{Path: path, Parent: filepath.Dir(path)}
	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		listing.Entries = append(listing.Entries, DirectoryEntry{
			Name:  e.Name(),
			Path:  filepath.Join(path, e.Name()),
			IsDir: e.IsDir(),
		})
	}
	sort.Slice(listing.Entries, func(i, j int) bool { return listing.Entries[i].Name < listing.Entries[j].Name })
	return listing, nil
}

// ActiveJobNotifications returns the current snapshot of in-flight jobs, the
// query-time counterpart to the onJobNotification subscription's bootstrap.
func (r *Resolver) ActiveJobNotifications(ctx context.Context) ([]jobs.Entry, error) {
	return r.JobStore.ListActive(ctx)
}
