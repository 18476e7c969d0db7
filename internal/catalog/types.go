package catalog

// LibraryType is the kind of content a LibrarySection holds.
type LibraryType string

const (
	LibraryMovies      LibraryType = "Movies"
	LibraryTVShows     LibraryType = "TVShows"
	LibraryMusic       LibraryType = "Music"
	LibraryMusicVideos LibraryType = "MusicVideos"
	LibraryHomeVideos  LibraryType = "HomeVideos"
	LibraryAudiobooks  LibraryType = "Audiobooks"
	LibraryPodcasts    LibraryType = "Podcasts"
	LibraryPhotos      LibraryType = "Photos"
	LibraryPictures    LibraryType = "Pictures"
	LibraryBooks       LibraryType = "Books"
	LibraryComics      LibraryType = "Comics"
	LibraryManga       LibraryType = "Manga"
	LibraryMagazines   LibraryType = "Magazines"
	LibraryGames       LibraryType = "Games"
)

// MetadataType discriminates the polymorphic MetadataItem variants.
type MetadataType string

const (
	TypeMovie           MetadataType = "Movie"
	TypeShow            MetadataType = "Show"
	TypeSeason          MetadataType = "Season"
	TypeEpisode         MetadataType = "Episode"
	TypeAlbumReleaseGrp MetadataType = "AlbumReleaseGroup"
	TypeAlbumRelease    MetadataType = "AlbumRelease"
	TypeAlbumMedium     MetadataType = "AlbumMedium"
	TypeTrack           MetadataType = "Track"
	TypeAudioWork       MetadataType = "AudioWork"
	TypeBookSeries      MetadataType = "BookSeries"
	TypeEditionGroup    MetadataType = "EditionGroup"
	TypeEdition         MetadataType = "Edition"
	TypeEditionItem     MetadataType = "EditionItem"
	TypeLiteraryWork    MetadataType = "LiteraryWork"
	TypeLiteraryWorkPt  MetadataType = "LiteraryWorkPart"
	TypeGame            MetadataType = "Game"
	TypeGameRelease     MetadataType = "GameRelease"
	TypePerson          MetadataType = "Person"
	TypeGroup           MetadataType = "Group"
	TypePlaylist        MetadataType = "Playlist"
	TypePhoto           MetadataType = "Photo"
	TypePicture         MetadataType = "Picture"
	TypePhotoAlbum      MetadataType = "PhotoAlbum"
	TypePictureSet      MetadataType = "PictureSet"
	TypeCollection      MetadataType = "Collection"
	TypeTrailer         MetadataType = "Trailer"
	TypeFeaturette      MetadataType = "Featurette"
	TypeDeletedScene    MetadataType = "DeletedScene"
	TypeBehindTheScenes MetadataType = "BehindTheScenes"
	TypeInterview       MetadataType = "Interview"
	TypeShort           MetadataType = "Short"
	TypeScene           MetadataType = "Scene"
	TypeExtraOther      MetadataType = "ExtraOther"
)

// extraTypes are MetadataTypes that represent "contains-extra" children rather
// than primary catalog entries; used by relation validation.
var extraTypes = map[MetadataType]bool{
	TypeTrailer:         true,
	TypeFeaturette:      true,
	TypeDeletedScene:    true,
	TypeBehindTheScenes: true,
	TypeInterview:       true,
	TypeShort:           true,
	TypeScene:           true,
	TypeExtraOther:      true,
}

// IsExtra reports whether t is one of the "contains-extra" owned variants.
func (t MetadataType) IsExtra() bool { return extraTypes[t] }

// RelationType labels a person-credit edge between a Person and an item.
type RelationType string

const (
	RelationActor      RelationType = "Actor"
	RelationDirector   RelationType = "Director"
	RelationWriter     RelationType = "Writer"
	RelationProducer   RelationType = "Producer"
	RelationComposer   RelationType = "Composer"
	RelationPerformer  RelationType = "Performer"
	RelationConductor  RelationType = "Conductor"
	RelationArranger   RelationType = "Arranger"
	RelationAuthor     RelationType = "Author"
	RelationIllustrator RelationType = "Illustrator"
)

// EdgeType distinguishes the three relation shapes: parent-of,
// contains-extra and person-credit.
type EdgeType string

const (
	EdgeParentOf      EdgeType = "parent-of"
	EdgeContainsExtra EdgeType = "contains-extra"
	EdgePersonCredit  EdgeType = "person-credit"
)

// AgentCategory orders metadata agent invocation: Sidecar, then Embedded,
// then Local, then Remote (§4.B step 5, §4.C).
type AgentCategory string

const (
	CategorySidecar  AgentCategory = "Sidecar"
	CategoryEmbedded AgentCategory = "Embedded"
	CategoryLocal    AgentCategory = "Local"
	CategoryRemote   AgentCategory = "Remote"
)

// AgentCategoryOrder is the fixed extraction order for §4.B step 5.
var AgentCategoryOrder = []AgentCategory{CategorySidecar, CategoryEmbedded, CategoryLocal, CategoryRemote}
