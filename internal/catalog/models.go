package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoftDeletable is embedded by every entity whose deletes must be rewritten
// to an update of a deletion timestamp (§4.A interceptor semantics). GORM's
// own soft-delete hook already does this for any model carrying a
// gorm.DeletedAt field; we alias it so call sites read in domain terms.
type SoftDeletable struct {
	DeletedAt gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// IsSoftDeleted reports whether the row has been soft-deleted.
func (s SoftDeletable) IsSoftDeleted() bool { return s.DeletedAt.Valid }

// Identity carries the internal integer key and the stable external UUID
// every entity exposes, per §3's "All entities carry..." preamble.
type Identity struct {
	ID   uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID string `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
}

func newUUID() string { return uuid.New().String() }

// LibrarySection is a named bucket of one LibraryType rooted at one or more
// SectionLocation paths.
type LibrarySection struct {
	Identity
	Name      string           `json:"name" gorm:"not null"`
	Type      LibraryType      `json:"type" gorm:"type:varchar(32);not null"`
	Locations []SectionLocation `json:"locations" gorm:"foreignKey:LibrarySectionID"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	SoftDeletable
}

func (LibrarySection) TableName() string { return "library_sections" }

func (l *LibrarySection) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = newUUID()
	}
	return nil
}

// SectionLocation is one scanned root path owned by a LibrarySection.
// Invariant (§3): no two sections may claim overlapping root paths.
type SectionLocation struct {
	ID               uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	LibrarySectionID uint64 `json:"librarySectionId" gorm:"index;not null"`
	Path             string `json:"path" gorm:"not null;uniqueIndex"`
}

func (SectionLocation) TableName() string { return "section_locations" }

// LockedFields is the per-item set of canonical field names an agent must
// not overwrite (§3 "Locked fields").
type LockedFields map[string]bool

// Lock returns a LockedFields with the given fields locked; idempotent.
func (l LockedFields) Lock(fields ...string) LockedFields {
	if l == nil {
		l = LockedFields{}
	}
	for _, f := range fields {
		l[f] = true
	}
	return l
}

// Unlock removes exactly the named fields; idempotent.
func (l LockedFields) Unlock(fields ...string) LockedFields {
	for _, f := range fields {
		delete(l, f)
	}
	return l
}

// IsLocked reports whether field may not be agent-updated.
func (l LockedFields) IsLocked(field string) bool { return l[field] }

// ExternalIDs is the provider -> value extension described in §3.
type ExternalIDs map[string]string

// ExtraFields is the open, typed-JSON extension bag described in §3 and the
// "Extra fields bag" design note: accessors return a sum of
// {present-typed, present-uncoercible, absent} rather than throwing.
type ExtraFields map[string]any

// ExtraAccessResult is the sum type ExtraFields string coercion returns.
type ExtraAccessResult int

const (
	ExtraAbsent ExtraAccessResult = iota
	ExtraPresentTyped
	ExtraPresentUncoercible
)

// GetString coerces a value to a string following §4.A's rule: strings pass
// through, numbers print as raw text, booleans coerce to "1"/"0"; anything
// else is present-but-uncoercible, and a missing key is absent. Parse
// failures never panic; callers branch on the ExtraAccessResult.
func (e ExtraFields) GetString(key string) (string, ExtraAccessResult) {
	v, ok := e[key]
	if !ok {
		return "", ExtraAbsent
	}
	switch t := v.(type) {
	case string:
		return t, ExtraPresentTyped
	case bool:
		if t {
			return "1", ExtraPresentTyped
		}
		return "0", ExtraPresentTyped
	case float64:
		return trimFloat(t), ExtraPresentTyped
	case int:
		return trimFloat(float64(t)), ExtraPresentTyped
	case int64:
		return trimFloat(float64(t)), ExtraPresentTyped
	default:
		return "", ExtraPresentUncoercible
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return itoa(int64(f))
	}
	return ftoa(f)
}

// PersonCredit links a credited cast/crew/author/performer to an item. The
// person is itself a MetadataItem (PersonItemID) rather than a row of a
// separate table, per the "Polymorphic item graph" design note; the credit
// row carries the credit-specific role.
type PersonCredit struct {
	ID           uint64       `json:"id" gorm:"primaryKey;autoIncrement"`
	PersonItemID uint64       `json:"personItemId" gorm:"index;not null"`
	ItemID       uint64       `json:"itemId" gorm:"index;not null"`
	Relation     RelationType `json:"relation" gorm:"type:varchar(32);not null"`
	Role         string       `json:"role,omitempty"`
	SortOrder    int          `json:"sortOrder"`
}

func (PersonCredit) TableName() string { return "person_credits" }

// ItemRelation is a parent-of or contains-extra tree edge (§3 "Relations").
type ItemRelation struct {
	ID         uint64   `json:"id" gorm:"primaryKey;autoIncrement"`
	ParentID   uint64   `json:"parentId" gorm:"index;not null"`
	ChildID    uint64   `json:"childId" gorm:"index;not null"`
	Edge       EdgeType `json:"edge" gorm:"type:varchar(32);not null"`
	SortOrder  int      `json:"sortOrder"`
}

func (ItemRelation) TableName() string { return "item_relations" }

// UserItemData is the per-(item,user) watch-state aggregate the expanded
// spec adds in §3's data model supplements: watched flag, play count, last
// played at, resume position. Additive state, not a new MetadataType.
type UserItemData struct {
	ID             uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemID         uint64     `json:"itemId" gorm:"uniqueIndex:idx_user_item;not null"`
	UserID         uint64     `json:"userId" gorm:"uniqueIndex:idx_user_item;not null"`
	Watched        bool       `json:"watched"`
	PlayCount      int        `json:"playCount"`
	LastPlayedAt   *time.Time `json:"lastPlayedAt,omitempty"`
	ResumePosition int64      `json:"resumePositionMs"`
}

func (UserItemData) TableName() string { return "user_item_data" }

// MetadataItem is the single polymorphic record backing every catalog entry
// named in §3, discriminated by Type.
type MetadataItem struct {
	Identity
	LibrarySectionID uint64       `json:"librarySectionId" gorm:"index;not null"`
	Type             MetadataType `json:"type" gorm:"type:varchar(32);index;not null"`

	Title         string `json:"title" gorm:"not null"`
	SortTitle     string `json:"sortTitle" gorm:"index"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Tagline       string `json:"tagline,omitempty"`
	Language      string `json:"language,omitempty"` // drives SortName.Generate's article table

	ContentRating        string     `json:"contentRating,omitempty"`
	Year                 int        `json:"year,omitempty"`
	OriginallyAvailable  *time.Time `json:"originallyAvailableAt,omitempty"`

	Genres []string `json:"genres" gorm:"serializer:json"`
	Tags   []string `json:"tags" gorm:"serializer:json"`

	LockedFields LockedFields `json:"lockedFields" gorm:"serializer:json"`
	ThumbURI     string       `json:"thumbUri,omitempty"`
	ArtURI       string       `json:"artUri,omitempty"`
	LogoURI      string       `json:"logoUri,omitempty"`
	ThumbBlurhash string      `json:"thumbBlurhash,omitempty"`
	ArtBlurhash   string      `json:"artBlurhash,omitempty"`

	LengthMs int64 `json:"lengthMs,omitempty"`

	PrimaryPersonID *uint64 `json:"primaryPersonId,omitempty" gorm:"index"`

	ExternalIDs ExternalIDs `json:"externalIds" gorm:"serializer:json"`
	ExtraFields ExtraFields `json:"extraFields" gorm:"serializer:json"`

	// Per-family fields kept first-class because the hub engine and scan
	// matcher query them frequently; everything rarer lives in ExtraFields.
	SeasonNumber  *int `json:"seasonNumber,omitempty"`
	EpisodeNumber *int `json:"episodeNumber,omitempty"`
	DiscNumber    *int `json:"discNumber,omitempty"`
	TrackNumber   *int `json:"trackNumber,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SoftDeletable
}

func (MetadataItem) TableName() string { return "metadata_items" }

func (m *MetadataItem) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = newUUID()
	}
	m.SortTitle = GenerateSortName(m.Title, m.Language)
	return nil
}

// MediaPart is a concrete on-disk file backing a MetadataItem (§3).
type MediaPart struct {
	ID       uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemID   uint64 `json:"itemId" gorm:"index;not null"`
	Path     string `json:"path" gorm:"not null;uniqueIndex"`
	Size     int64  `json:"size"`
	ModTime  time.Time `json:"modTime"`

	Container   string `json:"container,omitempty"`
	VideoCodec  string `json:"videoCodec,omitempty"`
	AudioCodec  string `json:"audioCodec,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	BitrateKbps int    `json:"bitrateKbps,omitempty"`
	DurationMs  int64  `json:"durationMs,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	SoftDeletable
}

func (MediaPart) TableName() string { return "media_parts" }

// ServerSetting is a (key, value) row late-bound to typed options (§3).
type ServerSetting struct {
	Key   string `json:"key" gorm:"primaryKey"`
	Value string `json:"value"`
}

func (ServerSetting) TableName() string { return "server_settings" }

// AllTables lists every model AutoMigrate should manage, used by store.Open.
func AllTables() []any {
	return []any{
		&LibrarySection{},
		&SectionLocation{},
		&MetadataItem{},
		&MediaPart{},
		&PersonCredit{},
		&ItemRelation{},
		&UserItemData{},
		&ServerSetting{},
	}
}
