package agents

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"nexamediaserver/internal/catalog"
)

// nfoDocument is the Kodi/Jellyfin-compatible NFO XML shape a Sidecar agent
// reads, grounded on the teacher's internal/metadata NFOData fields.
type nfoDocument struct {
	XMLName       xml.Name      `xml:"-"`
	Title         string        `xml:"title"`
	OriginalTitle string        `xml:"originaltitle"`
	SortTitle     string        `xml:"sorttitle"`
	Tagline       string        `xml:"tagline"`
	Plot          string        `xml:"plot"`
	Year          int           `xml:"year"`
	MPAA          string        `xml:"mpaa"`
	Genres        []string      `xml:"genre"`
	Tags          []string      `xml:"tag"`
	UniqueIDs     []nfoUniqueID `xml:"uniqueid"`
	Actors        []nfoActor    `xml:"actor"`
	LockData      bool          `xml:"lockdata"`
}

type nfoUniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:",chardata"`
}

type nfoActor struct {
	Name  string `xml:"name"`
	Role  string `xml:"role"`
	Order int    `xml:"order"`
}

// NFOAgent reads a Kodi-style .nfo sidecar file sitting next to the media
// file, §4.B's Sidecar category. Sidecar agents run first, so any field a
// later Embedded, Local or Remote agent also sets overrides it in Merge.
type NFOAgent struct{}

func NewNFOAgent() *NFOAgent { return &NFOAgent{} }

func (a *NFOAgent) Name() string                    { return "nfo-sidecar" }
func (a *NFOAgent) Category() catalog.AgentCategory  { return catalog.CategorySidecar }
func (a *NFOAgent) DefaultOrder() int                { return 0 }

func (a *NFOAgent) SupportsLibraryType(t catalog.LibraryType) bool {
	switch t {
	case catalog.LibraryMovies, catalog.LibraryTVShows, catalog.LibraryMusicVideos, catalog.LibraryHomeVideos:
		return true
	default:
		return false
	}
}

func (a *NFOAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	path := sidecarPath(unit.PrimaryPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Hints{}, nil
		}
		return Hints{}, err
	}

	var doc nfoDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Hints{}, nil // a malformed sidecar yields no hints rather than failing the scan
	}

	hints := Hints{ExternalIDs: map[string]string{}}
	if doc.Title != "" {
		hints.Title = &doc.Title
	}
	if doc.OriginalTitle != "" {
		hints.OriginalTitle = &doc.OriginalTitle
	}
	if doc.SortTitle != "" {
		hints.SortTitle = &doc.SortTitle
	}
	if doc.Tagline != "" {
		hints.Tagline = &doc.Tagline
	}
	if doc.Plot != "" {
		hints.Summary = &doc.Plot
	}
	if doc.MPAA != "" {
		hints.ContentRating = &doc.MPAA
	}
	if doc.Year != 0 {
		hints.Year = &doc.Year
	}
	if len(doc.Genres) > 0 {
		hints.Genres = doc.Genres
	}
	if len(doc.Tags) > 0 {
		hints.Tags = doc.Tags
	}
	for _, id := range doc.UniqueIDs {
		if id.Type != "" {
			hints.ExternalIDs[id.Type] = id.Value
		}
	}
	for i, actor := range doc.Actors {
		role := actor.Role
		if role == "" {
			role = "Actor"
		}
		hints.Performers = append(hints.Performers, PerformerHint{
			Name:     actor.Name,
			Role:     role,
			Relation: catalog.RelationActor,
			Order:    orDefault(actor.Order, i),
		})
	}
	return hints, nil
}

// sidecarPath replaces mediaPath's extension with .nfo.
func sidecarPath(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	return strings.TrimSuffix(mediaPath, ext) + ".nfo"
}

func orDefault(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
