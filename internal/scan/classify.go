package scan

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"nexamediaserver/internal/catalog"
)

// episodePattern recognizes "S02E03"-style episode markers.
var episodePattern = regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,3})`)

// Classified pairs a changed candidate with its intended MetadataType,
// derived from path layout + extension, per §4.B step 3 (e.g. "Show
// Name/Season 02/S02E03.mkv" -> Episode under Show/Season).
type Classified struct {
	Candidate    Candidate
	LibraryType  catalog.LibraryType
	IntendedType catalog.MetadataType
	ShowName     string
	Season       int
	Episode      int
}

// Classify chooses an intended MetadataType for each changed candidate
// from libType and, for TV libraries, the path layout; the extension
// family is not consulted.
func Classify(libType catalog.LibraryType) Stage[FilterResult, Classified] {
	return func(ctx context.Context, in <-chan FilterResult, progress *Progress) (<-chan Classified, error) {
		out := make(chan Classified, 256)
		go func() {
			defer close(out)
			processed := 0
			for r := range in {
				if ctx.Err() != nil {
					return
				}
				if !r.Changed {
					continue
				}
				classified := classifyOne(r.Candidate, libType)
				select {
				case out <- classified:
					processed++
					progress.Report("Classify", processed, 0)
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}

func classifyOne(c Candidate, libType catalog.LibraryType) Classified {
	result := Classified{Candidate: c, LibraryType: libType}

	switch libType {
	case catalog.LibraryTVShows:
		dir := filepath.Dir(c.Path)
		season := filepath.Base(dir)
		show := filepath.Base(filepath.Dir(dir))
		base := filepath.Base(c.Path)

		if m := episodePattern.FindStringSubmatch(base); m != nil {
			result.IntendedType = catalog.TypeEpisode
			result.ShowName = show
			result.Season, _ = strconv.Atoi(m[1])
			result.Episode, _ = strconv.Atoi(m[2])
		} else {
			result.IntendedType = catalog.TypeEpisode
			result.ShowName = show
			result.Season = parseSeasonDir(season)
		}
	case catalog.LibraryMovies:
		result.IntendedType = catalog.TypeMovie
	case catalog.LibraryMusic:
		result.IntendedType = catalog.TypeTrack
	case catalog.LibraryBooks:
		result.IntendedType = catalog.TypeEdition
	case catalog.LibraryComics, catalog.LibraryManga:
		result.IntendedType = catalog.TypeEditionItem
	case catalog.LibraryGames:
		result.IntendedType = catalog.TypeGameRelease
	case catalog.LibraryPhotos, catalog.LibraryPictures:
		result.IntendedType = catalog.TypePhoto
	default:
		result.IntendedType = catalog.TypeExtraOther
	}
	return result
}

func parseSeasonDir(name string) int {
	lower := strings.ToLower(name)
	lower = strings.TrimPrefix(lower, "season ")
	lower = strings.TrimPrefix(lower, "season")
	n, _ := strconv.Atoi(strings.TrimSpace(lower))
	return n
}
