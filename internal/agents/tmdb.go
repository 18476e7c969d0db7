package agents

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tmdbclient "github.com/cyruzin/golang-tmdb"

	"nexamediaserver/internal/catalog"
)

// TMDBAgent is a Remote agent resolving Movie and Show hints against The
// Movie Database, grounded on the teacher's clients/metadata/tmdb client.
type TMDBAgent struct {
	client *tmdbclient.Client
}

// NewTMDBAgent initializes the TMDB SDK client with apiKey and wraps it as
// a metadata agent. The SDK uses its own HTTP client, bounded by timeout;
// TMDB calls do not go through RemoteClient and are not rate-limited.
func NewTMDBAgent(apiKey string, timeout time.Duration) (*TMDBAgent, error) {
	client, err := tmdbclient.Init(apiKey)
	if err != nil {
		return nil, fmt.Errorf("initializing TMDB client: %w", err)
	}
	client.SetClientConfig(http.Client{Timeout: timeout})
	client.SetClientAutoRetry()
	return &TMDBAgent{client: client}, nil
}

func (a *TMDBAgent) Name() string                    { return "tmdb" }
func (a *TMDBAgent) Category() catalog.AgentCategory  { return catalog.CategoryRemote }
func (a *TMDBAgent) DefaultOrder() int                { return 0 }

func (a *TMDBAgent) SupportsLibraryType(t catalog.LibraryType) bool {
	return t == catalog.LibraryMovies || t == catalog.LibraryTVShows
}

func (a *TMDBAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	switch unit.LibraryType {
	case catalog.LibraryMovies:
		return a.extractMovie(unit)
	case catalog.LibraryTVShows:
		return a.extractShow(unit)
	default:
		return Hints{}, nil
	}
}

func (a *TMDBAgent) extractMovie(unit ExtractionUnit) (Hints, error) {
	options := map[string]string{"language": "en-US"}
	if unit.ProbableYear != 0 {
		options["year"] = fmt.Sprintf("%d", unit.ProbableYear)
	}
	result, err := a.client.GetSearchMovies(unit.ProbableTitle, options)
	if err != nil || result == nil || len(result.Results) == 0 {
		return Hints{}, err
	}
	best := result.Results[0]

	title := best.Title
	summary := best.Overview
	var releaseDate *time.Time
	if t, err := time.Parse("2006-01-02", best.ReleaseDate); err == nil {
		releaseDate = &t
	}
	year := 0
	if releaseDate != nil {
		year = releaseDate.Year()
	}

	return Hints{
		Title:       &title,
		Summary:     &summary,
		ReleaseDate: releaseDate,
		Year:        &year,
		ExternalIDs: map[string]string{"tmdb": fmt.Sprintf("%d", best.ID)},
	}, nil
}

func (a *TMDBAgent) extractShow(unit ExtractionUnit) (Hints, error) {
	options := map[string]string{"language": "en-US"}
	result, err := a.client.GetSearchTVShow(unit.ProbableTitle, options)
	if err != nil || result == nil || len(result.Results) == 0 {
		return Hints{}, err
	}
	best := result.Results[0]

	title := best.Name
	summary := best.Overview
	var releaseDate *time.Time
	if t, err := time.Parse("2006-01-02", best.FirstAirDate); err == nil {
		releaseDate = &t
	}
	year := 0
	if releaseDate != nil {
		year = releaseDate.Year()
	}

	return Hints{
		Title:       &title,
		Summary:     &summary,
		ReleaseDate: releaseDate,
		Year:        &year,
		ExternalIDs: map[string]string{"tmdb": fmt.Sprintf("%d", best.ID)},
	}, nil
}
