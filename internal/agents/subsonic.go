package agents

import (
	"context"
	"fmt"

	gosonic "github.com/supersonic-app/go-subsonic/subsonic"

	"nexamediaserver/internal/catalog"
)

// SubsonicAgent is a Remote agent resolving Track/Album hints against a
// Subsonic-compatible server, grounded on the teacher's
// clients/media/subsonic client and search.
type SubsonicAgent struct {
	client *gosonic.Client
}

// SubsonicOptions configures the upstream Subsonic server connection.
type SubsonicOptions struct {
	BaseURL    string
	User       string
	Password   string
	ClientName string
}

func NewSubsonicAgent(opts SubsonicOptions, remote *RemoteClient) (*SubsonicAgent, error) {
	client := &gosonic.Client{
		Client:       remote.HTTPClient(),
		BaseUrl:      opts.BaseURL,
		User:         opts.User,
		ClientName:   opts.ClientName,
		UserAgent:    "nexamediaserver",
		PasswordAuth: true,
	}
	if err := client.Authenticate(opts.Password); err != nil {
		return nil, fmt.Errorf("authenticating with subsonic server: %w", err)
	}
	return &SubsonicAgent{client: client}, nil
}

func (a *SubsonicAgent) Name() string                   { return "subsonic" }
func (a *SubsonicAgent) Category() catalog.AgentCategory { return catalog.CategoryRemote }
func (a *SubsonicAgent) DefaultOrder() int               { return 0 }

func (a *SubsonicAgent) SupportsLibraryType(t catalog.LibraryType) bool {
	return t == catalog.LibraryMusic
}

func (a *SubsonicAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	params := map[string]string{"songCount": "0", "albumCount": "5", "artistCount": "0"}
	result, err := a.client.Search3(unit.ProbableTitle, params)
	if err != nil {
		return Hints{}, fmt.Errorf("subsonic search3: %w", err)
	}
	if result == nil || len(result.Album) == 0 {
		return Hints{}, nil
	}
	best := result.Album[0]

	title := best.Title
	genres := []string{}
	if best.Genre != "" {
		genres = append(genres, best.Genre)
	}

	hints := Hints{
		Title:       &title,
		Genres:      genres,
		ExternalIDs: map[string]string{"subsonic": best.ID},
	}
	if best.Year != 0 {
		year := best.Year
		hints.Year = &year
	}
	if best.Artist != "" {
		hints.Performers = []PerformerHint{{
			Name:     best.Artist,
			Role:     "Artist",
			Relation: catalog.RelationPerformer,
			Order:    0,
		}}
	}
	return hints, nil
}
