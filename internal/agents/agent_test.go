package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"nexamediaserver/internal/catalog"
)

type stubAgent struct {
	name     string
	category catalog.AgentCategory
	order    int
}

func (s stubAgent) Name() string                                { return s.name }
func (s stubAgent) Category() catalog.AgentCategory              { return s.category }
func (s stubAgent) DefaultOrder() int                            { return s.order }
func (s stubAgent) SupportsLibraryType(catalog.LibraryType) bool { return true }
func (s stubAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	return Hints{}, nil
}

func TestRegistryChainForOrdersByCategoryThenDefaultOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAgent{name: "remote-b", category: catalog.CategoryRemote, order: 1})
	r.Register(stubAgent{name: "sidecar", category: catalog.CategorySidecar, order: 0})
	r.Register(stubAgent{name: "remote-a", category: catalog.CategoryRemote, order: 0})
	r.Register(stubAgent{name: "embedded", category: catalog.CategoryEmbedded, order: 0})
	r.Register(stubAgent{name: "local", category: catalog.CategoryLocal, order: 0})

	chain := r.ChainFor(catalog.LibraryMovies)

	var names []string
	for _, a := range chain {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"sidecar", "embedded", "local", "remote-a", "remote-b"}, names)
}

func TestParseTitleAndYear(t *testing.T) {
	cases := []struct {
		name      string
		wantTitle string
		wantYear  int
	}{
		{"The.Movie.Name.2019.1080p.BluRay.x264", "The Movie Name", 2019},
		{"Movie Name (2005)", "Movie Name", 2005},
		{"No Year Here", "No Year Here", 0},
	}
	for _, tc := range cases {
		title, year := parseTitleAndYear(tc.name)
		assert.Equal(t, tc.wantTitle, title, tc.name)
		assert.Equal(t, tc.wantYear, year, tc.name)
	}
}

func TestNFOAgentSidecarPath(t *testing.T) {
	assert.Equal(t, "/media/Movie (2019).nfo", sidecarPath("/media/Movie (2019).mkv"))
}

func TestTagPolicyApply(t *testing.T) {
	allow := TagPolicy{Allowed: []string{"HDR", "Director's Cut"}}
	assert.Equal(t, []string{"HDR"}, allow.Apply([]string{"HDR", "Leaked Cam"}))

	block := TagPolicy{Blocked: []string{"Leaked Cam"}}
	assert.Equal(t, []string{"HDR"}, block.Apply([]string{"HDR", "Leaked Cam"}))

	passthrough := TagPolicy{}
	assert.Equal(t, []string{"HDR", "Leaked Cam"}, passthrough.Apply([]string{"HDR", "Leaked Cam"}))
}

func TestGenreMapCanonicalize(t *testing.T) {
	m := GenreMap{"Sci-Fi": "Science Fiction"}
	assert.Equal(t, []string{"Science Fiction", "Drama"}, m.Canonicalize([]string{"Sci-Fi", "Drama"}))
}
