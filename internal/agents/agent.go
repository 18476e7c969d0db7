// Package agents implements the metadata-agent interface described in
// §4.C: stateless providers of structured hints about a unit of media,
// invoked by the scan pipeline's Extract stage in Sidecar -> Embedded ->
// Local -> Remote order.
package agents

import (
	"context"
	"sort"
	"time"

	"nexamediaserver/internal/catalog"
)

// ExtractionUnit is the input to an agent: the matched group of files the
// scan pipeline's Match stage produced, plus the classification it assigned.
type ExtractionUnit struct {
	LibraryType   catalog.LibraryType
	IntendedType  catalog.MetadataType
	PrimaryPath   string
	Paths         []string
	ProbableTitle string
	ProbableYear  int
}

// PerformerHint is one performer/cast/crew credit surfaced by an agent.
type PerformerHint struct {
	Name     string
	Role     string
	Relation catalog.RelationType
	Order    int
}

// Hints is the canonical vocabulary agents populate, per §4.B step 5: title,
// sort variants, external ids, performers with roles, release info,
// classical-movement fields. Unset pointer/slice fields mean "this agent had
// no opinion" and must not clobber a previous agent's value during merge.
type Hints struct {
	Title         *string
	SortTitle     *string
	OriginalTitle *string
	Summary       *string
	Tagline       *string
	ContentRating *string
	ReleaseDate   *time.Time
	Year          *int
	Genres        []string
	Tags          []string
	ExternalIDs   map[string]string
	Performers    []PerformerHint

	// Classical movement fields (music libraries): composer, work, movement.
	Composer *string
	Work     *string
	Movement *string

	Extra map[string]any
}

// Agent is implemented by every sidecar/embedded/local/remote provider.
// Implementations must be stateless and safe for concurrent invocation.
type Agent interface {
	Name() string
	Category() catalog.AgentCategory
	DefaultOrder() int
	SupportsLibraryType(t catalog.LibraryType) bool
	Extract(ctx context.Context, unit ExtractionUnit) (Hints, error)
}

// Registry holds the configured agent set and orders them for extraction.
type Registry struct {
	agents []Agent
}

func NewRegistry(agents ...Agent) *Registry {
	return &Registry{agents: agents}
}

func (r *Registry) Register(a Agent) {
	r.agents = append(r.agents, a)
}

// ChainFor returns the agents applicable to libType, ordered Sidecar ->
// Embedded -> Local -> Remote, then by DefaultOrder within a category.
func (r *Registry) ChainFor(libType catalog.LibraryType) []Agent {
	categoryRank := make(map[catalog.AgentCategory]int, len(catalog.AgentCategoryOrder))
	for i, c := range catalog.AgentCategoryOrder {
		categoryRank[c] = i
	}

	var chain []Agent
	for _, a := range r.agents {
		if a.SupportsLibraryType(libType) {
			chain = append(chain, a)
		}
	}
	sort.SliceStable(chain, func(i, j int) bool {
		ci, cj := categoryRank[chain[i].Category()], categoryRank[chain[j].Category()]
		if ci != cj {
			return ci < cj
		}
		return chain[i].DefaultOrder() < chain[j].DefaultOrder()
	})
	return chain
}
