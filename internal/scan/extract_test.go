package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/scan"
)

type stubExtractAgent struct {
	name     string
	category catalog.AgentCategory
	title    *string
	year     *int

	seenProbableTitle string
}

func (a *stubExtractAgent) Name() string                                { return a.name }
func (a *stubExtractAgent) Category() catalog.AgentCategory              { return a.category }
func (a *stubExtractAgent) DefaultOrder() int                            { return 0 }
func (a *stubExtractAgent) SupportsLibraryType(catalog.LibraryType) bool { return true }

func (a *stubExtractAgent) Extract(ctx context.Context, unit agents.ExtractionUnit) (agents.Hints, error) {
	a.seenProbableTitle = unit.ProbableTitle
	return agents.Hints{Title: a.title, Year: a.year}, nil
}

func TestExtractRunsChainAndSeedsProbableTitleForward(t *testing.T) {
	localTitle := "Arrival"
	localYear := 2016
	localAgent := &stubExtractAgent{name: "local", category: catalog.CategoryLocal, title: &localTitle, year: &localYear}
	remoteAgent := &stubExtractAgent{name: "remote", category: catalog.CategoryRemote}

	registry := agents.NewRegistry(remoteAgent, localAgent)
	stage := scan.Extract(registry, catalog.LibraryMovies)

	in := make(chan scan.Unit, 1)
	in <- scan.Unit{LibraryType: catalog.LibraryMovies, IntendedType: catalog.TypeMovie, PrimaryPath: "/movies/Arrival.2016.mkv", Paths: []string{"/movies/Arrival.2016.mkv"}}
	close(in)

	out, err := stage(context.Background(), in, scan.NewProgress(nil))
	require.NoError(t, err)

	var extractions []scan.Extraction
	for e := range out {
		extractions = append(extractions, e)
	}
	require.Len(t, extractions, 1)
	require.Len(t, extractions[0].OrderedHints, 2)
	assert.Equal(t, "Arrival", remoteAgent.seenProbableTitle, "local agent's title must seed the remote agent's search")
}

func TestExtractSkipsErroringAgentsWithoutAbortingTheChain(t *testing.T) {
	title := "Gone"
	ok := &stubExtractAgent{name: "ok", category: catalog.CategoryLocal, title: &title}
	registry := agents.NewRegistry(&erroringAgent{}, ok)
	stage := scan.Extract(registry, catalog.LibraryMovies)

	in := make(chan scan.Unit, 1)
	in <- scan.Unit{LibraryType: catalog.LibraryMovies, IntendedType: catalog.TypeMovie, PrimaryPath: "/movies/Gone.mkv"}
	close(in)

	out, err := stage(context.Background(), in, scan.NewProgress(nil))
	require.NoError(t, err)

	extraction := <-out
	require.Len(t, extraction.OrderedHints, 1, "the erroring agent contributes no hints")
	assert.Equal(t, "Gone", *extraction.OrderedHints[0].Title)
}

type erroringAgent struct{}

func (erroringAgent) Name() string                                { return "broken" }
func (erroringAgent) Category() catalog.AgentCategory              { return catalog.CategoryLocal }
func (erroringAgent) DefaultOrder() int                            { return -1 }
func (erroringAgent) SupportsLibraryType(catalog.LibraryType) bool { return true }
func (erroringAgent) Extract(context.Context, agents.ExtractionUnit) (agents.Hints, error) {
	return agents.Hints{}, errAgentFailed
}

var errAgentFailed = errors.New("agent failed")
