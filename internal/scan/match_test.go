package scan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/scan"
)

func drainClassified(t *testing.T, items ...scan.Classified) <-chan scan.Classified {
	t.Helper()
	ch := make(chan scan.Classified, len(items))
	for _, i := range items {
		ch <- i
	}
	close(ch)
	return ch
}

func TestMatchGroupsEpisodesByShowAndSeason(t *testing.T) {
	in := drainClassified(t,
		scan.Classified{Candidate: scan.Candidate{Path: "/tv/Show/Season 01/S01E01.mkv"}, LibraryType: catalog.LibraryTVShows, IntendedType: catalog.TypeEpisode, ShowName: "Show", Season: 1},
		scan.Classified{Candidate: scan.Candidate{Path: "/tv/Show/Season 01/S01E02.mkv"}, LibraryType: catalog.LibraryTVShows, IntendedType: catalog.TypeEpisode, ShowName: "Show", Season: 1},
		scan.Classified{Candidate: scan.Candidate{Path: "/movies/Arrival (2016).mkv"}, LibraryType: catalog.LibraryMovies, IntendedType: catalog.TypeMovie},
	)

	out, err := scan.Match(context.Background(), in, scan.NewProgress(nil))
	require.NoError(t, err)

	var units []scan.Unit
	for u := range out {
		units = append(units, u)
	}

	require.Len(t, units, 2, "one movie unit plus one grouped-episode unit")

	var episodeUnit, movieUnit *scan.Unit
	for i := range units {
		if units[i].IntendedType == catalog.TypeEpisode {
			episodeUnit = &units[i]
		} else {
			movieUnit = &units[i]
		}
	}
	require.NotNil(t, episodeUnit)
	require.NotNil(t, movieUnit)
	assert.Len(t, episodeUnit.Paths, 2)
	assert.Equal(t, "Show", episodeUnit.ShowName)
	assert.Len(t, movieUnit.Paths, 1)
}

func TestMatchRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := drainClassified(t, scan.Classified{Candidate: scan.Candidate{Path: "/a.mkv"}, IntendedType: catalog.TypeMovie})
	out, err := scan.Match(ctx, in, scan.NewProgress(nil))
	require.NoError(t, err)

	_, ok := <-out
	assert.False(t, ok, "cancelled context must close the output channel without emitting")
}
