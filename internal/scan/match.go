package scan

import (
	"context"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
)

// Unit is the aggregate group of files that becomes one item graph, per
// §4.B step 4 (e.g. all files of a single movie; all tracks of an album
// medium).
type Unit struct {
	LibraryType  catalog.LibraryType
	IntendedType catalog.MetadataType
	Paths        []string
	ShowName     string
	Season       int
	PrimaryPath  string
}

// Match groups classified candidates into units. Episodes group by
// (ShowName, Season); everything else is one file per unit (movies,
// tracks, photos, ... each already resolve to one item per file in this
// implementation). Multi-part grouping, e.g. multi-CD albums, is not
// performed, here or in Normalize, which emits one item per unit.
func Match(ctx context.Context, in <-chan Classified, progress *Progress) (<-chan Unit, error) {
	out := make(chan Unit, 256)
	go func() {
		defer close(out)

		type groupKey struct {
			show   string
			season int
		}
		groups := make(map[groupKey]*Unit)
		var order []groupKey
		processed := 0

		for c := range in {
			if ctx.Err() != nil {
				return
			}
			if c.IntendedType == catalog.TypeEpisode {
				key := groupKey{show: c.ShowName, season: c.Season}
				u, ok := groups[key]
				if !ok {
					u = &Unit{LibraryType: c.LibraryType, IntendedType: c.IntendedType, ShowName: c.ShowName, Season: c.Season}
					groups[key] = u
					order = append(order, key)
				}
				u.Paths = append(u.Paths, c.Candidate.Path)
				if u.PrimaryPath == "" {
					u.PrimaryPath = c.Candidate.Path
				}
				continue
			}

			unit := Unit{
				LibraryType:  c.LibraryType,
				IntendedType: c.IntendedType,
				Paths:        []string{c.Candidate.Path},
				PrimaryPath:  c.Candidate.Path,
			}
			select {
			case out <- unit:
				processed++
				progress.Report("Match", processed, 0)
			case <-ctx.Done():
				return
			}
		}

		for _, key := range order {
			select {
			case out <- *groups[key]:
				processed++
				progress.Report("Match", processed, 0)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ToExtractionUnit adapts a scan Unit into the agents package's
// ExtractionUnit, the bridge between Match and Extract.
func (u Unit) ToExtractionUnit() agents.ExtractionUnit {
	return agents.ExtractionUnit{
		LibraryType:  u.LibraryType,
		IntendedType: u.IntendedType,
		PrimaryPath:  u.PrimaryPath,
		Paths:        u.Paths,
	}
}
