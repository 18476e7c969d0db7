package scan

import (
	"context"
	"path/filepath"
	"time"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
)

// Normalized is a built-but-unsaved item plus the file parts and credits
// that belong to it, ready for the Persist stage (§4.B step 7).
type Normalized struct {
	Item       *catalog.MetadataItem
	Paths      []string
	Performers []agents.PerformerHint
}

// Normalize folds a unit's ordered agent hints into one MetadataItem,
// canonicalizing genres and moderating tags per §4.B step 6. Normalize
// always builds a fresh item and passes Merge no lock set. Persist writes
// each unit as a new item; on a re-scan the existing item and its
// LockedFields are not loaded or updated.
func Normalize(genreMap agents.GenreMap, tagPolicy agents.TagPolicy, librarySectionID uint64) Stage[Extraction, Normalized] {
	return func(ctx context.Context, in <-chan Extraction, progress *Progress) (<-chan Normalized, error) {
		out := make(chan Normalized, 64)
		go func() {
			defer close(out)
			processed := 0
			for e := range in {
				if ctx.Err() != nil {
					return
				}

				merged := agents.Merge(e.OrderedHints, nil)
				if merged.Genres != nil {
					merged.Genres = genreMap.Canonicalize(merged.Genres)
				}
				if merged.Tags != nil {
					merged.Tags = tagPolicy.Apply(merged.Tags)
				}

				item := &catalog.MetadataItem{
					LibrarySectionID: librarySectionID,
					Type:             e.Unit.IntendedType,
					CreatedAt:        time.Now(),
					UpdatedAt:        time.Now(),
				}
				agents.ApplyHints(item, merged)
				if item.Title == "" {
					item.Title = fallbackTitle(e.Unit)
				}

				normalized := Normalized{
					Item:       item,
					Paths:      e.Unit.Paths,
					Performers: merged.Performers,
				}

				select {
				case out <- normalized:
					processed++
					progress.Report("Normalize", processed, 0)
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}

func fallbackTitle(u Unit) string {
	if u.ShowName != "" {
		return u.ShowName
	}
	if u.PrimaryPath != "" {
		return filepath.Base(u.PrimaryPath)
	}
	return "Unknown"
}
