package scan

import (
	"context"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/jobs"
)

// Worker adapts Run to jobs.Worker, the entry point the job scheduler
// invokes for a TypeLibraryScan entry.
type Worker struct {
	Sections  catalog.LibrarySectionRepository
	Items     catalog.ItemRepository
	Parts     catalog.MediaPartRepository
	Registry  *agents.Registry
	GenreMap  agents.GenreMap
	TagPolicy agents.TagPolicy

	Downstream Downstream
}

func (w *Worker) Run(ctx context.Context, entry *jobs.Entry, reporter *jobs.Reporter) error {
	if entry.LibrarySectionID == nil {
		return apperrors.New(apperrors.InvalidArgument, "library scan requires a library section")
	}

	section, err := w.findSection(ctx, *entry.LibrarySectionID)
	if err != nil {
		return err
	}

	roots := make([]string, 0, len(section.Locations))
	for _, loc := range section.Locations {
		roots = append(roots, loc.Path)
	}

	persist := &Persist{
		Items:            w.Items,
		Parts:            w.Parts,
		LibrarySectionID: uint(section.ID),
		LibraryType:      section.Type,
		Downstream:       w.Downstream,
	}

	total := 0
	summary, runErr := Run(ctx, RunOptions{
		Roots:       roots,
		LibraryType: section.Type,
		Lookup:      PartLookup{Repo: w.Parts},
		Registry:    w.Registry,
		GenreMap:    w.GenreMap,
		TagPolicy:   w.TagPolicy,
		Persist:     persist,
		OnProgress: func(stage string, processed, totalHint int) {
			if totalHint > total {
				total = totalHint
			}
			reporter.Report(ctx, processed, total)
		},
	})
	if runErr != nil {
		return runErr
	}
	if len(summary.Failures) > 0 {
		return apperrors.Newf(apperrors.Internal, "%d of %d units failed to persist", len(summary.Failures), summary.ItemsPersisted+len(summary.Failures))
	}
	return nil
}

func (w *Worker) findSection(ctx context.Context, id uint64) (*catalog.LibrarySection, error) {
	sections, err := w.Sections.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.Newf(apperrors.NotFound, "library section %d not found", id)
}
