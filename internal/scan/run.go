package scan

import (
	"context"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
)

// RunOptions configures one end-to-end library scan, composing every stage
// from Discover through Persist, per §4.B.
type RunOptions struct {
	Roots       []string
	LibraryType catalog.LibraryType
	ForceRehash bool

	Lookup   KnownPartLookup
	Registry *agents.Registry
	GenreMap agents.GenreMap
	TagPolicy agents.TagPolicy
	Persist  *Persist

	OnProgress func(stage string, processed, total int)
}

// Summary totals a completed scan's outcomes.
type Summary struct {
	ItemsPersisted int
	Failures       []Outcome
}

// Run wires Discover -> Filter -> Classify -> Match -> Extract -> Normalize
// -> Persist into one pipeline and drains it to completion, returning a
// Summary once every unit has either been persisted or failed. Cancelling
// ctx stops the walk and drains whatever is already in flight.
func Run(ctx context.Context, opts RunOptions) (Summary, error) {
	progress := NewProgress(opts.OnProgress)

	candidates, err := Discover(ctx, opts.Roots, progress)
	if err != nil {
		return Summary{}, err
	}
	filtered, err := Filter(opts.Lookup, opts.ForceRehash)(ctx, candidates, progress)
	if err != nil {
		return Summary{}, err
	}
	classified, err := Classify(opts.LibraryType)(ctx, filtered, progress)
	if err != nil {
		return Summary{}, err
	}
	matched, err := Match(ctx, classified, progress)
	if err != nil {
		return Summary{}, err
	}
	extracted, err := Extract(opts.Registry, opts.LibraryType)(ctx, matched, progress)
	if err != nil {
		return Summary{}, err
	}
	normalized, err := Normalize(opts.GenreMap, opts.TagPolicy, uint64(opts.Persist.LibrarySectionID))(ctx, extracted, progress)
	if err != nil {
		return Summary{}, err
	}
	outcomes, err := opts.Persist.Run(ctx, normalized, progress)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for outcome := range outcomes {
		if outcome.Err != nil {
			summary.Failures = append(summary.Failures, outcome)
			continue
		}
		summary.ItemsPersisted++
	}
	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}
