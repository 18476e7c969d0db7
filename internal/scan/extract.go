package scan

import (
	"context"

	"nexamediaserver/internal/agents"
	"nexamediaserver/internal/catalog"
)

// Extraction pairs a matched unit with the ordered per-agent hints collected
// for it, ready for Normalize (§4.B step 5).
type Extraction struct {
	Unit        Unit
	OrderedHints []agents.Hints
}

// Extract runs registry.ChainFor(libType) over every matched unit, feeding
// each agent's title/year output forward as the ProbableTitle/ProbableYear
// seed for the agents after it (Local fills the seed Remote search uses),
// per §4.B step 5. An agent that errors contributes no hints for that unit
// and extraction continues with the remaining agents.
func Extract(registry *agents.Registry, libType catalog.LibraryType) Stage[Unit, Extraction] {
	chain := registry.ChainFor(libType)
	return func(ctx context.Context, in <-chan Unit, progress *Progress) (<-chan Extraction, error) {
		out := make(chan Extraction, 64)
		go func() {
			defer close(out)
			processed := 0
			for u := range in {
				if ctx.Err() != nil {
					return
				}
				extraction := Extraction{Unit: u}
				extractUnit := u.ToExtractionUnit()

				for _, agent := range chain {
					if ctx.Err() != nil {
						return
					}
					hints, err := agent.Extract(ctx, extractUnit)
					if err != nil {
						continue
					}
					extraction.OrderedHints = append(extraction.OrderedHints, hints)

					if hints.Title != nil && extractUnit.ProbableTitle == "" {
						extractUnit.ProbableTitle = *hints.Title
					}
					if hints.Year != nil && extractUnit.ProbableYear == 0 {
						extractUnit.ProbableYear = *hints.Year
					}
				}

				select {
				case out <- extraction:
					processed++
					progress.Report("Extract", processed, 0)
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}
