package scan

import "context"

// KnownPartLookup answers whether a candidate already matches a persisted
// MediaPart's (path, size, mtime), the fast-path dedup described in §4.B
// step 2. catalog.MediaPartRepository.FindUnchanged implements this.
type KnownPartLookup interface {
	FindUnchanged(path string, size int64, modTime int64) (bool, error)
}

// FilterResult routes a candidate to either the "known" (unchanged,
// pass-through) or "changed" (new/modified, onward for extraction) stream.
type FilterResult struct {
	Candidate Candidate
	Changed   bool
}

// Filter drops files whose path+mtime+size match an existing persisted
// MediaPart, unless forceRehash is set, per §4.B step 2.
func Filter(lookup KnownPartLookup, forceRehash bool) Stage[Candidate, FilterResult] {
	return func(ctx context.Context, in <-chan Candidate, progress *Progress) (<-chan FilterResult, error) {
		out := make(chan FilterResult, 256)
		go func() {
			defer close(out)
			processed := 0
			for c := range in {
				if ctx.Err() != nil {
					return
				}
				changed := true
				if !forceRehash {
					unchanged, err := lookup.FindUnchanged(c.Path, c.Size, c.ModTime)
					if err == nil && unchanged {
						changed = false
					}
				}
				select {
				case out <- FilterResult{Candidate: c, Changed: changed}:
					processed++
					progress.Report("Filter", processed, 0)
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}
