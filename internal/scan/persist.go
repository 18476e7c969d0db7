package scan

import (
	"context"
	"sync"
	"time"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/jobs"
)

// PartLookup adapts catalog.MediaPartRepository to the scan package's
// KnownPartLookup, converting the nanosecond timestamps Discover produces
// to the time.Time the repository stores.
type PartLookup struct {
	Repo catalog.MediaPartRepository
}

func (l PartLookup) FindUnchanged(path string, size int64, modTime int64) (bool, error) {
	_, ok, err := l.Repo.FindUnchanged(context.Background(), path, size, time.Unix(0, modTime))
	return ok, err
}

// Downstream enqueues the jobs a freshly-persisted item should trigger, per
// §4.B step 7 (trickplay generation for video, image generation for
// anything with new artwork hints).
type Downstream interface {
	EnqueueTrickplay(ctx context.Context, librarySectionID uint, itemID uint64) error
	EnqueueImageGeneration(ctx context.Context, librarySectionID uint, itemID uint64) error
}

// Persist writes each Normalized unit's item and MediaParts, serialized per
// library section (a single writer per section avoids lock contention
// between concurrent section scans while letting different sections persist
// concurrently), retrying the catalog transaction once before failing the
// unit outright, per §4.B step 7 and §5's retry-once-then-fail rule.
type Persist struct {
	Items            catalog.ItemRepository
	Parts            catalog.MediaPartRepository
	LibrarySectionID uint
	LibraryType      catalog.LibraryType
	Downstream       Downstream

	mu sync.Mutex
}

// Outcome records one unit's persistence result for the pipeline's final
// summary.
type Outcome struct {
	Paths []string
	ItemID uint64
	Err   error
}

func (p *Persist) Run(ctx context.Context, in <-chan Normalized, progress *Progress) (<-chan Outcome, error) {
	out := make(chan Outcome, 64)
	go func() {
		defer close(out)
		processed := 0
		for n := range in {
			if ctx.Err() != nil {
				return
			}
			outcome := p.persistOne(ctx, n)
			select {
			case out <- outcome:
				processed++
				progress.Report("Persist", processed, 0)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (p *Persist) persistOne(ctx context.Context, n Normalized) Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	n.Item.LibrarySectionID = uint64(p.LibrarySectionID)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := p.Items.Create(ctx, n.Item); err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return Outcome{Paths: n.Paths, Err: apperrors.Wrap(apperrors.Internal, lastErr, "persisting catalog item")}
	}

	for _, path := range n.Paths {
		part := &catalog.MediaPart{ItemID: n.Item.ID, Path: path}
		if err := p.Parts.Upsert(ctx, part); err != nil {
			return Outcome{Paths: n.Paths, ItemID: n.Item.ID, Err: err}
		}
	}

	if p.Downstream != nil {
		if catalogLibraryIsVideo(p.LibraryType) {
			_ = p.Downstream.EnqueueTrickplay(ctx, p.LibrarySectionID, n.Item.ID)
		}
		_ = p.Downstream.EnqueueImageGeneration(ctx, p.LibrarySectionID, n.Item.ID)
	}

	return Outcome{Paths: n.Paths, ItemID: n.Item.ID}
}

func catalogLibraryIsVideo(t catalog.LibraryType) bool {
	switch t {
	case catalog.LibraryMovies, catalog.LibraryTVShows, catalog.LibraryMusicVideos, catalog.LibraryHomeVideos:
		return true
	default:
		return false
	}
}

// schedulerDownstream is the production Downstream backed by the job
// scheduler.
type schedulerDownstream struct {
	scheduler *jobs.Scheduler
}

func NewSchedulerDownstream(scheduler *jobs.Scheduler) Downstream {
	return &schedulerDownstream{scheduler: scheduler}
}

func (d *schedulerDownstream) EnqueueTrickplay(ctx context.Context, librarySectionID uint, itemID uint64) error {
	_, err := d.scheduler.Submit(ctx, &librarySectionID, jobs.TypeTrickplayGen)
	return err
}

func (d *schedulerDownstream) EnqueueImageGeneration(ctx context.Context, librarySectionID uint, itemID uint64) error {
	_, err := d.scheduler.Submit(ctx, &librarySectionID, jobs.TypeImageGeneration)
	return err
}
