// Package jobs implements the persistent job queue and notification fan-out
// described in §4.E: background work items scoped to a library section or
// item, with one active entry per (library-section, job-type) and progress
// flushed to subscribers at a configured interval.
//
// The scheduling loop is grounded on the teacher's services/scheduler
// package (a mutex-guarded map of jobs + time.AfterFunc timers), generalized
// from named recurring jobs to ad-hoc, persisted work items.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/logger"
)

// Type enumerates the job kinds named in §4.E.
type Type string

const (
	TypeLibraryScan        Type = "LibraryScan"
	TypeMetadataRefresh    Type = "MetadataRefresh"
	TypeFileAnalysis       Type = "FileAnalysis"
	TypeImageGeneration    Type = "ImageGeneration"
	TypeTrickplayGen       Type = "TrickplayGeneration"
	TypeNotificationPurge  Type = "NotificationPurge"
)

// Status is the lifecycle of a JobNotificationEntry.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Entry is the JobNotificationEntry entity from §3.
type Entry struct {
	ID               string
	LibrarySectionID *uint
	JobType          Type
	Status           Status
	Progress         float64
	Completed        int
	Total            int
	Error            string
	UpdatedAt        time.Time
	CreatedAt        time.Time
}

func (e Entry) scopeKey() scopeKey {
	var section uint
	if e.LibrarySectionID != nil {
		section = *e.LibrarySectionID
	}
	return scopeKey{section: section, jobType: e.JobType}
}

type scopeKey struct {
	section uint
	jobType Type
}

// Worker performs the actual work of one job instance. Implementations call
// Reporter.Report as they make progress and return an error on failure.
type Worker interface {
	Run(ctx context.Context, entry *Entry, reporter *Reporter) error
}

// Reporter accumulates progress in memory and flushes to the store and
// subscribers at FlushInterval, per §4.E. Completion always flushes
// immediately regardless of the interval.
type Reporter struct {
	mu            sync.Mutex
	entry         *Entry
	store         Store
	bus           *Bus
	flushInterval time.Duration
	lastFlush     time.Time
}

func newReporter(entry *Entry, store Store, bus *Bus, flushInterval time.Duration) *Reporter {
	return &Reporter{entry: entry, store: store, bus: bus, flushInterval: flushInterval}
}

// Report records completed/total progress, flushing immediately if the
// interval has elapsed since the last flush.
func (r *Reporter) Report(ctx context.Context, completed, total int) {
	r.mu.Lock()
	r.entry.Completed = completed
	r.entry.Total = total
	if total > 0 {
		r.entry.Progress = float64(completed) / float64(total) * 100
	}
	r.entry.UpdatedAt = now()
	due := now().Sub(r.lastFlush) >= r.flushInterval
	r.mu.Unlock()

	if due {
		r.flush(ctx)
	}
}

func (r *Reporter) flush(ctx context.Context) {
	r.mu.Lock()
	snapshot := *r.entry
	r.lastFlush = now()
	r.mu.Unlock()

	if err := r.store.Upsert(ctx, &snapshot); err != nil {
		logger.FromContext(ctx).Error().Err(err).Str("jobId", snapshot.ID).Msg("flushing job progress failed")
	}
	r.bus.Publish(snapshot)
}

func (r *Reporter) finish(ctx context.Context, status Status, failErr error) {
	r.mu.Lock()
	r.entry.Status = status
	r.entry.UpdatedAt = now()
	if failErr != nil {
		r.entry.Error = failErr.Error()
	}
	if status == StatusSucceeded {
		r.entry.Progress = 100
		r.entry.Completed = r.entry.Total
	}
	r.mu.Unlock()
	r.flush(ctx)
}

// Store persists Entry rows. GormStore (store_gorm.go) satisfies this in
// production; MemoryStore is used in tests.
type Store interface {
	Upsert(ctx context.Context, entry *Entry) error
	FindActive(ctx context.Context, section *uint, jobType Type) (*Entry, error)
	ListActive(ctx context.Context) ([]Entry, error)
	PurgeTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Bus fans out entry updates to per-user subscriber channels, per §4.E:
// "bootstrapping a new subscriber first delivers all currently active
// entries, then live updates."
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan Entry
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Entry)}
}

// Subscribe registers a channel for userID and returns it along with an
// unsubscribe function. Active entries must be sent by the caller (the
// Scheduler) immediately after subscribing, via ListActive.
func (b *Bus) Subscribe(userID string) (<-chan Entry, func()) {
	ch := make(chan Entry, 32)
	b.mu.Lock()
	b.subs[userID] = ch
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, userID)
		b.mu.Unlock()
		close(ch)
	}
}

// Publish fans entry out to every subscriber, non-blocking: a slow
// subscriber drops updates rather than stalling the reporter.
func (b *Bus) Publish(entry Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Scheduler is the process-wide job queue: register a Worker per job type,
// Submit enqueues a scoped job instance respecting the one-active-per-scope
// invariant, and a background goroutine runs each submitted entry to
// completion.
type Scheduler struct {
	mu            sync.Mutex
	workers       map[Type]Worker
	active        map[scopeKey]string
	store         Store
	bus           *Bus
	flushInterval time.Duration

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func NewScheduler(store Store, bus *Bus, flushInterval time.Duration) *Scheduler {
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		workers:       make(map[Type]Worker),
		active:        make(map[scopeKey]string),
		store:         store,
		bus:           bus,
		flushInterval: flushInterval,
		ctx:           ctx,
		cancelFunc:    cancel,
	}
}

func (s *Scheduler) RegisterWorker(t Type, w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[t] = w
}

// Submit enqueues a job for (section, jobType). If one is already
// Pending/Running for that scope, its id is returned instead of starting a
// new one, per the uniqueness invariant in §3.
func (s *Scheduler) Submit(ctx context.Context, section *uint, jobType Type) (string, error) {
	key := scopeKey{jobType: jobType}
	if section != nil {
		key.section = *section
	}

	s.mu.Lock()
	if id, ok := s.active[key]; ok {
		s.mu.Unlock()
		return id, nil
	}
	worker, ok := s.workers[jobType]
	if !ok {
		s.mu.Unlock()
		return "", apperrors.Newf(apperrors.InvalidArgument, "no worker registered for job type %s", jobType)
	}

	entry := &Entry{
		ID:               uuid.NewString(),
		LibrarySectionID: section,
		JobType:          jobType,
		Status:           StatusPending,
		CreatedAt:        now(),
		UpdatedAt:        now(),
	}
	s.active[key] = entry.ID
	s.mu.Unlock()

	if err := s.store.Upsert(ctx, entry); err != nil {
		s.mu.Lock()
		delete(s.active, key)
		s.mu.Unlock()
		return "", err
	}
	s.bus.Publish(*entry)

	s.wg.Add(1)
	go s.run(key, entry, worker)

	return entry.ID, nil
}

func (s *Scheduler) run(key scopeKey, entry *Entry, worker Worker) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.active, key)
		s.mu.Unlock()
	}()

	reporter := newReporter(entry, s.store, s.bus, s.flushInterval)

	entry.Status = StatusRunning
	entry.UpdatedAt = now()
	reporter.flush(s.ctx)

	err := worker.Run(s.ctx, entry, reporter)
	switch {
	case s.ctx.Err() != nil:
		reporter.finish(s.ctx, StatusCancelled, nil)
	case err != nil:
		logger.FromContext(s.ctx).Error().Err(err).Str("jobId", entry.ID).Str("jobType", string(entry.JobType)).Msg("job failed")
		reporter.finish(s.ctx, StatusFailed, err)
	default:
		reporter.finish(s.ctx, StatusSucceeded, nil)
	}
}

// Bootstrap subscribes userID to the bus and synchronously sends every
// currently active entry before returning the live channel, satisfying the
// "bootstrap then live updates" ordering from §4.E.
func (s *Scheduler) Bootstrap(ctx context.Context, userID string) (<-chan Entry, func(), error) {
	ch, unsub := s.bus.Subscribe(userID)
	active, err := s.store.ListActive(ctx)
	if err != nil {
		unsub()
		return nil, nil, err
	}
	for _, e := range active {
		select {
		case ch <- e:
		default:
		}
	}
	return ch, unsub, nil
}

// Stop cancels all running jobs and waits for them to observe cancellation.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

// now is a seam so tests can stub wall-clock time if needed.
var now = time.Now
