package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/jobs"
)

type fakeWorker struct {
	fail   error
	delay  time.Duration
	report func(r *jobs.Reporter)
}

func (w fakeWorker) Run(ctx context.Context, entry *jobs.Entry, r *jobs.Reporter) error {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	if w.report != nil {
		w.report(r)
	}
	return w.fail
}

func waitForTerminal(t *testing.T, store *jobs.MemoryStore, id string) jobs.Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		active, _ := store.ListActive(context.Background())
		found := false
		for _, e := range active {
			if e.ID == id {
				found = true
			}
		}
		if !found {
			// terminal entries aren't returned by ListActive; fetch via FindActive miss + assume flushed
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	active, _ := store.ListActive(context.Background())
	for _, e := range active {
		if e.ID == id {
			t.Fatal("job never reached terminal state")
		}
	}
	return jobs.Entry{}
}

// terminalStatus reads published entries until job id reaches a terminal
// status and returns that status.
func terminalStatus(t *testing.T, ch <-chan jobs.Entry, id string) jobs.Status {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed before the job finished")
			}
			if e.ID == id && e.Status.Terminal() {
				return e.Status
			}
		case <-timeout:
			t.Fatal("no terminal status published")
		}
	}
}

func TestSubmitRunsWorkerAndReachesSucceeded(t *testing.T) {
	store := jobs.NewMemoryStore()
	bus := jobs.NewBus()
	updates, unsub := bus.Subscribe("test")
	defer unsub()
	sched := jobs.NewScheduler(store, bus, 10*time.Millisecond)
	sched.RegisterWorker(jobs.TypeFileAnalysis, fakeWorker{report: func(r *jobs.Reporter) {
		r.Report(context.Background(), 1, 1)
	}})

	id, err := sched.Submit(context.Background(), nil, jobs.TypeFileAnalysis)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	waitForTerminal(t, store, id)
	assert.Equal(t, jobs.StatusSucceeded, terminalStatus(t, updates, id))
	sched.Stop()
}

func TestSubmitDeduplicatesActiveScope(t *testing.T) {
	store := jobs.NewMemoryStore()
	bus := jobs.NewBus()
	sched := jobs.NewScheduler(store, bus, 10*time.Millisecond)
	sched.RegisterWorker(jobs.TypeLibraryScan, fakeWorker{delay: 200 * time.Millisecond})

	section := uint(1)
	id1, err := sched.Submit(context.Background(), &section, jobs.TypeLibraryScan)
	require.NoError(t, err)
	id2, err := sched.Submit(context.Background(), &section, jobs.TypeLibraryScan)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	sched.Stop()
}

func TestSubmitUnregisteredWorkerFails(t *testing.T) {
	store := jobs.NewMemoryStore()
	bus := jobs.NewBus()
	sched := jobs.NewScheduler(store, bus, 10*time.Millisecond)

	_, err := sched.Submit(context.Background(), nil, jobs.TypeImageGeneration)
	assert.Error(t, err)
}

func TestFailedWorkerMarksEntryFailed(t *testing.T) {
	store := jobs.NewMemoryStore()
	bus := jobs.NewBus()
	updates, unsub := bus.Subscribe("test")
	defer unsub()
	sched := jobs.NewScheduler(store, bus, 5*time.Millisecond)
	sched.RegisterWorker(jobs.TypeMetadataRefresh, fakeWorker{fail: errors.New("boom")})

	id, err := sched.Submit(context.Background(), nil, jobs.TypeMetadataRefresh)
	require.NoError(t, err)
	waitForTerminal(t, store, id)
	assert.Equal(t, jobs.StatusFailed, terminalStatus(t, updates, id))
	sched.Stop()
}

func TestRetentionWorkerPurgesOldTerminalEntries(t *testing.T) {
	store := jobs.NewMemoryStore()
	old := jobs.Entry{ID: "old", JobType: jobs.TypeLibraryScan, Status: jobs.StatusSucceeded, UpdatedAt: time.Now().Add(-30 * 24 * time.Hour)}
	recent := jobs.Entry{ID: "recent", JobType: jobs.TypeLibraryScan, Status: jobs.StatusSucceeded, UpdatedAt: time.Now()}
	require.NoError(t, store.Upsert(context.Background(), &old))
	require.NoError(t, store.Upsert(context.Background(), &recent))

	purged, err := store.PurgeTerminalOlderThan(context.Background(), time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	bus := jobs.NewBus()
	sched := jobs.NewScheduler(store, bus, 5*time.Millisecond)
	sched.RegisterWorker(jobs.TypeNotificationPurge, jobs.NewRetentionWorker(store, 7))
	id, err := sched.Submit(context.Background(), nil, jobs.TypeNotificationPurge)
	require.NoError(t, err)
	waitForTerminal(t, store, id)
	sched.Stop()
}
