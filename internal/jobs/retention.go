package jobs

import (
	"context"
	"time"
)

// RetentionWorker purges terminal entries older than HistoryRetentionDays,
// the scheduled cleanup job named in §4.E.
type RetentionWorker struct {
	Store             Store
	HistoryRetention  time.Duration
}

func NewRetentionWorker(store Store, historyRetentionDays int) *RetentionWorker {
	if historyRetentionDays <= 0 {
		historyRetentionDays = 7
	}
	return &RetentionWorker{Store: store, HistoryRetention: time.Duration(historyRetentionDays) * 24 * time.Hour}
}

func (w *RetentionWorker) Name() Type { return TypeNotificationPurge }

func (w *RetentionWorker) Run(ctx context.Context, entry *Entry, reporter *Reporter) error {
	cutoff := now().Add(-w.HistoryRetention)
	purged, err := w.Store.PurgeTerminalOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	reporter.Report(ctx, int(purged), int(purged))
	return nil
}
