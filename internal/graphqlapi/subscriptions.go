package graphqlapi

import (
	"context"
	"sync"

	"nexamediaserver/internal/catalog"
	"nexamediaserver/internal/jobs"
)

// itemUpdateBus fans out updated items to subscribers, the onMetadataItemUpdated
// subscription, built the same non-blocking-publish way jobs.Bus fans out
// job notifications.
type itemUpdateBus struct {
	mu   sync.Mutex
	subs map[int]chan catalog.MetadataItem
	next int
}

func newItemUpdateBus() *itemUpdateBus {
	return &itemUpdateBus{subs: make(map[int]chan catalog.MetadataItem)}
}

func (b *itemUpdateBus) subscribe() (<-chan catalog.MetadataItem, func()) {
	ch := make(chan catalog.MetadataItem, 16)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}
}

func (b *itemUpdateBus) publish(item catalog.MetadataItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- item:
		default:
		}
	}
}

// OnMetadataItemUpdated streams items as they're mutated by updateMetadataItem,
// lockMetadataFields, unlockMetadataFields, promoteItem, or unpromoteItem.
func (r *Resolver) OnMetadataItemUpdated(ctx context.Context) (<-chan catalog.MetadataItem, func()) {
	return r.itemUpdates.subscribe()
}

// OnJobNotification streams job progress for userID, bootstrapping with
// every currently active entry before live updates, per §4.E.
func (r *Resolver) OnJobNotification(ctx context.Context, userID string) (<-chan jobs.Entry, func(), error) {
	return r.Scheduler.Bootstrap(ctx, userID)
}
