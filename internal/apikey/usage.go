package apikey

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"computegate/internal/db"
	"computegate/internal/events"
	"computegate/internal/metrics"
)

// UsageTracker records successful authentications off the request path. Items
// wait in a bounded queue drained by Run; when the queue is full new items are
// dropped and counted.
type UsageTracker struct {
	queue chan string
	store events.Store
	repo  *db.APIKeyRepository
	locks *events.KeyedMutex
}

// NewUsageTracker shares locks with the Service so usage records and
// revocations of the same key are serialised.
func NewUsageTracker(store events.Store, repo *db.APIKeyRepository, locks *events.KeyedMutex, size int) *UsageTracker {
	if size <= 0 {
		size = 1
	}
	return &UsageTracker{
		queue: make(chan string, size),
		store: store,
		repo:  repo,
		locks: locks,
	}
}

// Track enqueues a usage record for key id without blocking. It reports
// whether the record was accepted.
func (t *UsageTracker) Track(id string) bool {
	select {
	case t.queue <- id:
		return true
	default:
		metrics.UsageEventsDropped.Inc()
		log.Debug().Str("api_key_id", id).Msg("usage queue full, dropping update")
		return false
	}
}

// Run consumes the queue until ctx is cancelled. Errors are logged and never
// reach the request that triggered them.
func (t *UsageTracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-t.queue:
			if err := t.record(ctx, id); err != nil {
				log.Warn().Err(err).Str("api_key_id", id).Msg("failed to record API key usage")
			}
		}
	}
}

func (t *UsageTracker) record(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	unlock := t.locks.Lock(id)
	defer unlock()

	ev, err := t.store.Append(ctx, id, pending(Used{}))
	if err != nil {
		return err
	}
	return t.repo.UpdateLastUsed(ctx, id, ev.Timestamp)
}
