// Package projection rebuilds read models from the event log.
package projection

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"computegate/internal/db"
	"computegate/internal/events"
)

// Projector folds one aggregate stream and writes its summary row.
type Projector interface {
	AggregateType() string
	Project(ctx context.Context, id string, evs []db.Event) error
}

// Rebuilder replays every stream in the log through its projector.
type Rebuilder struct {
	store      events.Store
	locks      *events.KeyedMutex
	projectors map[string]Projector
	workers    int
}

func NewRebuilder(store events.Store, locks *events.KeyedMutex, projectors ...Projector) *Rebuilder {
	r := &Rebuilder{
		store:      store,
		locks:      locks,
		projectors: make(map[string]Projector, len(projectors)),
		workers:    4,
	}
	for _, p := range projectors {
		r.projectors[p.AggregateType()] = p
	}
	return r
}

type stream struct {
	id        string
	projector Projector
}

// RebuildAll rewrites the summary of every aggregate in the log and returns
// how many were rebuilt. Each stream is re-read under its aggregate lock so
// a concurrent write is never overwritten by an older fold.
func (r *Rebuilder) RebuildAll(ctx context.Context) (int, error) {
	all, err := r.store.GetAllEvents(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	var streams []stream
	for _, ev := range all {
		if seen[ev.AggregateID] {
			continue
		}
		seen[ev.AggregateID] = true

		p, ok := r.projectors[ev.AggregateType]
		if !ok {
			log.Warn().Str("aggregate_type", ev.AggregateType).Str("aggregate_id", ev.AggregateID).Msg("no projector for aggregate type, skipping")
			continue
		}
		streams = append(streams, stream{id: ev.AggregateID, projector: p})
	}

	var rebuilt atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, s := range streams {
		s := s
		g.Go(func() error {
			if err := r.rebuildOne(gctx, s); err != nil {
				return errors.Wrapf(err, "failed to rebuild %s %s", s.projector.AggregateType(), s.id)
			}
			rebuilt.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(rebuilt.Load()), err
}

func (r *Rebuilder) rebuildOne(ctx context.Context, s stream) error {
	unlock := r.locks.Lock(s.id)
	defer unlock()

	evs, err := r.store.GetEvents(ctx, s.id)
	if err != nil {
		return err
	}
	return s.projector.Project(ctx, s.id, evs)
}
