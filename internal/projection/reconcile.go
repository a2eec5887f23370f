package projection

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

func runReconcileOnce(ctx context.Context, r *Rebuilder) {
	start := time.Now()
	n, err := r.RebuildAll(ctx)
	if err != nil {
		log.Error().Err(err).Int("rebuilt", n).Msg("projection reconcile failed")
		return
	}
	log.Info().Int("rebuilt", n).Dur("took", time.Since(start)).Msg("projections reconciled")
}

// StartReconcileWorker rebuilds all projections every interval until ctx is
// cancelled, repairing rows left stale by failed best-effort writes. A zero
// interval disables it.
func StartReconcileWorker(ctx context.Context, r *Rebuilder, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runReconcileOnce(ctx, r)
			}
		}
	}()
}
