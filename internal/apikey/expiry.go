package apikey

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

func runExpiryOnce(ctx context.Context, svc Service) {
	n, err := svc.ExpireKeys(ctx)
	if err != nil {
		log.Error().Err(err).Msg("API key expiry sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int("revoked", n).Msg("expired API keys revoked")
	}
}

// StartExpiryWorker sweeps expired keys once at startup and then every
// interval until ctx is cancelled.
func StartExpiryWorker(ctx context.Context, svc Service, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		runExpiryOnce(ctx, svc)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runExpiryOnce(ctx, svc)
			}
		}
	}()
}
