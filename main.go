package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"computegate/internal/apikey"
	"computegate/internal/compute"
	"computegate/internal/config"
	"computegate/internal/db"
	"computegate/internal/events"
	apphttp "computegate/internal/http"
	"computegate/internal/logging"
	"computegate/internal/metrics"
	"computegate/internal/preset"
	"computegate/internal/projection"
	"computegate/internal/session"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := events.NewGormStore(sqlDB)
	locks := &events.KeyedMutex{}

	keyRepo := db.NewAPIKeyRepository(sqlDB)
	presetRepo := db.NewPresetRepository(sqlDB)
	computeRepo := db.NewComputeRepository(sqlDB)
	sessionRepo := db.NewSessionRepository(sqlDB)

	tracker := apikey.NewUsageTracker(store, keyRepo, locks, cfg.UsageQueueSize)
	go tracker.Run(ctx)

	keys := apikey.NewService(store, keyRepo, locks,
		apikey.WithBcryptCost(cfg.BcryptCost),
		apikey.WithUsageTracker(tracker),
	)
	computes := compute.NewService(store, computeRepo, locks)
	rebuilder := projection.NewRebuilder(store, locks,
		apikey.NewProjector(keyRepo),
		preset.NewProjector(presetRepo),
		compute.NewProjector(computeRepo),
		session.NewProjector(sessionRepo),
	)

	if cfg.BootstrapAPIKey != "" {
		k, err := keys.EnsureBootstrapKey(ctx, cfg.BootstrapAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to ensure bootstrap API key")
		}
		log.Info().Str("api_key_id", k.ID).Msg("bootstrap API key configured")
	}

	apikey.StartExpiryWorker(ctx, keys, cfg.ExpirySweepInterval)
	projection.StartReconcileWorker(ctx, rebuilder, cfg.ReconcileInterval)

	srv := &fasthttp.Server{
		Name: "computegate",
		Handler: apphttp.NewHandler(apphttp.Deps{
			Keys:      keys,
			Presets:   preset.NewService(store, presetRepo, locks),
			Computes:  computes,
			Sessions:  session.NewService(store, sessionRepo, computes, locks),
			Store:     store,
			Rebuilder: rebuilder,
			Gatherer:  prometheus.DefaultGatherer,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := srv.ShutdownWithContext(context.Background()); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("computegate listening")
	if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
