package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigagivry/internal/app"
	"gigagivry/internal/catalog"
	"gigagivry/internal/config"
	"gigagivry/pkg/logger"
)

// prefetch fills the durable tier with the default listings, e.g. from a
// cron job before traffic arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("invalid config")
	}
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	start := time.Now()
	log.Info().Str("driver", string(cfg.StoreDriver)).Msg("prefetch starting")
	err = catalog.Warm(ctx, svc.Games, svc.Giveaways, log)
	if cerr := svc.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("close durable store")
	}
	if err != nil {
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("prefetch failed")
		os.Exit(1)
	}
	log.Info().Dur("took", time.Since(start)).Msg("prefetch completed")
}
