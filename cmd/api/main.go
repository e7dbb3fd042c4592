package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gigagivry/internal/app"
	"gigagivry/internal/auth"
	"gigagivry/internal/catalog"
	"gigagivry/internal/config"
	"gigagivry/pkg/logger"
)

var buildVersion = "dev"

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
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn().Err(err).Msg("close durable store")
		}
	}()

	srv := &server{
		games:     svc.Games,
		giveaways: svc.Giveaways,
		watchlist: svc.Watchlist,
		sessions:  auth.NewService(cfg.AppSecret),
		fetcher:   svc.Fetcher,
		pageSize:  cfg.PageSize,
		adminHash: cfg.AdminTokenHash,
		log:       log,
	}
	if cfg.AdminTokenHash == "" {
		log.Warn().Msg("ADMIN_TOKEN_HASH not set, admin routes disabled")
	}

	go warmLoop(ctx, svc, cfg, log)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", httpSrv.Addr).Str("version", buildVersion).Int("relays", len(cfg.Relays)).Msg("api listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("api stopped")
}

// warmLoop prefetches the default listings at start and then every
// WarmInterval, when those are enabled.
func warmLoop(ctx context.Context, svc *app.Services, cfg config.Config, log zerolog.Logger) {
	warm := func() {
		if err := catalog.Warm(ctx, svc.Games, svc.Giveaways, log); err != nil {
			log.Warn().Err(err).Msg("warm incomplete")
		}
	}
	if cfg.WarmOnStart {
		warm()
	}
	if cfg.WarmInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.WarmInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			warm()
		}
	}
}
