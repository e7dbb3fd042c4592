// Package app wires the long-lived services shared by every binary.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"gigagivry/internal/cache"
	"gigagivry/internal/catalog"
	"gigagivry/internal/config"
	"gigagivry/internal/db"
	"gigagivry/internal/inflight"
	"gigagivry/internal/kvstore"
	"gigagivry/internal/kvstore/postgres"
	"gigagivry/internal/kvstore/scylla"
	"gigagivry/internal/kvstore/sqlite"
	"gigagivry/internal/relay"
	"gigagivry/internal/watchlist"
)

type Services struct {
	Durable   kvstore.Store
	Cache     *cache.Store
	Tracker   *inflight.Tracker
	Fetcher   *relay.Fetcher
	Games     *catalog.Games
	Giveaways *catalog.Giveaways
	Watchlist *watchlist.Store

	close func() error
}

// Close releases the durable store.
func (s *Services) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the durable tier named by cfg.StoreDriver. The returned
// func closes it.
func OpenStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (kvstore.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return kvstore.NewMemory(cfg.MemoryQuotaBytes), func() error { return nil }, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s.Close, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, s.Close, nil
	case config.DriverScylla:
		session, err := db.ConnectScylla(db.ScyllaConfig{
			Hosts:       cfg.Scylla.Hosts,
			Port:        cfg.Scylla.Port,
			Keyspace:    cfg.Scylla.Keyspace,
			Consistency: cfg.Scylla.Consistency,
			Replication: cfg.Scylla.Replication,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open scylla store: %w", err)
		}
		s := scylla.New(session, cfg.Scylla.Keyspace)
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Build opens the durable store and constructs every service on top of it.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Services, error) {
	durable, closeFn, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", string(cfg.StoreDriver)).Msg("durable store ready")
	svc := Assemble(cfg, durable, log)
	svc.close = closeFn
	return svc, nil
}

// Assemble builds the services over an already open durable store.
func Assemble(cfg config.Config, durable kvstore.Store, log zerolog.Logger) *Services {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	deps := catalog.Deps{
		Cache:   cache.New(durable, log),
		Tracker: inflight.New(),
		Fetcher: relay.New(client, cfg.Relays, log),
	}
	return &Services{
		Durable:   durable,
		Cache:     deps.Cache,
		Tracker:   deps.Tracker,
		Fetcher:   deps.Fetcher,
		Games:     catalog.NewGames(cfg.GamesBaseURL, deps),
		Giveaways: catalog.NewGiveaways(cfg.GiveawaysBaseURL, deps),
		Watchlist: watchlist.New(durable, log),
	}
}
