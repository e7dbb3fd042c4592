package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"gigagivry/internal/catalog"
	"gigagivry/internal/relay"
	"gigagivry/pkg/logger"
)

type config struct {
	Relays      []string      `env:"RELAYS" envSeparator:","`
	GamesBase   string        `env:"FREETOGAME_BASE_URL"`
	Target      string        `env:"CHECK_TARGET"`
	Interval    time.Duration `env:"CHECK_INTERVAL" envDefault:"1m"`
	Timeout     time.Duration `env:"CHECK_TIMEOUT" envDefault:"15s"`
	Concurrency int           `env:"CHECK_CONCURRENCY" envDefault:"4"`
	Once        bool          `env:"CHECK_ONCE"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"console"`
}

func loadConfig() (config, error) {
	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if len(cfg.Relays) == 0 {
		cfg.Relays = relay.DefaultRelays
	}
	if cfg.Target == "" {
		cfg.Target = catalog.NewGames(cfg.GamesBase, catalog.Deps{}).ListURL(catalog.GameListParams{})
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("invalid config")
	}
	log := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: cfg.Timeout}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		results := runChecks(ctx, client, cfg.Relays, cfg.Target, cfg.Concurrency, log)
		if cfg.Once {
			if up(results) == 0 {
				os.Exit(1)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type result struct {
	Relay   string
	Up      bool
	Latency time.Duration
	Err     error
}

// runChecks probes every relay with target, at most concurrent at a time.
// Results keep relay order. Relay order itself is never changed here.
func runChecks(ctx context.Context, client *http.Client, relays []string, target string, concurrent int, log zerolog.Logger) []result {
	results := make([]result, len(relays))
	sem := make(chan struct{}, concurrent)
	var wg sync.WaitGroup
	for i, tmpl := range relays {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, tmpl string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = probe(ctx, client, tmpl, target)
		}(i, tmpl)
	}
	wg.Wait()

	for _, r := range results {
		ev := log.Info()
		status := "up"
		if !r.Up {
			ev = log.Warn().Err(r.Err)
			status = "down"
		}
		ev.Str("relay", r.Relay).Str("status", status).Int64("latency_ms", r.Latency.Milliseconds()).Msg("relay probe")
	}
	log.Info().Int("up", up(results)).Int("total", len(results)).Msg("relay check completed")
	return results
}

func probe(ctx context.Context, client *http.Client, tmpl, target string) result {
	start := time.Now()
	f := relay.New(client, []string{tmpl}, zerolog.Nop())
	_, err := relay.FetchJSON[json.RawMessage](ctx, f, target)
	return result{Relay: tmpl, Up: err == nil, Latency: time.Since(start), Err: err}
}

func up(results []result) int {
	n := 0
	for _, r := range results {
		if r.Up {
			n++
		}
	}
	return n
}
