package config

import (
	"strings"
	"testing"
	"time"

	"gigagivry/internal/catalog"
	"gigagivry/internal/relay"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_SECRET", "test-secret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverSQLite || cfg.SQLitePath != "data/gigagivry.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.GamesBaseURL != catalog.DefaultGamesBaseURL || cfg.GiveawaysBaseURL != catalog.DefaultGiveawaysBaseURL {
		t.Fatalf("unexpected base urls %q %q", cfg.GamesBaseURL, cfg.GiveawaysBaseURL)
	}
	if len(cfg.Relays) != len(relay.DefaultRelays) || cfg.Relays[0] != relay.DefaultRelays[0] {
		t.Fatalf("unexpected relays %v", cfg.Relays)
	}
	if !cfg.WarmOnStart || cfg.WarmInterval != 0 || cfg.PageSize != 12 || cfg.MemoryQuotaBytes != 5242880 {
		t.Fatalf("unexpected warm/page defaults %+v", cfg)
	}
	if cfg.Scylla.Port != 9042 || cfg.Scylla.Keyspace != "gigagivry" || cfg.Scylla.Replication != 3 {
		t.Fatalf("unexpected scylla defaults %+v", cfg.Scylla)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_SECRET", "test-secret")
	t.Setenv("RELAYS", " https://a.test/?u={url} , ,https://b.test/raw?url=")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://localhost/gigagivry")
	t.Setenv("WARM_INTERVAL", "4m")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("PAGE_SIZE", "-1")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.Relays) != 2 || cfg.Relays[0] != "https://a.test/?u={url}" {
		t.Fatalf("relays = %v", cfg.Relays)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if cfg.WarmInterval != 4*time.Minute || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("durations = %v %v", cfg.WarmInterval, cfg.HTTPTimeout)
	}
	if cfg.PageSize != catalog.DefaultPageSize {
		t.Fatalf("page size = %d", cfg.PageSize)
	}
}

func TestFromEnvValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"APP_SECRET": ""}, "APP_SECRET"},
		{"postgres without url", map[string]string{"APP_SECRET": "x", "STORE_DRIVER": "postgres"}, "DB_URL"},
		{"scylla without hosts", map[string]string{"APP_SECRET": "x", "STORE_DRIVER": "scylla"}, "SCYLLA_HOSTS"},
		{"unknown driver", map[string]string{"APP_SECRET": "x", "STORE_DRIVER": "redis"}, "STORE_DRIVER"},
		{"bad duration", map[string]string{"APP_SECRET": "x", "WARM_INTERVAL": "soon"}, "parse env"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}
