package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"
)

// ScyllaConfig describes how to reach the cluster holding the durable tier.
type ScyllaConfig struct {
	Hosts       []string
	Port        int
	Keyspace    string
	Consistency string
	Replication int
	Attempts    int
	RetryDelay  time.Duration
}

// ConnectScylla ensures the keyspace and kv table exist and returns a
// session bound to the keyspace. Connection attempts are retried since the
// cluster often starts alongside the API.
func ConnectScylla(cfg ScyllaConfig, log zerolog.Logger) (*gocql.Session, error) {
	hosts := make([]string, 0, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("scylla hosts are required")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 20
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}

	cluster := gocql.NewCluster(hosts...)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	cluster.Timeout = 5 * time.Second
	cluster.Consistency = ParseConsistency(cfg.Consistency)

	// first connect without keyspace to ensure it exists
	tmp, err := createSession(cluster, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := EnsureKeyspace(tmp, cfg.Keyspace, cfg.Replication); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("ensure keyspace %s: %w", cfg.Keyspace, err)
	}
	if err := EnsureSchema(tmp, cfg.Keyspace); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	tmp.Close()

	cluster.Keyspace = cfg.Keyspace
	return createSession(cluster, cfg, log)
}

func createSession(cluster *gocql.ClusterConfig, cfg ScyllaConfig, log zerolog.Logger) (*gocql.Session, error) {
	var lastErr error
	for i := 0; i < cfg.Attempts; i++ {
		s, err := cluster.CreateSession()
		if err == nil {
			return s, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", i+1).Int("of", cfg.Attempts).Msg("scylla connect retry")
		time.Sleep(cfg.RetryDelay)
	}
	return nil, fmt.Errorf("scylla connect: giving up: %w", lastErr)
}

func EnsureKeyspace(session *gocql.Session, keyspace string, replicationFactor int) error {
	if replicationFactor <= 0 {
		replicationFactor = 3
	}
	stmt := fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}", keyspace, replicationFactor)
	return session.Query(stmt).Exec()
}

func EnsureSchema(session *gocql.Session, keyspace string) error {
	return session.Query(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.kv_entries (
		key text PRIMARY KEY,
		value text,
		updated_at timestamp
	)`, keyspace)).Exec()
}

func ParseConsistency(c string) gocql.Consistency {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case "ONE":
		return gocql.One
	case "LOCAL_ONE":
		return gocql.LocalOne
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "ALL":
		return gocql.All
	default:
		return gocql.Quorum
	}
}
