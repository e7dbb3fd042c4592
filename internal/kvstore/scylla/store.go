// Package scylla provides a ScyllaDB/Cassandra-backed durable key-value
// store.
package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"gigagivry/internal/kvstore"
)

// Store persists key-value pairs in <keyspace>.kv_entries. The table is
// created by db.ConnectScylla.
type Store struct {
	session  *gocql.Session
	keyspace string
}

func New(session *gocql.Session, keyspace string) *Store {
	return &Store{session: session, keyspace: keyspace}
}

func (s *Store) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	s.session.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.session.Query(fmt.Sprintf(`SELECT value FROM %s.kv_entries WHERE key=?`, s.keyspace), key).
		WithContext(ctx).
		Scan(&value)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", kvstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.session.Query(fmt.Sprintf(`INSERT INTO %s.kv_entries (key,value,updated_at) VALUES (?,?,?)`, s.keyspace),
		key, value, time.Now()).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.session.Query(fmt.Sprintf(`DELETE FROM %s.kv_entries WHERE key=?`, s.keyspace), key).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
