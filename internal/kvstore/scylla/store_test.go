package scylla

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gigagivry/internal/db"
	"gigagivry/internal/kvstore"
)

func TestStoreRoundTrip(t *testing.T) {
	hosts := os.Getenv("TEST_SCYLLA_HOSTS")
	if hosts == "" {
		t.Skip("TEST_SCYLLA_HOSTS is not set")
	}
	session, err := db.ConnectScylla(db.ScyllaConfig{
		Hosts:       strings.Split(hosts, ","),
		Keyspace:    "gigagivry_test",
		Consistency: "ONE",
		Replication: 1,
		Attempts:    3,
		RetryDelay:  time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	store := New(session, "gigagivry_test")
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	key := "test_" + uuid.NewString()
	if _, err := store.Get(ctx, key); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, key, "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil || got != "v" {
		t.Fatalf("want v, got %q (%v)", got, err)
	}
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
}
