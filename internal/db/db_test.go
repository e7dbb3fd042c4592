package db

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog"
)

func TestParseConsistency(t *testing.T) {
	cases := []struct {
		raw  string
		want gocql.Consistency
	}{
		{"one", gocql.One},
		{"LOCAL_ONE", gocql.LocalOne},
		{" local_quorum", gocql.LocalQuorum},
		{"ALL", gocql.All},
		{"", gocql.Quorum},
		{"bogus", gocql.Quorum},
	}
	for _, tc := range cases {
		if got := ParseConsistency(tc.raw); got != tc.want {
			t.Errorf("%q: want %v, got %v", tc.raw, tc.want, got)
		}
	}
}

func TestConnectScyllaRequiresHosts(t *testing.T) {
	_, err := ConnectScylla(ScyllaConfig{Hosts: []string{" ", ""}, Keyspace: "gigagivry"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error without hosts")
	}
}
