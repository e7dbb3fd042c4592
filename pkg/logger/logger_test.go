package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestBuildLevelFallback(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":  zerolog.DebugLevel,
		" WARN ": zerolog.WarnLevel,
		"":       zerolog.InfoLevel,
		"chatty": zerolog.InfoLevel,
		"error":  zerolog.ErrorLevel,
	}
	for raw, want := range cases {
		var buf bytes.Buffer
		log := build(&buf, raw, "json")
		if got := log.GetLevel(); got != want {
			t.Errorf("level %q: want %s, got %s", raw, want, got)
		}
	}
}

func TestBuildJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "info", "json")
	log.Info().Str("relay", "r1").Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if line["relay"] != "r1" || line["message"] != "hello" {
		t.Fatalf("unexpected fields: %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatal("expected timestamp field")
	}
}
