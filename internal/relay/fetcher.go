// Package relay fetches JSON from third-party hosts through an ordered list
// of passthrough relays, falling back to the next relay on any failure.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// ErrSignalLost is returned once every relay has failed.
var ErrSignalLost = errors.New("signal lost: unable to reach upstream via any relay")

// DefaultRelays are public CORS relays accepting the target URL as their
// last query parameter.
var DefaultRelays = []string{
	"https://api.allorigins.win/raw?url=",
	"https://api.codetabs.com/v1/proxy?quest=",
	"https://corsproxy.io/?url=",
}

const maxBodyBytes = 16 << 20

// Fetcher issues GET requests through relays in fixed order.
type Fetcher struct {
	client *http.Client
	relays []string
	log    zerolog.Logger
}

// New returns a Fetcher. A nil client means http.DefaultClient. Relay order
// is kept as given.
func New(client *http.Client, relays []string, log zerolog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	clean := make([]string, 0, len(relays))
	for _, r := range relays {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return &Fetcher{
		client: client,
		relays: clean,
		log:    log.With().Str("component", "relay").Logger(),
	}
}

// Relays returns the configured templates in order.
func (f *Fetcher) Relays() []string {
	out := make([]string, len(f.relays))
	copy(out, f.relays)
	return out
}

// BuildURL substitutes target into a relay template. "{url}" takes the
// URL-encoded target, "{raw}" takes it verbatim (direct access); a template
// with neither gets the encoded target appended.
func BuildURL(template, target string) string {
	switch {
	case strings.Contains(template, "{url}"):
		return strings.ReplaceAll(template, "{url}", url.QueryEscape(target))
	case strings.Contains(template, "{raw}"):
		return strings.ReplaceAll(template, "{raw}", target)
	default:
		return template + url.QueryEscape(target)
	}
}

// Fetch tries each relay in order until one returns a success status and a
// body that decode accepts. Each failed relay is logged; when all fail the
// error wraps ErrSignalLost and the last relay's error.
func (f *Fetcher) Fetch(ctx context.Context, target string, decode func([]byte) error) error {
	var lastErr error
	for i, tmpl := range f.relays {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := f.try(ctx, BuildURL(tmpl, target), decode)
		if err == nil {
			if i > 0 {
				f.log.Debug().Str("relay", tmpl).Int("position", i).Str("target", target).Msg("relay fallback succeeded")
			}
			return nil
		}
		f.log.Warn().Err(err).Str("relay", tmpl).Str("target", target).Msg("relay attempt failed")
		lastErr = err
	}
	if lastErr == nil {
		f.log.Error().Str("target", target).Msg("no relays configured")
		return ErrSignalLost
	}
	f.log.Error().Err(lastErr).Str("target", target).Int("relays", len(f.relays)).Msg("all relays failed")
	return fmt.Errorf("%w: %w", ErrSignalLost, lastErr)
}

func (f *Fetcher) try(ctx context.Context, relayURL string, decode func([]byte) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := decode(body); err != nil {
		return fmt.Errorf("decode body: %w (%s)", err, snippet(body, 100))
	}
	return nil
}

// FetchJSON is Fetch decoding into T.
func FetchJSON[T any](ctx context.Context, f *Fetcher, target string) (T, error) {
	var out T
	err := f.Fetch(ctx, target, func(body []byte) error {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
