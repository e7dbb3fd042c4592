// Package cache holds fetched catalog payloads in two tiers: a process
// memory map and a durable key-value store, both governed by one TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gigagivry/internal/kvstore"
)

const (
	// TTL is the maximum age of a usable entry.
	TTL = 5 * time.Minute
	// Namespace prefixes every durable cache key so cache records never
	// collide with other data in the same store (the watchlist, say).
	Namespace = "gigagivry_api_v1_"
)

// record is the durable representation: {"data": ..., "timestamp": unix ms}.
type record struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Store is the two-tier cache. Construct one per process and share it.
// A nil durable store gives a memory-only cache.
type Store struct {
	mem     *memoryTier
	durable kvstore.Store
	now     func() time.Time
	log     zerolog.Logger
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(durable kvstore.Store, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		mem:     newMemoryTier(),
		durable: durable,
		now:     time.Now,
		log:     log.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) valid(ts, now time.Time) bool {
	return now.Sub(ts) <= TTL
}

// Get returns the cached value for key if one of the tiers holds a valid
// entry. Memory is checked first; a durable hit warms memory with the
// original timestamp. Expired, corrupt or unreadable entries read as a miss
// and are removed where found.
func Get[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T
	now := s.now()

	if e, ok := s.mem.get(key); ok {
		if s.valid(e.timestamp, now) {
			if v, ok := e.data.(T); ok {
				return v, true
			}
			s.log.Warn().Str("key", key).Msg("cached value has unexpected type")
		}
		s.mem.delete(key)
	}

	if s.durable == nil {
		return zero, false
	}
	storageKey := Namespace + key
	raw, err := s.durable.Get(ctx, storageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return zero, false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return zero, false
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt cache record")
		s.removeDurable(ctx, storageKey)
		return zero, false
	}
	ts := time.UnixMilli(rec.Timestamp)
	if !s.valid(ts, now) {
		s.removeDurable(ctx, storageKey)
		return zero, false
	}
	var data T
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("corrupt cache payload")
		s.removeDurable(ctx, storageKey)
		return zero, false
	}
	s.mem.set(key, entry{data: data, timestamp: ts})
	return data, true
}

// Set stores data under key in both tiers with a fresh timestamp. The
// memory tier always takes the entry; a failed durable write only degrades
// the outcome.
func (s *Store) Set(ctx context.Context, key string, data any) Outcome {
	now := s.now()
	s.mem.set(key, entry{data: data, timestamp: now})

	if s.durable == nil {
		return Outcome{Status: StatusOK}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return degraded(fmt.Errorf("encode cache entry: %w", err))
	}
	raw, err := json.Marshal(record{Data: payload, Timestamp: now.UnixMilli()})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return degraded(fmt.Errorf("encode cache entry: %w", err))
	}
	if err := s.durable.Set(ctx, Namespace+key, string(raw)); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed (storage quota?)")
		return degraded(fmt.Errorf("persist cache entry: %w", err))
	}
	return Outcome{Status: StatusOK}
}

// Delete drops key from both tiers.
func (s *Store) Delete(ctx context.Context, key string) {
	s.mem.delete(key)
	if s.durable != nil {
		s.removeDurable(ctx, Namespace+key)
	}
}

func (s *Store) removeDurable(ctx context.Context, storageKey string) {
	if err := s.durable.Remove(ctx, storageKey); err != nil {
		s.log.Warn().Err(err).Str("key", storageKey).Msg("cache cleanup failed")
	}
}
