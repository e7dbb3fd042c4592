// Package watchlist persists the games and giveaways a browser tracks. The
// whole list lives as one JSON array under StorageKey and never expires.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gigagivry/internal/catalog"
	"gigagivry/internal/kvstore"
)

// StorageKey is kept apart from the cache namespace.
const StorageKey = "gigagivry_watchlist"

var ErrInvalidItem = errors.New("invalid watchlist item")

type Kind string

const (
	KindGame     Kind = "game"
	KindGiveaway Kind = "giveaway"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGame, KindGiveaway:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidItem, s)
	}
}

type Item struct {
	ID        int    `json:"id"`
	Type      Kind   `json:"type"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Subtitle  string `json:"subtitle"`
	Platform  string `json:"platform"`
	AddedAt   int64  `json:"addedAt"`
}

func (i Item) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidItem)
	}
	if _, err := ParseKind(string(i.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidItem)
	}
	return nil
}

func (i Item) same(id int, kind Kind) bool {
	return i.ID == id && i.Type == kind
}

func FromGame(g catalog.Game) Item {
	return Item{
		ID:        g.ID,
		Type:      KindGame,
		Title:     g.Title,
		Thumbnail: g.Thumbnail,
		Subtitle:  g.Genre,
		Platform:  g.Platform,
	}
}

func FromGiveaway(g catalog.Giveaway) Item {
	return Item{
		ID:        g.ID,
		Type:      KindGiveaway,
		Title:     g.Title,
		Thumbnail: g.Thumbnail,
		Subtitle:  g.Worth,
		Platform:  g.Platforms,
	}
}

// Store reads and writes one watchlist. Stores derived with Scoped share
// a lock, so read-modify-write cycles never interleave.
type Store struct {
	kv  kvstore.Store
	mu  *sync.Mutex
	now func() time.Time
	log zerolog.Logger
}

func New(kv kvstore.Store, log zerolog.Logger) *Store {
	return &Store{
		kv:  kv,
		mu:  &sync.Mutex{},
		now: time.Now,
		log: log.With().Str("component", "watchlist").Logger(),
	}
}

// Scoped returns the watchlist of one client, kept under "client/<id>/".
func (s *Store) Scoped(clientID string) *Store {
	return &Store{
		kv:  kvstore.WithPrefix(s.kv, "client/"+clientID+"/"),
		mu:  s.mu,
		now: s.now,
		log: s.log.With().Str("client_id", clientID).Logger(),
	}
}

// List returns every tracked item, newest first. Unreadable or corrupt
// storage reads as an empty list.
func (s *Store) List(ctx context.Context) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("watchlist read failed")
		return []Item{}
	}
	return items
}

func (s *Store) Search(ctx context.Context, term string) []Item {
	return catalog.Search(s.List(ctx), term, func(i Item) string { return i.Title })
}

func (s *Store) Contains(ctx context.Context, id int, kind Kind) bool {
	for _, it := range s.List(ctx) {
		if it.same(id, kind) {
			return true
		}
	}
	return false
}

// Add tracks item. Adding an already tracked (id, type) changes nothing.
func (s *Store) Add(ctx context.Context, item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	if indexOf(items, item.ID, item.Type) >= 0 {
		return nil
	}
	if item.AddedAt == 0 {
		item.AddedAt = s.now().UnixMilli()
	}
	return s.save(ctx, append([]Item{item}, items...))
}

// Remove untracks (id, kind). Removing an untracked item is a no-op.
func (s *Store) Remove(ctx context.Context, id int, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadForWrite(ctx)
	if err != nil {
		return err
	}
	i := indexOf(items, id, kind)
	if i < 0 {
		return nil
	}
	return s.save(ctx, append(items[:i:i], items[i+1:]...))
}

// Toggle adds item if untracked and removes it otherwise. It reports
// whether the item is tracked afterwards.
func (s *Store) Toggle(ctx context.Context, item Item) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadForWrite(ctx)
	if err != nil {
		return false, err
	}
	if i := indexOf(items, item.ID, item.Type); i >= 0 {
		return false, s.save(ctx, append(items[:i:i], items[i+1:]...))
	}
	if item.AddedAt == 0 {
		item.AddedAt = s.now().UnixMilli()
	}
	if err := s.save(ctx, append([]Item{item}, items...)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear watchlist: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context) ([]Item, error) {
	raw, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].AddedAt > items[b].AddedAt })
	return items, nil
}

// loadForWrite treats a corrupt record as empty, so the next write
// replaces it, but refuses to write over storage it could not read.
func (s *Store) loadForWrite(ctx context.Context) ([]Item, error) {
	items, err := s.load(ctx)
	if err == nil {
		return items, nil
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		s.log.Warn().Err(err).Msg("discarding corrupt watchlist")
		return []Item{}, nil
	}
	return nil, fmt.Errorf("read watchlist: %w", err)
}

func (s *Store) save(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}

func indexOf(items []Item, id int, kind Kind) int {
	for i, it := range items {
		if it.same(id, kind) {
			return i
		}
	}
	return -1
}
