package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gigagivry/internal/cache"
	"gigagivry/internal/inflight"
	"gigagivry/internal/kvstore"
	"gigagivry/internal/relay"
)

const (
	gamesBase     = "https://games.test/api"
	giveawaysBase = "https://giveaways.test/api"
)

// upstream plays a relay that serves canned upstream answers. respond
// receives the decoded target URL.
type upstream struct {
	*httptest.Server
	hits    atomic.Int64
	mu      sync.Mutex
	targets []string
}

func newUpstream(t *testing.T, respond func(target *url.URL) (int, string)) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		raw := r.URL.Query().Get("url")
		u.mu.Lock()
		u.targets = append(u.targets, raw)
		u.mu.Unlock()
		target, err := url.Parse(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, body := respond(target)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) lastTarget() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.targets) == 0 {
		return ""
	}
	return u.targets[len(u.targets)-1]
}

type harness struct {
	games     *Games
	giveaways *Giveaways
	tracker   *inflight.Tracker
	durable   kvstore.Store
}

func newHarness(t *testing.T, u *upstream, durable kvstore.Store) harness {
	t.Helper()
	log := zerolog.Nop()
	deps := Deps{
		Cache:   cache.New(durable, log),
		Tracker: inflight.New(),
		Fetcher: relay.New(u.Client(), []string{u.URL + "/raw?url="}, log),
	}
	return harness{
		games:     NewGames(gamesBase, deps),
		giveaways: NewGiveaways(giveawaysBase, deps),
		tracker:   deps.Tracker,
		durable:   durable,
	}
}

const gamesJSON = `[{"id":452,"title":"Call Of Duty: Warzone","genre":"Shooter","platform":"PC (Windows)"},
{"id":540,"title":"Overwatch 2","genre":"Shooter","platform":"PC (Windows)"}]`

const gameJSON = `{"id":452,"title":"Call Of Duty: Warzone","status":"Live","genre":"Shooter",
"minimum_system_requirements":{"os":"Windows 10","memory":"8GB"},"screenshots":[{"id":1124,"image":"x.jpg"}]}`

const giveawaysJSON = `[{"id":2840,"title":"Loot Pack","worth":"$4.99","type":"DLC","platforms":"PC, Steam","users":1200}]`

func TestGamesListBuildsQueryAndCaches(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, gamesJSON })
	h := newHarness(t, u, kvstore.NewMemory(0))

	p := GameListParams{Platform: "pc", Category: "shooter", Sort: "popularity"}
	res, err := h.games.List(ctx, p)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.FromCache || res.Degraded() || len(res.Data) != 2 {
		t.Fatalf("unexpected first result %+v", res)
	}
	want := gamesBase + "/games?platform=pc&category=shooter&sort-by=popularity"
	if got := u.lastTarget(); got != want {
		t.Fatalf("target = %q, want %q", got, want)
	}

	res, err = h.games.List(ctx, p)
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	if !res.FromCache {
		t.Fatal("expected second call to be served from cache")
	}
	if got := u.hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d, want 1", got)
	}
}

func TestAllFilterSharesKeyWithNoFilter(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, gamesJSON })
	h := newHarness(t, u, kvstore.NewMemory(0))

	if _, err := h.games.List(ctx, GameListParams{Platform: "all", Category: "ALL"}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := u.lastTarget(); got != gamesBase+"/games" {
		t.Fatalf("target = %q, want bare listing", got)
	}
	if _, ok := h.games.ListCached(ctx, GameListParams{}); !ok {
		t.Fatal("expected unfiltered listing to be cached under the same key")
	}
}

func TestListCachedNeverFetches(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, gamesJSON })
	h := newHarness(t, u, kvstore.NewMemory(0))

	if _, ok := h.games.ListCached(ctx, GameListParams{}); ok {
		t.Fatal("expected miss")
	}
	if _, ok := h.games.DetailCached(ctx, 452); ok {
		t.Fatal("expected miss")
	}
	if got := u.hits.Load(); got != 0 {
		t.Fatalf("upstream hits = %d, want 0", got)
	}
}

func TestInvalidParamsRejectedBeforeFetch(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, gamesJSON })
	h := newHarness(t, u, kvstore.NewMemory(0))

	cases := []struct {
		name string
		run  func() error
	}{
		{"game platform", func() error { _, err := h.games.List(ctx, GameListParams{Platform: "xbox"}); return err }},
		{"game category", func() error { _, err := h.games.List(ctx, GameListParams{Category: "knitting"}); return err }},
		{"game sort", func() error { _, err := h.games.List(ctx, GameListParams{Sort: "worth"}); return err }},
		{"giveaway type", func() error { _, err := h.giveaways.List(ctx, GiveawayListParams{Type: "dlc"}); return err }},
		{"giveaway platform", func() error { _, err := h.giveaways.List(ctx, GiveawayListParams{Platform: "steam.amiga"}); return err }},
		{"game id", func() error { _, err := h.games.Detail(ctx, 0); return err }},
		{"giveaway id", func() error { _, err := h.giveaways.Detail(ctx, -3); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
	if got := u.hits.Load(); got != 0 {
		t.Fatalf("upstream hits = %d, want 0", got)
	}
}

func TestGameDetail(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(target *url.URL) (int, string) {
		if target.Path == "/api/game" && target.Query().Get("id") == "452" {
			return http.StatusOK, gameJSON
		}
		return http.StatusOK, `{"status":0,"status_message":"No game found!"}`
	})
	h := newHarness(t, u, kvstore.NewMemory(0))

	res, err := h.games.Detail(ctx, 452)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	d := res.Data
	if d.ID != 452 || d.Status != "Live" || d.MinimumSystemRequirements == nil || len(d.Screenshots) != 1 {
		t.Fatalf("unexpected detail %+v", d)
	}
	if _, ok := h.games.DetailCached(ctx, 452); !ok {
		t.Fatal("expected detail to be cached")
	}
}

func TestDetailNotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) {
		return http.StatusOK, `{"status":0,"status_message":"No giveaway found"}`
	})
	h := newHarness(t, u, kvstore.NewMemory(0))

	for i := 0; i < 2; i++ {
		if _, err := h.giveaways.Detail(ctx, 999999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt %d: err = %v, want ErrNotFound", i, err)
		}
	}
	if got := u.hits.Load(); got != 2 {
		t.Fatalf("upstream hits = %d, want 2 (not-found must not be cached)", got)
	}
}

func TestEmptyListingStatusObject(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) {
		return http.StatusCreated, `{"status":0,"status_message":"No active giveaways available at the moment."}`
	})
	h := newHarness(t, u, kvstore.NewMemory(0))

	res, err := h.giveaways.List(ctx, GiveawayListParams{Platform: "steam.gog", Type: "beta"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", res.Data)
	}
	want := giveawaysBase + "/giveaways?platform=steam.gog&type=beta"
	if got := u.lastTarget(); got != want {
		t.Fatalf("target = %q, want %q", got, want)
	}
}

func TestUpstreamFailureIsSignalLost(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusBadGateway, "" })
	h := newHarness(t, u, kvstore.NewMemory(0))

	_, err := h.giveaways.List(ctx, GiveawayListParams{})
	if !errors.Is(err, relay.ErrSignalLost) {
		t.Fatalf("err = %v, want ErrSignalLost", err)
	}
	if _, ok := h.giveaways.ListCached(ctx, GiveawayListParams{}); ok {
		t.Fatal("failure must not populate the cache")
	}
}

type rejectingStore struct{ *kvstore.Memory }

func (rejectingStore) Set(context.Context, string, string) error { return kvstore.ErrQuotaExceeded }

func TestDurableWriteFailureDegradesButServes(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, giveawaysJSON })
	h := newHarness(t, u, rejectingStore{kvstore.NewMemory(0)})

	res, err := h.giveaways.List(ctx, GiveawayListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !res.Degraded() || !errors.Is(res.Warning, kvstore.ErrQuotaExceeded) {
		t.Fatalf("expected degraded result, got %+v", res)
	}
	if len(res.Data) != 1 || res.Data[0].Worth != "$4.99" {
		t.Fatalf("unexpected data %+v", res.Data)
	}
	if _, ok := h.giveaways.ListCached(ctx, GiveawayListParams{}); !ok {
		t.Fatal("memory tier should still hold the listing")
	}
}

func TestConcurrentDetailRequestsShareOneFetch(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	u := newUpstream(t, func(*url.URL) (int, string) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return http.StatusOK, gameJSON
	})
	h := newHarness(t, u, kvstore.NewMemory(0))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]cache.Result[GameDetail], callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.games.Detail(ctx, 452)
		}(i)
	}
	<-entered
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Data.ID != 452 {
			t.Fatalf("caller %d got %+v", i, results[i].Data)
		}
	}
	if got := u.hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d, want 1", got)
	}
	if got := h.tracker.Started(); got != 1 {
		t.Fatalf("producer runs = %d, want 1", got)
	}
}

func TestDurableTierSurvivesNewCache(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(*url.URL) (int, string) { return http.StatusOK, gamesJSON })
	durable := kvstore.NewMemory(0)
	first := newHarness(t, u, durable)
	if _, err := first.games.List(ctx, GameListParams{}); err != nil {
		t.Fatalf("List: %v", err)
	}

	second := newHarness(t, u, durable)
	res, err := second.games.List(ctx, GameListParams{})
	if err != nil {
		t.Fatalf("List after restart: %v", err)
	}
	if !res.FromCache || len(res.Data) != 2 {
		t.Fatalf("expected durable hit, got %+v", res)
	}
	if got := u.hits.Load(); got != 1 {
		t.Fatalf("upstream hits = %d, want 1", got)
	}
}

func TestWarmFillsDefaultListings(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t, func(target *url.URL) (int, string) {
		if target.Host == "games.test" {
			return http.StatusOK, gamesJSON
		}
		return http.StatusOK, giveawaysJSON
	})
	h := newHarness(t, u, kvstore.NewMemory(0))

	if err := Warm(ctx, h.games, h.giveaways, zerolog.Nop()); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if _, ok := h.games.ListCached(ctx, GameListParams{}); !ok {
		t.Fatal("games listing not warmed")
	}
	if _, ok := h.giveaways.ListCached(ctx, GiveawayListParams{}); !ok {
		t.Fatal("giveaways listing not warmed")
	}
}
