package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gigagivry/internal/auth"
	"gigagivry/internal/cache"
	"gigagivry/internal/catalog"
	"gigagivry/internal/relay"
	"gigagivry/internal/watchlist"
	adminauth "gigagivry/pkg/auth"
)

const maxBodyBytes = 64 << 10

type server struct {
	games     *catalog.Games
	giveaways *catalog.Giveaways
	watchlist *watchlist.Store
	sessions  *auth.Service
	fetcher   *relay.Fetcher
	pageSize  int
	adminHash string
	log       zerolog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.log), middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/filters", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.AllFilters())
	})
	r.Post("/session", s.handleSession)

	r.Get("/games", s.handleListGames)
	r.Get("/games/{id}", s.handleGame)
	r.Get("/giveaways", s.handleListGiveaways)
	r.Get("/giveaways/{id}", s.handleGiveaway)

	r.Route("/watchlist", func(r chi.Router) {
		r.Use(s.sessions.RequireSession)
		r.Get("/", s.handleWatchlist)
		r.Post("/", s.handleWatchlistAdd)
		r.Delete("/", s.handleWatchlistClear)
		r.Post("/toggle", s.handleWatchlistToggle)
		r.Get("/{type}/{id}", s.handleWatchlistContains)
		r.Delete("/{type}/{id}", s.handleWatchlistRemove)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminauth.AdminMiddleware(s.adminHash))
		r.Post("/warm", s.handleWarm)
		r.Get("/relays", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"relays": s.fetcher.Relays()})
		})
	})
	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors onto status codes.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidParams), errors.Is(err, watchlist.ErrInvalidItem):
		errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, relay.ErrSignalLost):
		errorJSON(w, http.StatusBadGateway, relay.ErrSignalLost.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

type listResponse[T any] struct {
	Items      []T    `json:"items"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
	Cached     bool   `json:"cached"`
	Degraded   bool   `json:"degraded"`
	Warning    string `json:"warning,omitempty"`
}

func newListResponse[T any](res cache.Result[[]T], search string, page, perPage int, title func(T) string) listResponse[T] {
	p := catalog.Paginate(catalog.Search(res.Data, search, title), page, perPage)
	out := listResponse[T]{
		Items:      p.Items,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Cached:     res.FromCache,
		Degraded:   res.Degraded(),
	}
	if res.Warning != nil {
		out.Warning = res.Warning.Error()
	}
	return out
}

type detailResponse[T any] struct {
	Data     T      `json:"data"`
	Cached   bool   `json:"cached"`
	Degraded bool   `json:"degraded"`
	Warning  string `json:"warning,omitempty"`
}

func newDetailResponse[T any](res cache.Result[T]) detailResponse[T] {
	out := detailResponse[T]{Data: res.Data, Cached: res.FromCache, Degraded: res.Degraded()}
	if res.Warning != nil {
		out.Warning = res.Warning.Error()
	}
	return out
}

func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.GameListParams{
		Platform: q.Get("platform"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
	}
	var res cache.Result[[]catalog.Game]
	if cached, ok := s.games.ListCached(r.Context(), params); ok {
		res = cache.Hit(cached)
	} else {
		var err error
		res, err = s.games.List(r.Context(), params)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newListResponse(res, q.Get("search"), queryPage(r), s.pageSize,
		func(g catalog.Game) string { return g.Title }))
}

func (s *server) handleGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}
	if cached, ok := s.games.DetailCached(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, newDetailResponse(cache.Hit(cached)))
		return
	}
	res, err := s.games.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDetailResponse(res))
}

func (s *server) handleListGiveaways(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := catalog.GiveawayListParams{
		Platform: q.Get("platform"),
		Type:     q.Get("type"),
		Sort:     q.Get("sort"),
	}
	var res cache.Result[[]catalog.Giveaway]
	if cached, ok := s.giveaways.ListCached(r.Context(), params); ok {
		res = cache.Hit(cached)
	} else {
		var err error
		res, err = s.giveaways.List(r.Context(), params)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, newListResponse(res, q.Get("search"), queryPage(r), s.pageSize,
		func(g catalog.Giveaway) string { return g.Title }))
}

func (s *server) handleGiveaway(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}
	if cached, ok := s.giveaways.DetailCached(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, newDetailResponse(cache.Hit(cached)))
		return
	}
	res, err := s.giveaways.Detail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDetailResponse(res))
}

// handleSession refreshes the caller's session when it sends a valid one
// and starts a new anonymous session otherwise.
func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	var (
		token string
		sess  auth.Session
		err   error
	)
	if prev, ok := auth.BearerToken(r); ok {
		token, sess, err = s.sessions.Refresh(prev)
	}
	if token == "" {
		token, sess, err = s.sessions.IssueSession()
	}
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"clientId":  sess.ClientID,
		"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *server) scopedWatchlist(r *http.Request) *watchlist.Store {
	sess, _ := auth.SessionFromContext(r.Context())
	return s.watchlist.Scoped(sess.ClientID)
}

func (s *server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	items := s.scopedWatchlist(r).Search(r.Context(), r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func decodeItem(w http.ResponseWriter, r *http.Request) (watchlist.Item, bool) {
	var item watchlist.Item
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&item); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid body")
		return item, false
	}
	return item, true
}

func (s *server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}
	if err := s.scopedWatchlist(r).Add(r.Context(), item); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"tracked": true})
}

func (s *server) handleWatchlistToggle(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}
	tracked, err := s.scopedWatchlist(r).Toggle(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"tracked": tracked})
}

func watchlistTarget(w http.ResponseWriter, r *http.Request) (int, watchlist.Kind, bool) {
	kind, err := watchlist.ParseKind(chi.URLParam(r, "type"))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return 0, "", false
	}
	id, ok := pathID(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "invalid id")
		return 0, "", false
	}
	return id, kind, true
}

func (s *server) handleWatchlistContains(w http.ResponseWriter, r *http.Request) {
	id, kind, ok := watchlistTarget(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"tracked": s.scopedWatchlist(r).Contains(r.Context(), id, kind)})
}

func (s *server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	id, kind, ok := watchlistTarget(w, r)
	if !ok {
		return
	}
	if err := s.scopedWatchlist(r).Remove(r.Context(), id, kind); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleWatchlistClear(w http.ResponseWriter, r *http.Request) {
	if err := s.scopedWatchlist(r).Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleWarm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := catalog.Warm(r.Context(), s.games, s.giveaways, s.log); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "warm completed",
		"took":   time.Since(start).String(),
	})
}
