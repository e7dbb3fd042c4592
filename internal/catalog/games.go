package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gigagivry/internal/cache"
)

const DefaultGamesBaseURL = "https://www.freetogame.com/api"

// Games is the FreeToGame client.
type Games struct {
	baseURL string
	list    resource[[]Game]
	detail  resource[GameDetail]
}

func NewGames(baseURL string, deps Deps) *Games {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGamesBaseURL
	}
	return &Games{
		baseURL: strings.TrimRight(baseURL, "/"),
		list: resource[[]Game]{
			op:     "games",
			deps:   deps,
			decode: decodeList[Game],
		},
		detail: resource[GameDetail]{
			op:     "game_details",
			deps:   deps,
			decode: decodeDetail[GameDetail],
			check: func(d GameDetail) error {
				if d.ID == 0 {
					return ErrNotFound
				}
				return nil
			},
		},
	}
}

// ListURL is the upstream URL for p.
func (g *Games) ListURL(p GameListParams) string {
	return withQuery(g.baseURL+"/games", p.query())
}

func (g *Games) DetailURL(id int) string {
	return g.baseURL + "/game?id=" + strconv.Itoa(id)
}

// ListCached returns the listing for p if cached. It never hits the network.
func (g *Games) ListCached(ctx context.Context, p GameListParams) ([]Game, bool) {
	return g.list.peek(ctx, p.keyParams())
}

// List returns the listing for p from cache, or fetches and caches it.
func (g *Games) List(ctx context.Context, p GameListParams) (cache.Result[[]Game], error) {
	if err := p.Validate(); err != nil {
		return cache.Result[[]Game]{}, err
	}
	res, err := g.list.fetch(ctx, p.keyParams(), g.ListURL(p))
	if err != nil {
		return res, fmt.Errorf("list games: %w", err)
	}
	return res, nil
}

func (g *Games) DetailCached(ctx context.Context, id int) (GameDetail, bool) {
	return g.detail.peek(ctx, detailKeyParams(id))
}

// Detail returns game id, or ErrNotFound when the upstream has none.
func (g *Games) Detail(ctx context.Context, id int) (cache.Result[GameDetail], error) {
	if err := validateID(id); err != nil {
		return cache.Result[GameDetail]{}, err
	}
	res, err := g.detail.fetch(ctx, detailKeyParams(id), g.DetailURL(id))
	if err != nil {
		return res, fmt.Errorf("game %d: %w", id, err)
	}
	return res, nil
}
