package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gigagivry/internal/cache"
)

const DefaultGiveawaysBaseURL = "https://www.gamerpower.com/api"

// Giveaways is the GamerPower client.
type Giveaways struct {
	baseURL string
	list    resource[[]Giveaway]
	detail  resource[Giveaway]
}

func NewGiveaways(baseURL string, deps Deps) *Giveaways {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGiveawaysBaseURL
	}
	return &Giveaways{
		baseURL: strings.TrimRight(baseURL, "/"),
		list: resource[[]Giveaway]{
			op:     "giveaways",
			deps:   deps,
			decode: decodeList[Giveaway],
		},
		detail: resource[Giveaway]{
			op:     "giveaway_details",
			deps:   deps,
			decode: decodeDetail[Giveaway],
			check: func(g Giveaway) error {
				if g.ID == 0 {
					return ErrNotFound
				}
				return nil
			},
		},
	}
}

func (c *Giveaways) ListURL(p GiveawayListParams) string {
	return withQuery(c.baseURL+"/giveaways", p.query())
}

func (c *Giveaways) DetailURL(id int) string {
	return c.baseURL + "/giveaway?id=" + strconv.Itoa(id)
}

func (c *Giveaways) ListCached(ctx context.Context, p GiveawayListParams) ([]Giveaway, bool) {
	return c.list.peek(ctx, p.keyParams())
}

func (c *Giveaways) List(ctx context.Context, p GiveawayListParams) (cache.Result[[]Giveaway], error) {
	if err := p.Validate(); err != nil {
		return cache.Result[[]Giveaway]{}, err
	}
	res, err := c.list.fetch(ctx, p.keyParams(), c.ListURL(p))
	if err != nil {
		return res, fmt.Errorf("list giveaways: %w", err)
	}
	return res, nil
}

func (c *Giveaways) DetailCached(ctx context.Context, id int) (Giveaway, bool) {
	return c.detail.peek(ctx, detailKeyParams(id))
}

func (c *Giveaways) Detail(ctx context.Context, id int) (cache.Result[Giveaway], error) {
	if err := validateID(id); err != nil {
		return cache.Result[Giveaway]{}, err
	}
	res, err := c.detail.fetch(ctx, detailKeyParams(id), c.DetailURL(id))
	if err != nil {
		return res, fmt.Errorf("giveaway %d: %w", id, err)
	}
	return res, nil
}
