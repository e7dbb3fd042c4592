package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gigagivry/internal/cachekey"
)

var (
	// ErrNotFound means the upstream has no record for the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidParams wraps every parameter validation failure.
	ErrInvalidParams = errors.New("invalid params")
)

// GameListParams filters the game listing. Empty or "all" means no filter.
type GameListParams struct {
	Platform string
	Category string
	Sort     string
}

func (p GameListParams) normalize() GameListParams {
	return GameListParams{
		Platform: normalizeValue(p.Platform),
		Category: normalizeValue(p.Category),
		Sort:     normalizeValue(p.Sort),
	}
}

func (p GameListParams) Validate() error {
	n := p.normalize()
	if !isUnset(n.Platform) && !hasOption(GamePlatforms, n.Platform) {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidParams, p.Platform)
	}
	if !isUnset(n.Category) && !hasString(GameCategories, n.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidParams, p.Category)
	}
	if n.Sort != "" && !hasOption(GameSorts, n.Sort) {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidParams, p.Sort)
	}
	return nil
}

func (p GameListParams) keyParams() cachekey.Params {
	n := p.normalize()
	return cachekey.Compact(cachekey.Params{
		"platform": n.Platform,
		"category": n.Category,
		"sort":     n.Sort,
	}, All)
}

func (p GameListParams) query() string {
	n := p.normalize()
	return buildQuery(
		[2]string{"platform", n.Platform},
		[2]string{"category", n.Category},
		[2]string{"sort-by", n.Sort},
	)
}

// GiveawayListParams filters the giveaway listing. Platform may join several
// platforms with dots ("steam.epic-games-store"), as GamerPower accepts.
type GiveawayListParams struct {
	Platform string
	Type     string
	Sort     string
}

func (p GiveawayListParams) normalize() GiveawayListParams {
	return GiveawayListParams{
		Platform: normalizeValue(p.Platform),
		Type:     normalizeValue(p.Type),
		Sort:     normalizeValue(p.Sort),
	}
}

func (p GiveawayListParams) Validate() error {
	n := p.normalize()
	if !isUnset(n.Platform) {
		for _, part := range strings.Split(n.Platform, ".") {
			if part == All || !hasOption(GiveawayPlatforms, part) {
				return fmt.Errorf("%w: unknown platform %q", ErrInvalidParams, p.Platform)
			}
		}
	}
	if !isUnset(n.Type) && !hasOption(GiveawayTypes, n.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidParams, p.Type)
	}
	if n.Sort != "" && !hasOption(GiveawaySorts, n.Sort) {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidParams, p.Sort)
	}
	return nil
}

func (p GiveawayListParams) keyParams() cachekey.Params {
	n := p.normalize()
	return cachekey.Compact(cachekey.Params{
		"platform": n.Platform,
		"type":     n.Type,
		"sort":     n.Sort,
	}, All)
}

func (p GiveawayListParams) query() string {
	n := p.normalize()
	return buildQuery(
		[2]string{"platform", n.Platform},
		[2]string{"type", n.Type},
		[2]string{"sort-by", n.Sort},
	)
}

func detailKeyParams(id int) cachekey.Params {
	return cachekey.Params{"id": id}
}

func validateID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidParams, id)
	}
	return nil
}

// buildQuery joins the set pairs, in the given order, into a query string.
// Unset values ("" or "all") are omitted.
func buildQuery(pairs ...[2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		if isUnset(kv[1]) {
			continue
		}
		parts = append(parts, url.QueryEscape(kv[0])+"="+url.QueryEscape(kv[1]))
	}
	return strings.Join(parts, "&")
}

func withQuery(base, query string) string {
	if query == "" {
		return base
	}
	return base + "?" + query
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
