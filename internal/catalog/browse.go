package catalog

import "strings"

// DefaultPageSize matches the browsing grid.
const DefaultPageSize = 12

// Page is one slice of a listing. Pages are 1-based.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
	PerPage    int `json:"perPage"`
}

// Paginate cuts page out of items. A page past the end clamps to the last
// page; anything below 1 is page 1. An empty listing still has one page.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:      out,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		PerPage:    perPage,
	}
}

// Search keeps the items whose title contains term, ignoring case. The
// input slice is not modified.
func Search[T any](items []T, term string, title func(T) string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(title(it)), term) {
			out = append(out, it)
		}
	}
	return out
}

func SearchGames(games []Game, term string) []Game {
	return Search(games, term, func(g Game) string { return g.Title })
}

func SearchGiveaways(giveaways []Giveaway, term string) []Giveaway {
	return Search(giveaways, term, func(g Giveaway) string { return g.Title })
}
