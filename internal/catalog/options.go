package catalog

import "strings"

// All is the "no filter" value of platform, category and type filters.
const All = "all"

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var GamePlatforms = []Option{
	{Label: "All Platforms", Value: All},
	{Label: "PC (Windows)", Value: "pc"},
	{Label: "Browser", Value: "browser"},
}

var GameSorts = []Option{
	{Label: "Relevance", Value: "relevance"},
	{Label: "Date Added", Value: "date"},
	{Label: "Popularity", Value: "popularity"},
	{Label: "Alphabetical", Value: "alphabetical"},
	{Label: "Release Date", Value: "release-date"},
}

var GameCategories = []string{
	"mmorpg", "shooter", "strategy", "moba", "racing", "sports", "social", "sandbox",
	"open-world", "survival", "pvp", "pve", "pixel", "voxel", "zombie", "turn-based",
	"first-person", "third-person", "top-down", "tank", "space", "sailing", "side-scroller",
	"superhero", "permadeath", "card", "battle-royale", "mmo", "mmofps", "mmotps", "3d", "2d",
	"anime", "fantasy", "sci-fi", "fighting", "action-rpg", "action", "military", "martial-arts",
	"flight", "low-spec", "tower-defense", "horror", "mmorts",
}

var GiveawayPlatforms = []Option{
	{Label: "All", Value: All},
	{Label: "PC", Value: "pc"},
	{Label: "Steam", Value: "steam"},
	{Label: "Epic Games", Value: "epic-games-store"},
	{Label: "Ubisoft", Value: "ubisoft"},
	{Label: "GOG", Value: "gog"},
	{Label: "Itch.io", Value: "itchio"},
	{Label: "PS4", Value: "ps4"},
	{Label: "Xbox One", Value: "xbox-one"},
	{Label: "Switch", Value: "switch"},
	{Label: "Android", Value: "android"},
	{Label: "iOS", Value: "ios"},
}

var GiveawayTypes = []Option{
	{Label: "All Types", Value: All},
	{Label: "Game", Value: "game"},
	{Label: "Loot", Value: "loot"},
	{Label: "Beta", Value: "beta"},
}

var GiveawaySorts = []Option{
	{Label: "Date Added", Value: "date"},
	{Label: "Value", Value: "value"},
	{Label: "Popularity", Value: "popularity"},
}

// Filters groups every option list, as served to browsers.
type Filters struct {
	GamePlatforms     []Option `json:"gamePlatforms"`
	GameCategories    []string `json:"gameCategories"`
	GameSorts         []Option `json:"gameSorts"`
	GiveawayPlatforms []Option `json:"giveawayPlatforms"`
	GiveawayTypes     []Option `json:"giveawayTypes"`
	GiveawaySorts     []Option `json:"giveawaySorts"`
}

func AllFilters() Filters {
	return Filters{
		GamePlatforms:     GamePlatforms,
		GameCategories:    GameCategories,
		GameSorts:         GameSorts,
		GiveawayPlatforms: GiveawayPlatforms,
		GiveawayTypes:     GiveawayTypes,
		GiveawaySorts:     GiveawaySorts,
	}
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func hasString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// isUnset reports whether a filter value means "no filter".
func isUnset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}
