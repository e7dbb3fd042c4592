package catalog

// Game is one entry of the FreeToGame listing.
type Game struct {
	ID                   int    `json:"id"`
	Title                string `json:"title"`
	Thumbnail            string `json:"thumbnail"`
	ShortDescription     string `json:"short_description"`
	GameURL              string `json:"game_url"`
	Genre                string `json:"genre"`
	Platform             string `json:"platform"`
	Publisher            string `json:"publisher"`
	Developer            string `json:"developer"`
	ReleaseDate          string `json:"release_date"`
	FreeToGameProfileURL string `json:"freetogame_profile_url"`
}

type SystemRequirements struct {
	OS        string `json:"os"`
	Processor string `json:"processor"`
	Memory    string `json:"memory"`
	Graphics  string `json:"graphics"`
	Storage   string `json:"storage"`
}

type Screenshot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

// GameDetail is the FreeToGame detail record.
type GameDetail struct {
	Game
	Status                    string              `json:"status"`
	Description               string              `json:"description"`
	MinimumSystemRequirements *SystemRequirements `json:"minimum_system_requirements,omitempty"`
	Screenshots               []Screenshot        `json:"screenshots"`
}

// Giveaway is a GamerPower giveaway; list and detail share the shape.
type Giveaway struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Worth           string `json:"worth"`
	Thumbnail       string `json:"thumbnail"`
	Image           string `json:"image"`
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
	OpenGiveawayURL string `json:"open_giveaway_url"`
	PublishedDate   string `json:"published_date"`
	Type            string `json:"type"`
	Platforms       string `json:"platforms"`
	EndDate         string `json:"end_date"`
	Users           int    `json:"users"`
	Status          string `json:"status"`
	GamerPowerURL   string `json:"gamerpower_url"`
}

// upstreamStatus is what both APIs answer instead of data when nothing
// matches, e.g. {"status":0,"status_message":"No game found!"}.
type upstreamStatus struct {
	Status        any    `json:"status"`
	StatusMessage string `json:"status_message"`
}
