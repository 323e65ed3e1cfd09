package models

// PlayerID is the stats API identifier of a hockey player.
type PlayerID int

// Player holds the roster-context attributes used to display trade items.
type Player struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	TeamID   int      `json:"team_id"`
	Position string   `json:"position"` // F, D or G
}

// DraftPick is a future draft selection right. Round is 0-indexed.
type DraftPick struct {
	From   string `json:"from"`
	Round  int    `json:"round"`
	Season int    `json:"season"`
}
