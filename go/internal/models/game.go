package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date key used by the stats API and the pool service.
const DateLayout = "2006-01-02"

// GameState is the stats API game-state tag.
type GameState string

const (
	GameStateFuture    GameState = "FUT"
	GameStatePregame   GameState = "PRE"
	GameStatePostponed GameState = "PPD"
	GameStateLive      GameState = "LIVE"
	GameStateCritical  GameState = "CRIT"
	GameStateOff       GameState = "OFF"
	GameStateFinal     GameState = "FINAL"
)

// ParseGameState converts a wire value into a GameState, rejecting unknown tags.
func ParseGameState(s string) (GameState, error) {
	switch state := GameState(s); state {
	case GameStateFuture, GameStatePregame, GameStatePostponed,
		GameStateLive, GameStateCritical, GameStateOff, GameStateFinal:
		return state, nil
	default:
		return "", fmt.Errorf("invalid game state: %q", s)
	}
}

// UnmarshalText lets encoding/json reject unknown states.
func (s *GameState) UnmarshalText(text []byte) error {
	state, err := ParseGameState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// GameTeam is one side of a scheduled game.
type GameTeam struct {
	ID     int    `json:"id"`
	Abbrev string `json:"abbrev"`
	Score  *int   `json:"score,omitempty"`
}

// Game is one NHL game on a given day.
type Game struct {
	ID           int       `json:"id"`
	State        GameState `json:"game_state"`
	HomeTeam     GameTeam  `json:"home_team"`
	AwayTeam     GameTeam  `json:"away_team"`
	StartTimeUTC time.Time `json:"start_time_utc"`
}

// GamesNightStatus classifies a calendar day's games.
type GamesNightStatus string

const (
	GamesNightLive       GamesNightStatus = "LIVE"
	GamesNightCompleted  GamesNightStatus = "COMPLETED"
	GamesNightNotStarted GamesNightStatus = "NOT_STARTED"
	GamesNightNoGames    GamesNightStatus = "NO_GAMES"
)
