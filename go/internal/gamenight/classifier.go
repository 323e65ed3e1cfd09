package gamenight

import (
	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Result is the derived view of one calendar day's games.
type Result struct {
	Status models.GamesNightStatus `json:"status"`
	// PlayingAgainst maps a team id to the id of the team it faces that day.
	PlayingAgainst map[int]int `json:"playing_against"`
}

// Classify derives the games night status and opponent map from a day's games.
// It is pure and cheap enough to rerun on every update of the game list.
func Classify(games []models.Game) Result {
	res := Result{
		Status:         classifyStatus(games),
		PlayingAgainst: make(map[int]int, len(games)*2),
	}
	for _, g := range games {
		res.PlayingAgainst[g.HomeTeam.ID] = g.AwayTeam.ID
		res.PlayingAgainst[g.AwayTeam.ID] = g.HomeTeam.ID
	}
	return res
}

func classifyStatus(games []models.Game) models.GamesNightStatus {
	if len(games) == 0 {
		return models.GamesNightNoGames
	}

	allUpcoming := true
	for _, g := range games {
		switch g.State {
		case models.GameStateLive, models.GameStateCritical:
			return models.GamesNightLive
		case models.GameStateFuture, models.GameStatePregame, models.GameStatePostponed:
		case models.GameStateOff, models.GameStateFinal:
			allUpcoming = false
		default:
			// unknown tags never count as upcoming
			allUpcoming = false
		}
	}

	if allUpcoming {
		return models.GamesNightNotStarted
	}
	return models.GamesNightCompleted
}

// OpponentOf returns the team the given team faces, if it plays that day.
func (r Result) OpponentOf(teamID int) (int, bool) {
	opp, ok := r.PlayingAgainst[teamID]
	return opp, ok
}
