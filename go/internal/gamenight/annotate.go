package gamenight

import (
	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Matchup is a rostered player who plays on the classified day.
type Matchup struct {
	Participant string          `json:"participant"`
	PlayerID    models.PlayerID `json:"player_id"`
	TeamID      int             `json:"team_id"`
	OpponentID  int             `json:"opponent_id"`
}

// Annotate lists, per participant, the rostered players whose team plays on
// the classified day together with the opponent they face. Players missing
// from the pool's roster context are skipped.
func Annotate(pool *models.Pool, res Result) map[string][]Matchup {
	out := make(map[string][]Matchup, len(pool.Participants))
	for _, u := range pool.Participants {
		var matchups []Matchup
		for _, id := range u.Players {
			player, ok := pool.Players[id]
			if !ok {
				continue
			}
			opp, ok := res.OpponentOf(player.TeamID)
			if !ok {
				continue
			}
			matchups = append(matchups, Matchup{
				Participant: u.ID,
				PlayerID:    id,
				TeamID:      player.TeamID,
				OpponentID:  opp,
			})
		}
		out[u.ID] = matchups
	}
	return out
}
