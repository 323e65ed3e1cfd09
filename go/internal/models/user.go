package models

// PoolUser is one participant of a pool with the players and future picks they own.
type PoolUser struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Players []PlayerID  `json:"players"`
	Picks   []DraftPick `json:"picks"`
}

// HasPlayer reports whether the player is on this participant's roster.
func (u PoolUser) HasPlayer(id PlayerID) bool {
	for _, p := range u.Players {
		if p == id {
			return true
		}
	}
	return false
}

// HasPick reports whether this participant holds the pick.
func (u PoolUser) HasPick(pick DraftPick) bool {
	for _, p := range u.Picks {
		if p == pick {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no backing arrays with u.
func (u PoolUser) Clone() PoolUser {
	u.Players = append([]PlayerID(nil), u.Players...)
	u.Picks = append([]DraftPick(nil), u.Picks...)
	return u
}
