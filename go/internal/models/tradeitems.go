package models

const (
	MaxTradePlayers = 5
	MaxTradePicks   = 3
)

// TradeItems is the set of assets offered by one side of a trade.
// Order is irrelevant and duplicates are never stored.
type TradeItems struct {
	Players []PlayerID  `json:"players"`
	Picks   []DraftPick `json:"picks"`
}

// AddPlayer inserts the player and reports whether the set changed.
// Adding a duplicate or exceeding MaxTradePlayers leaves the set untouched.
func (t *TradeItems) AddPlayer(id PlayerID) bool {
	if t.HasPlayer(id) || len(t.Players) >= MaxTradePlayers {
		return false
	}
	t.Players = append(t.Players, id)
	return true
}

// AddPick inserts the pick and reports whether the set changed.
// Adding a duplicate or exceeding MaxTradePicks leaves the set untouched.
func (t *TradeItems) AddPick(pick DraftPick) bool {
	if t.HasPick(pick) || len(t.Picks) >= MaxTradePicks {
		return false
	}
	t.Picks = append(t.Picks, pick)
	return true
}

// RemovePlayer removes the player if present.
func (t *TradeItems) RemovePlayer(id PlayerID) {
	for i, p := range t.Players {
		if p == id {
			t.Players = append(t.Players[:i:i], t.Players[i+1:]...)
			return
		}
	}
}

// RemovePick removes the pick if present.
func (t *TradeItems) RemovePick(pick DraftPick) {
	for i, p := range t.Picks {
		if p == pick {
			t.Picks = append(t.Picks[:i:i], t.Picks[i+1:]...)
			return
		}
	}
}

// Clear resets both sets to empty.
func (t *TradeItems) Clear() {
	t.Players = nil
	t.Picks = nil
}

func (t TradeItems) HasPlayer(id PlayerID) bool {
	for _, p := range t.Players {
		if p == id {
			return true
		}
	}
	return false
}

func (t TradeItems) HasPick(pick DraftPick) bool {
	for _, p := range t.Picks {
		if p == pick {
			return true
		}
	}
	return false
}

// IsEmpty reports whether neither players nor picks are offered.
func (t TradeItems) IsEmpty() bool {
	return len(t.Players) == 0 && len(t.Picks) == 0
}

// Clone returns a copy that shares no backing arrays with t.
func (t TradeItems) Clone() TradeItems {
	return TradeItems{
		Players: append([]PlayerID(nil), t.Players...),
		Picks:   append([]DraftPick(nil), t.Picks...),
	}
}
