package models

import (
	"fmt"
)

// PoolStatus is the lifecycle phase of a pool
type PoolStatus string

const (
	PoolStatusCreated    PoolStatus = "CREATED"
	PoolStatusDraft      PoolStatus = "DRAFT"
	PoolStatusInProgress PoolStatus = "IN_PROGRESS"
	PoolStatusFinal      PoolStatus = "FINAL"
	PoolStatusDynasty    PoolStatus = "DYNASTY"
)

// ParsePoolStatus converts a wire value into a PoolStatus, rejecting unknown tags.
func ParsePoolStatus(s string) (PoolStatus, error) {
	switch status := PoolStatus(s); status {
	case PoolStatusCreated, PoolStatusDraft, PoolStatusInProgress, PoolStatusFinal, PoolStatusDynasty:
		return status, nil
	default:
		return "", fmt.Errorf("invalid pool status: %q", s)
	}
}

// UnmarshalText lets encoding/json reject unknown statuses.
func (s *PoolStatus) UnmarshalText(text []byte) error {
	status, err := ParsePoolStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// PoolSettings holds the draft configuration carried by the pool snapshot.
type PoolSettings struct {
	DraftRounds        int  `json:"draft_rounds"`
	SnakeDraft         bool `json:"snake_draft"`
	ThirdRoundReversal bool `json:"third_round_reversal,omitempty"`
}

// Pool is the root aggregate of a hockey pool as served by the pool service.
type Pool struct {
	Name         string              `json:"name"`
	Owner        string              `json:"owner"`
	Status       PoolStatus          `json:"status"`
	Season       int                 `json:"season"`
	SeasonStart  string              `json:"season_start"` // YYYY-MM-DD
	SeasonEnd    string              `json:"season_end"`   // YYYY-MM-DD
	Settings     PoolSettings        `json:"settings"`
	Participants []PoolUser          `json:"participants"`
	DraftOrder   []string            `json:"draft_order,omitempty"`
	PickIndex    int                 `json:"pick_index"`
	Players      map[PlayerID]Player `json:"players"`
	Trades       []Trade             `json:"trades,omitempty"`
}

// Participant returns the participant with the given id.
func (p *Pool) Participant(id string) (*PoolUser, bool) {
	for i := range p.Participants {
		if p.Participants[i].ID == id {
			return &p.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantIDs returns participant ids in pool order.
func (p *Pool) ParticipantIDs() []string {
	ids := make([]string, len(p.Participants))
	for i, u := range p.Participants {
		ids[i] = u.ID
	}
	return ids
}

// PlayerOwner returns the id of the participant rostering the player, if any.
func (p *Pool) PlayerOwner(id PlayerID) (string, bool) {
	for _, u := range p.Participants {
		if u.HasPlayer(id) {
			return u.ID, true
		}
	}
	return "", false
}

// PickOwner returns the id of the participant currently holding the pick, if any.
func (p *Pool) PickOwner(pick DraftPick) (string, bool) {
	for _, u := range p.Participants {
		if u.HasPick(pick) {
			return u.ID, true
		}
	}
	return "", false
}

// Clone returns a deep copy so callers can build a replacement snapshot
// without touching the one readers currently see.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	out := *p
	out.Participants = make([]PoolUser, len(p.Participants))
	for i, u := range p.Participants {
		out.Participants[i] = u.Clone()
	}
	out.DraftOrder = append([]string(nil), p.DraftOrder...)
	if p.Players != nil {
		out.Players = make(map[PlayerID]Player, len(p.Players))
		for id, player := range p.Players {
			out.Players[id] = player
		}
	}
	out.Trades = make([]Trade, len(p.Trades))
	for i, t := range p.Trades {
		out.Trades[i] = t.Clone()
	}
	return &out
}
