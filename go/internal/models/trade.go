package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeStatus defines the status of a trade proposal.
type TradeStatus string

const (
	TradeStatusNew       TradeStatus = "NEW"
	TradeStatusAccepted  TradeStatus = "ACCEPTED"
	TradeStatusRejected  TradeStatus = "REJECTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
)

// ParseTradeStatus converts a wire value into a TradeStatus, rejecting unknown tags.
func ParseTradeStatus(s string) (TradeStatus, error) {
	switch status := TradeStatus(s); status {
	case TradeStatusNew, TradeStatusAccepted, TradeStatusRejected, TradeStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("invalid trade status: %q", s)
	}
}

// UnmarshalText lets encoding/json reject unknown statuses.
func (s *TradeStatus) UnmarshalText(text []byte) error {
	status, err := ParseTradeStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case TradeStatusNew:
		return false
	case TradeStatusAccepted, TradeStatusRejected, TradeStatusCancelled:
		return true
	default:
		return true
	}
}

// Trade is a proposed exchange of players and picks between two participants.
type Trade struct {
	ID           uuid.UUID   `json:"id"`
	ProposedBy   string      `json:"proposed_by"`
	AskTo        string      `json:"ask_to"`
	FromItems    TradeItems  `json:"from_items"`
	ToItems      TradeItems  `json:"to_items"`
	Status       TradeStatus `json:"status"`
	DateCreated  time.Time   `json:"date_created"`
	DateAccepted *time.Time  `json:"date_accepted,omitempty"`
}

// Reverse returns the trade with both sides swapped.
func (t Trade) Reverse() Trade {
	out := t.Clone()
	out.ProposedBy, out.AskTo = t.AskTo, t.ProposedBy
	out.FromItems, out.ToItems = out.ToItems, out.FromItems
	return out
}

// Clone returns a copy that shares no backing arrays with t.
func (t Trade) Clone() Trade {
	t.FromItems = t.FromItems.Clone()
	t.ToItems = t.ToItems.Clone()
	if t.DateAccepted != nil {
		at := *t.DateAccepted
		t.DateAccepted = &at
	}
	return t
}
