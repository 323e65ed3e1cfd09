package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Event payload types shared by the outbox relay and the gateway

// EventType names a pool event. It is also the last token of the NATS subject.
type EventType string

const (
	EventTypePoolStatusChanged EventType = "PoolStatusChanged"
	EventTypeTradeSubmitted    EventType = "TradeSubmitted"
	EventTypeTradeUpdated      EventType = "TradeUpdated"
	EventTypeTradeSettled      EventType = "TradeSettled"
	EventTypeDraftPickMade     EventType = "DraftPickMade"
)

// ParseEventType rejects event types this service does not know.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(s); t {
	case EventTypePoolStatusChanged, EventTypeTradeSubmitted, EventTypeTradeUpdated,
		EventTypeTradeSettled, EventTypeDraftPickMade:
		return t, nil
	default:
		return "", fmt.Errorf("unknown event type: %s", s)
	}
}

// Envelope is the message body published on the event bus.
type Envelope struct {
	EventID   uuid.UUID       `json:"eventId"`
	EventType EventType       `json:"eventType"`
	PoolName  string          `json:"poolName"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// PoolStatusChangedPayload is the payload for a PoolStatusChanged event
type PoolStatusChangedPayload struct {
	PoolName  string            `json:"pool_name"`
	From      models.PoolStatus `json:"from,omitempty"`
	To        models.PoolStatus `json:"to"`
	ChangedAt time.Time         `json:"changed_at"`
}

// TradePayload is the payload for TradeSubmitted and TradeUpdated events
type TradePayload struct {
	PoolName string       `json:"pool_name"`
	Trade    models.Trade `json:"trade"`
	At       time.Time    `json:"at"`
}

// TradeSettledPayload is the payload for a TradeSettled event
type TradeSettledPayload struct {
	PoolName   string            `json:"pool_name"`
	TradeID    uuid.UUID         `json:"trade_id"`
	ProposedBy string            `json:"proposed_by"`
	AskTo      string            `json:"ask_to"`
	ToAskTo    models.TradeItems `json:"to_ask_to"`
	ToProposer models.TradeItems `json:"to_proposer"`
	SettledAt  time.Time         `json:"settled_at"`
}

// DraftPickMadePayload is the payload for a DraftPickMade event
type DraftPickMadePayload struct {
	PoolName    string          `json:"pool_name"`
	UserID      string          `json:"user_id"`
	PlayerID    models.PlayerID `json:"player_id"`
	PickIndex   int             `json:"pick_index"`
	Round       int             `json:"round"`
	PickInRound int             `json:"pick_in_round"`
	MadeAt      time.Time       `json:"made_at"`
}
