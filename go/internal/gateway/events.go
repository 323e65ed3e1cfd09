package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/poolnhl/go/internal/events"
)

// PoolEvent is what websocket clients receive for every pool event.
type PoolEvent struct {
	ID        string           `json:"id"`
	PoolName  string           `json:"pool_name"`
	Type      events.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Data      json.RawMessage  `json:"data"`
}

// ParseEventPayload decodes event data into the payload struct for its type.
func ParseEventPayload(event *PoolEvent) (interface{}, error) {
	switch event.Type {
	case events.EventTypePoolStatusChanged:
		var payload events.PoolStatusChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTradeSubmitted, events.EventTypeTradeUpdated:
		var payload events.TradePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeTradeSettled:
		var payload events.TradeSettledPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.EventTypeDraftPickMade:
		var payload events.DraftPickMadePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
