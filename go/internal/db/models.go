package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type TradeHistory struct {
	ID           uuid.UUID             `json:"id"`
	PoolName     string                `json:"pool_name"`
	ProposedBy   string                `json:"proposed_by"`
	AskTo        string                `json:"ask_to"`
	FromItems    json.RawMessage       `json:"from_items"`
	ToItems      json.RawMessage       `json:"to_items"`
	Status       string                `json:"status"`
	DateCreated  time.Time             `json:"date_created"`
	DateAccepted sql.NullTime          `json:"date_accepted"`
	Settlement   pqtype.NullRawMessage `json:"settlement"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type PoolOutbox struct {
	ID        uuid.UUID       `json:"id"`
	PoolName  string          `json:"pool_name"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    sql.NullTime    `json:"sent_at"`
}
