package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const insertPoolOutbox = `-- name: InsertPoolOutbox :exec
INSERT INTO pool_outbox (id, pool_name, event_type, payload)
VALUES ($1, $2, $3, $4)`

type InsertPoolOutboxParams struct {
	ID        uuid.UUID       `json:"id"`
	PoolName  string          `json:"pool_name"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

func (q *Queries) InsertPoolOutbox(ctx context.Context, arg InsertPoolOutboxParams) error {
	_, err := q.db.ExecContext(ctx, insertPoolOutbox,
		arg.ID,
		arg.PoolName,
		arg.EventType,
		arg.Payload,
	)
	return err
}

const fetchUnsentOutbox = `-- name: FetchUnsentOutbox :many
SELECT id, pool_name, event_type, payload, created_at, sent_at FROM pool_outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED`

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]PoolOutbox, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PoolOutbox
	for rows.Next() {
		var i PoolOutbox
		if err := rows.Scan(
			&i.ID,
			&i.PoolName,
			&i.EventType,
			&i.Payload,
			&i.CreatedAt,
			&i.SentAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const fetchOutboxByID = `-- name: FetchOutboxByID :one
SELECT id, pool_name, event_type, payload, created_at, sent_at FROM pool_outbox
WHERE id = $1 AND sent_at IS NULL`

func (q *Queries) FetchOutboxByID(ctx context.Context, id uuid.UUID) (PoolOutbox, error) {
	row := q.db.QueryRowContext(ctx, fetchOutboxByID, id)
	var i PoolOutbox
	err := row.Scan(
		&i.ID,
		&i.PoolName,
		&i.EventType,
		&i.Payload,
		&i.CreatedAt,
		&i.SentAt,
	)
	return i, err
}

const markOutboxSent = `-- name: MarkOutboxSent :exec
UPDATE pool_outbox SET sent_at = now()
WHERE id = $1`

func (q *Queries) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markOutboxSent, id)
	return err
}
