package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const tradeHistoryColumns = `id, pool_name, proposed_by, ask_to, from_items, to_items, status, date_created, date_accepted, settlement, updated_at`

const upsertTradeHistory = `-- name: UpsertTradeHistory :one
INSERT INTO trade_history (
    id, pool_name, proposed_by, ask_to, from_items, to_items, status, date_created, date_accepted, settlement, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now()
)
ON CONFLICT (id) DO UPDATE SET
    from_items    = EXCLUDED.from_items,
    to_items      = EXCLUDED.to_items,
    status        = EXCLUDED.status,
    date_accepted = EXCLUDED.date_accepted,
    settlement    = COALESCE(EXCLUDED.settlement, trade_history.settlement),
    updated_at    = now()
RETURNING ` + tradeHistoryColumns

type UpsertTradeHistoryParams struct {
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
}

func (q *Queries) UpsertTradeHistory(ctx context.Context, arg UpsertTradeHistoryParams) (TradeHistory, error) {
	row := q.db.QueryRowContext(ctx, upsertTradeHistory,
		arg.ID,
		arg.PoolName,
		arg.ProposedBy,
		arg.AskTo,
		arg.FromItems,
		arg.ToItems,
		arg.Status,
		arg.DateCreated,
		arg.DateAccepted,
		arg.Settlement,
	)
	return scanTradeHistory(row)
}

const listTradeHistoryByPool = `-- name: ListTradeHistoryByPool :many
SELECT ` + tradeHistoryColumns + ` FROM trade_history
WHERE pool_name = $1
ORDER BY date_created DESC
LIMIT $2`

type ListTradeHistoryByPoolParams struct {
	PoolName string `json:"pool_name"`
	Limit    int32  `json:"limit"`
}

func (q *Queries) ListTradeHistoryByPool(ctx context.Context, arg ListTradeHistoryByPoolParams) ([]TradeHistory, error) {
	rows, err := q.db.QueryContext(ctx, listTradeHistoryByPool, arg.PoolName, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TradeHistory
	for rows.Next() {
		i, err := scanTradeHistory(rows)
		if err != nil {
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTradeHistory(s scanner) (TradeHistory, error) {
	var i TradeHistory
	err := s.Scan(
		&i.ID,
		&i.PoolName,
		&i.ProposedBy,
		&i.AskTo,
		&i.FromItems,
		&i.ToItems,
		&i.Status,
		&i.DateCreated,
		&i.DateAccepted,
		&i.Settlement,
		&i.UpdatedAt,
	)
	return i, err
}
