package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/poolnhl/go/internal/db"
	"github.com/mcdev12/poolnhl/go/internal/events"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/sqlutil"
)

// Repository stores trade history rows and their outbox events.
type Repository struct {
	conn    *sql.DB
	queries *db.Queries
}

// NewRepository creates a new history repository
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		conn:    conn,
		queries: db.New(conn),
	}
}

// OutboxMessage is an event to enqueue alongside a write.
type OutboxMessage struct {
	Type    events.EventType
	Payload any
}

// SaveTrade upserts the trade and enqueues msg in the same transaction.
func (r *Repository) SaveTrade(ctx context.Context, poolName string, t models.Trade, settlement json.RawMessage, msg OutboxMessage) error {
	params, err := tradeToParams(poolName, t, settlement)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msg.Type, err)
	}

	err = sqlutil.Run(ctx, r.conn, r.queries.WithTx, func(q *db.Queries) error {
		if _, err := q.UpsertTradeHistory(ctx, params); err != nil {
			return fmt.Errorf("failed to upsert trade history: %w", err)
		}
		return q.InsertPoolOutbox(ctx, db.InsertPoolOutboxParams{
			ID:        uuid.New(),
			PoolName:  poolName,
			EventType: string(msg.Type),
			Payload:   payload,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
	}
	return nil
}

// Enqueue writes an outbox event on its own.
func (r *Repository) Enqueue(ctx context.Context, poolName string, msg OutboxMessage) error {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msg.Type, err)
	}
	err = r.queries.InsertPoolOutbox(ctx, db.InsertPoolOutboxParams{
		ID:        uuid.New(),
		PoolName:  poolName,
		EventType: string(msg.Type),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", msg.Type, err)
	}
	return nil
}

// ListTrades returns the most recent trades of a pool, newest first.
func (r *Repository) ListTrades(ctx context.Context, poolName string, limit int32) ([]models.Trade, error) {
	rows, err := r.queries.ListTradeHistoryByPool(ctx, db.ListTradeHistoryByPoolParams{
		PoolName: poolName,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trade history: %w", err)
	}

	trades := make([]models.Trade, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTrade(row)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, nil
}

func tradeToParams(poolName string, t models.Trade, settlement json.RawMessage) (db.UpsertTradeHistoryParams, error) {
	from, err := json.Marshal(t.FromItems)
	if err != nil {
		return db.UpsertTradeHistoryParams{}, fmt.Errorf("failed to marshal from items: %w", err)
	}
	to, err := json.Marshal(t.ToItems)
	if err != nil {
		return db.UpsertTradeHistoryParams{}, fmt.Errorf("failed to marshal to items: %w", err)
	}
	return db.UpsertTradeHistoryParams{
		ID:           t.ID,
		PoolName:     poolName,
		ProposedBy:   t.ProposedBy,
		AskTo:        t.AskTo,
		FromItems:    from,
		ToItems:      to,
		Status:       string(t.Status),
		DateCreated:  t.DateCreated,
		DateAccepted: sqlutil.ToSqlTime(t.DateAccepted),
		Settlement:   sqlutil.ToNullRawMessage(settlement),
	}, nil
}

func rowToTrade(row db.TradeHistory) (*models.Trade, error) {
	status, err := models.ParseTradeStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", row.ID, err)
	}
	t := &models.Trade{
		ID:           row.ID,
		ProposedBy:   row.ProposedBy,
		AskTo:        row.AskTo,
		Status:       status,
		DateCreated:  row.DateCreated.UTC(),
		DateAccepted: sqlutil.FromSqlTime(row.DateAccepted),
	}
	if err := json.Unmarshal(row.FromItems, &t.FromItems); err != nil {
		return nil, fmt.Errorf("trade %s from items: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.ToItems, &t.ToItems); err != nil {
		return nil, fmt.Errorf("trade %s to items: %w", row.ID, err)
	}
	return t, nil
}
