package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/events"
	"github.com/mcdev12/poolnhl/go/internal/models"
)

// HistoryRepository defines what the app layer needs from the repository
type HistoryRepository interface {
	SaveTrade(ctx context.Context, poolName string, t models.Trade, settlement json.RawMessage, msg OutboxMessage) error
	Enqueue(ctx context.Context, poolName string, msg OutboxMessage) error
	ListTrades(ctx context.Context, poolName string, limit int32) ([]models.Trade, error)
}

// App records what the pool service confirmed and queues the matching events.
type App struct {
	repo  HistoryRepository
	clock clockwork.Clock
}

// NewApp creates a new history App
func NewApp(repo HistoryRepository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// TradeSubmitted records a newly created trade.
func (a *App) TradeSubmitted(ctx context.Context, poolName string, t models.Trade) error {
	msg := OutboxMessage{
		Type:    events.EventTypeTradeSubmitted,
		Payload: events.TradePayload{PoolName: poolName, Trade: t, At: a.clock.Now().UTC()},
	}
	if err := a.repo.SaveTrade(ctx, poolName, t, nil, msg); err != nil {
		return err
	}
	log.Info().Str("pool", poolName).Str("trade_id", t.ID.String()).Msg("trade submitted")
	return nil
}

// TradeResponded records a status change. settled is true when the local read
// model swapped the assets for an accepted trade.
func (a *App) TradeResponded(ctx context.Context, poolName string, t models.Trade, settled bool) error {
	now := a.clock.Now().UTC()

	var (
		msg        OutboxMessage
		settlement json.RawMessage
	)
	if settled {
		payload := events.TradeSettledPayload{
			PoolName:   poolName,
			TradeID:    t.ID,
			ProposedBy: t.ProposedBy,
			AskTo:      t.AskTo,
			ToAskTo:    t.FromItems,
			ToProposer: t.ToItems,
			SettledAt:  now,
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal settlement: %w", err)
		}
		settlement = raw
		msg = OutboxMessage{Type: events.EventTypeTradeSettled, Payload: payload}
	} else {
		msg = OutboxMessage{
			Type:    events.EventTypeTradeUpdated,
			Payload: events.TradePayload{PoolName: poolName, Trade: t, At: now},
		}
	}

	if err := a.repo.SaveTrade(ctx, poolName, t, settlement, msg); err != nil {
		return err
	}
	log.Info().
		Str("pool", poolName).
		Str("trade_id", t.ID.String()).
		Str("status", string(t.Status)).
		Bool("settled", settled).
		Msg("trade status recorded")
	return nil
}

// StatusChanged queues a pool lifecycle event.
func (a *App) StatusChanged(ctx context.Context, poolName string, from, to models.PoolStatus) error {
	return a.repo.Enqueue(ctx, poolName, OutboxMessage{
		Type: events.EventTypePoolStatusChanged,
		Payload: events.PoolStatusChangedPayload{
			PoolName:  poolName,
			From:      from,
			To:        to,
			ChangedAt: a.clock.Now().UTC(),
		},
	})
}

// PickMade queues a draft pick event.
func (a *App) PickMade(ctx context.Context, poolName, userID string, playerID models.PlayerID, turn draft.Turn) error {
	return a.repo.Enqueue(ctx, poolName, OutboxMessage{
		Type: events.EventTypeDraftPickMade,
		Payload: events.DraftPickMadePayload{
			PoolName:    poolName,
			UserID:      userID,
			PlayerID:    playerID,
			PickIndex:   turn.PickIndex,
			Round:       turn.Round,
			PickInRound: turn.PickInRound,
			MadeAt:      a.clock.Now().UTC(),
		},
	})
}

// Trades lists recorded trades for a pool.
func (a *App) Trades(ctx context.Context, poolName string, limit int32) ([]models.Trade, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return a.repo.ListTrades(ctx, poolName, limit)
}
