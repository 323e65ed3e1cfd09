package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/poolnhl/go/clients/pool_client"
	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/gamenight"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/session"
	"github.com/mcdev12/poolnhl/go/internal/trade"
)

// PoolStore defines what the app needs from the pool service
type PoolStore interface {
	GetPool(ctx context.Context, name string) (*models.Pool, error)
	CreateTrade(ctx context.Context, poolName string, t models.Trade) (*models.Trade, error)
	RespondTrade(ctx context.Context, poolName string, tradeID uuid.UUID, userID string, status models.TradeStatus) (*models.Trade, error)
	SelectPlayer(ctx context.Context, req pool_client.SelectPlayerRequest) error
}

// TradeHistory defines what the app needs from trade history
type TradeHistory interface {
	TradeSubmitted(ctx context.Context, poolName string, t models.Trade) error
	TradeResponded(ctx context.Context, poolName string, t models.Trade, settled bool) error
	StatusChanged(ctx context.Context, poolName string, from, to models.PoolStatus) error
	PickMade(ctx context.Context, poolName, userID string, playerID models.PlayerID, turn draft.Turn) error
	Trades(ctx context.Context, poolName string, limit int32) ([]models.Trade, error)
}

// GamesSource defines what the app needs from the game night tracker
type GamesSource interface {
	Get(ctx context.Context, date string) (gamenight.Snapshot, error)
}

// TradeRequest is a composed offer from the acting user to AskTo.
type TradeRequest struct {
	AskTo     string            `json:"ask_to"`
	FromItems models.TradeItems `json:"from_items"`
	ToItems   models.TradeItems `json:"to_items"`
}

// GamesNight is the game night view of one date, optionally annotated with a
// pool's rosters.
type GamesNight struct {
	Date     string                         `json:"date"`
	Status   models.GamesNightStatus        `json:"status"`
	Against  map[int]int                    `json:"playing_against"`
	Matchups map[string][]gamenight.Matchup `json:"matchups,omitempty"`
}

// App coordinates pool controllers with the pool service, the game night
// tracker and trade history.
type App struct {
	store   PoolStore
	history TradeHistory
	games   GamesSource
	clock   clockwork.Clock

	mu          sync.Mutex
	controllers map[string]*Controller

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewApp creates a new pool App
func NewApp(store PoolStore, history TradeHistory, games GamesSource, clock clockwork.Clock) *App {
	return &App{
		store:       store,
		history:     history,
		games:       games,
		clock:       clock,
		controllers: make(map[string]*Controller),
		rng:         rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// LoadPool fetches the pool from the pool service and applies it to the
// pool's controller.
func (a *App) LoadPool(ctx context.Context, name string) (*Controller, error) {
	snapshot, err := a.store.GetPool(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("pool", name).Msg("failed to fetch pool")
		return nil, fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
	}

	a.mu.Lock()
	ctrl, ok := a.controllers[name]
	if !ok {
		ctrl, err = NewController(snapshot)
		if err != nil {
			a.mu.Unlock()
			return nil, err
		}
		a.controllers[name] = ctrl
		a.mu.Unlock()
		return ctrl, nil
	}
	a.mu.Unlock()

	tr, err := ctrl.Apply(snapshot)
	if err != nil {
		return nil, err
	}
	if tr.Changed {
		log.Info().
			Str("pool", name).
			Str("from", string(tr.From)).
			Str("to", string(tr.To)).
			Msg("pool status changed")
		if err := a.history.StatusChanged(ctx, name, tr.From, tr.To); err != nil {
			log.Error().Err(err).Str("pool", name).Msg("failed to record status change")
		}
	}
	return ctrl, nil
}

// RefreshPool reloads a pool after an event from the bus.
func (a *App) RefreshPool(ctx context.Context, name string) error {
	_, err := a.LoadPool(ctx, name)
	return err
}

// controller returns the cached controller, loading it on first use.
func (a *App) controller(ctx context.Context, name string) (*Controller, error) {
	a.mu.Lock()
	ctrl, ok := a.controllers[name]
	a.mu.Unlock()
	if ok {
		return ctrl, nil
	}
	return a.LoadPool(ctx, name)
}

// GetPool returns the current snapshot and what it mounts.
func (a *App) GetPool(ctx context.Context, name string) (*models.Pool, Mounts, error) {
	ctrl, err := a.LoadPool(ctx, name)
	if err != nil {
		return nil, Mounts{}, err
	}
	return ctrl.Pool(), ctrl.Mounts(), nil
}

// DraftState returns the draft position of a pool for user.
func (a *App) DraftState(ctx context.Context, poolName, user string) (DraftState, error) {
	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return DraftState{}, err
	}
	return ctrl.DraftState(user)
}

// SubmitTrade composes a trade from user to req.AskTo and hands it to the
// pool service. Composition failures never reach the service.
func (a *App) SubmitTrade(ctx context.Context, poolName, user string, req TradeRequest) (*models.Trade, error) {
	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return nil, err
	}

	composer, err := ctrl.NewTradeComposer(user)
	if err != nil {
		return nil, err
	}
	if !composer.SelectCounterparty(req.AskTo) {
		if req.AskTo == user {
			return nil, trade.ErrSelfTrade
		}
		return nil, fmt.Errorf("counterparty %q: %w", req.AskTo, trade.ErrUnknownParticipant)
	}
	if err := composer.SetFromItems(req.FromItems); err != nil {
		return nil, err
	}
	if err := composer.SetToItems(req.ToItems); err != nil {
		return nil, err
	}

	proposal, err := composer.Build(a.clock)
	if err != nil {
		log.Debug().Err(err).Str("pool", poolName).Str("user_id", user).Msg("trade composition rejected")
		return nil, err
	}

	echo, err := a.store.CreateTrade(ctx, poolName, proposal)
	if err != nil {
		return nil, serviceError(err)
	}

	if _, err := ctrl.ApplyTradeEcho(*echo); err != nil {
		log.Warn().Err(err).Str("pool", poolName).Msg("failed to reflect submitted trade")
	}
	if err := a.history.TradeSubmitted(ctx, poolName, *echo); err != nil {
		log.Error().Err(err).Str("pool", poolName).Str("trade_id", echo.ID.String()).Msg("failed to record trade")
	}
	return echo, nil
}

// RespondTrade moves a NEW trade to a terminal status. Only the counterparty
// may accept or reject and only the proposer may cancel.
func (a *App) RespondTrade(ctx context.Context, poolName, user string, tradeID uuid.UUID, status models.TradeStatus) (*models.Trade, error) {
	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return nil, err
	}
	if !ctrl.Mounts().Trades {
		return nil, fmt.Errorf("%w: status %s", ErrTradesClosed, ctrl.Status())
	}

	current, ok := ctrl.Trade(tradeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}
	if !trade.CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", trade.ErrInvalidTransition, current.Status, status)
	}

	switch status {
	case models.TradeStatusAccepted, models.TradeStatusRejected:
		if user != current.AskTo {
			return nil, fmt.Errorf("%w: only %s can answer this trade", ErrNotAllowed, current.AskTo)
		}
	case models.TradeStatusCancelled:
		if user != current.ProposedBy {
			return nil, fmt.Errorf("%w: only %s can cancel this trade", ErrNotAllowed, current.ProposedBy)
		}
	case models.TradeStatusNew:
		return nil, fmt.Errorf("%w: %s -> %s", trade.ErrInvalidTransition, current.Status, status)
	}

	echo, err := a.store.RespondTrade(ctx, poolName, tradeID, user, status)
	if err != nil {
		return nil, serviceError(err)
	}

	settled, err := ctrl.ApplyTradeEcho(*echo)
	if err != nil {
		// the service is authoritative; the next snapshot will carry its state
		log.Warn().Err(err).Str("pool", poolName).Str("trade_id", tradeID.String()).Msg("failed to reflect trade response")
		if _, err := a.LoadPool(ctx, poolName); err != nil {
			log.Warn().Err(err).Str("pool", poolName).Msg("failed to reload pool")
		}
	}
	if err := a.history.TradeResponded(ctx, poolName, *echo, settled); err != nil {
		log.Error().Err(err).Str("pool", poolName).Str("trade_id", tradeID.String()).Msg("failed to record trade response")
	}
	return echo, nil
}

// TradeHistory lists the trades recorded for a pool. Unlike the snapshot it
// keeps trades the pool service has since dropped.
func (a *App) TradeHistory(ctx context.Context, poolName string, limit int32) ([]models.Trade, error) {
	if _, err := a.controller(ctx, poolName); err != nil {
		return nil, err
	}
	trades, err := a.history.Trades(ctx, poolName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade history: %w", err)
	}
	return trades, nil
}

// SubmitDraftPick picks playerID for user at the current pick index. The
// pool service advances the counter; the pool is re-read afterwards.
func (a *App) SubmitDraftPick(ctx context.Context, poolName, user string, playerID models.PlayerID) (draft.Turn, error) {
	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return draft.Turn{}, err
	}

	state, turn, err := ctrl.draftTurn(user)
	if err != nil {
		return draft.Turn{}, err
	}
	if state.Complete {
		return draft.Turn{}, ErrDraftComplete
	}
	if !state.IsUserTurn {
		return draft.Turn{}, fmt.Errorf("%w: %s is on the clock", ErrNotYourTurn, state.PickOwner)
	}
	if owner, taken := ctrl.Pool().PlayerOwner(playerID); taken {
		return draft.Turn{}, fmt.Errorf("%w: %d belongs to %s", ErrPlayerTaken, playerID, owner)
	}

	err = a.store.SelectPlayer(ctx, pool_client.SelectPlayerRequest{
		PoolName:  poolName,
		UserID:    user,
		PlayerID:  playerID,
		PickIndex: state.PickIndex,
	})
	if err != nil {
		return draft.Turn{}, serviceError(err)
	}

	if _, err := a.LoadPool(ctx, poolName); err != nil {
		log.Warn().Err(err).Str("pool", poolName).Msg("failed to re-read pool after pick")
	}
	if err := a.history.PickMade(ctx, poolName, user, playerID, turn); err != nil {
		log.Error().Err(err).Str("pool", poolName).Msg("failed to record draft pick")
	}
	return turn, nil
}

// GamesNight classifies the session's selected date. With a pool name whose
// status shows scoring, every roster is annotated with tonight's opponents.
func (a *App) GamesNight(ctx context.Context, sess session.Context, poolName string) (GamesNight, error) {
	snap, err := a.games.Get(ctx, sess.Date)
	if err != nil {
		return GamesNight{}, err
	}

	out := GamesNight{
		Date:    snap.Date,
		Status:  snap.Result.Status,
		Against: snap.Result.PlayingAgainst,
	}
	if poolName == "" {
		return out, nil
	}

	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return GamesNight{}, err
	}
	if ctrl.Mounts().Scoring {
		out.Matchups = gamenight.Annotate(ctrl.Pool(), snap.Result)
	}
	return out, nil
}

// BuildDraftOrder previews the draft order the pool owner is setting up
// while the pool is still Created. An empty positions list shuffles.
func (a *App) BuildDraftOrder(ctx context.Context, poolName, user string, positions []string) ([]string, error) {
	ctrl, err := a.controller(ctx, poolName)
	if err != nil {
		return nil, err
	}
	p := ctrl.Pool()
	if p.Status != models.PoolStatusCreated {
		return nil, fmt.Errorf("%w: draft order is fixed once status is %s", ErrNotAllowed, p.Status)
	}
	if user != p.Owner {
		return nil, fmt.Errorf("%w: only the pool owner sets the draft order", ErrNotAllowed)
	}

	if len(positions) == 0 {
		a.rngMu.Lock()
		defer a.rngMu.Unlock()
		return draft.Shuffle(p.ParticipantIDs(), a.rng), nil
	}

	builder := draft.NewOrderBuilder(p.ParticipantIDs())
	for pos, id := range positions {
		if id == "" {
			continue
		}
		if err := builder.Assign(pos, id); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// serviceError keeps authoritative rejections as they are and marks
// everything else as the pool service being unavailable.
func serviceError(err error) error {
	var rejected *pool_client.RejectedError
	if errors.As(err, &rejected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPoolUnavailable, err)
}
