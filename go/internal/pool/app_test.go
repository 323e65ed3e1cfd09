package pool

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/poolnhl/go/clients/pool_client"
	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/gamenight"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/session"
	"github.com/mcdev12/poolnhl/go/internal/trade"
)

// fakeStore plays the pool service: it owns the pool and applies trades and
// picks the way the real service does.
type fakeStore struct {
	mu        sync.Mutex
	pool      *models.Pool
	getErr    error
	rejectMsg string
	picks     []pool_client.SelectPlayerRequest
	created   []models.Trade
}

func (f *fakeStore) GetPool(_ context.Context, name string) (*models.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.pool == nil || f.pool.Name != name {
		return nil, &pool_client.RejectedError{StatusCode: http.StatusNotFound, Message: "pool not found"}
	}
	return f.pool.Clone(), nil
}

func (f *fakeStore) CreateTrade(_ context.Context, _ string, t models.Trade) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectMsg != "" {
		return nil, &pool_client.RejectedError{StatusCode: http.StatusConflict, Message: f.rejectMsg}
	}
	f.created = append(f.created, t)
	f.pool.Trades = append(f.pool.Trades, t)
	echo := t.Clone()
	return &echo, nil
}

func (f *fakeStore) RespondTrade(_ context.Context, _ string, id uuid.UUID, _ string, status models.TradeStatus) (*models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.pool.Trades {
		if t.ID != id {
			continue
		}
		next, err := trade.Transition(t, status, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC))
		if err != nil {
			return nil, &pool_client.RejectedError{StatusCode: http.StatusConflict, Message: err.Error()}
		}
		if status == models.TradeStatusAccepted {
			swapped, err := trade.Settle(f.pool, next)
			if err != nil {
				return nil, &pool_client.RejectedError{StatusCode: http.StatusConflict, Message: err.Error()}
			}
			f.pool = swapped
		}
		f.pool.Trades[i] = next
		echo := next.Clone()
		return &echo, nil
	}
	return nil, &pool_client.RejectedError{StatusCode: http.StatusNotFound, Message: "trade not found"}
}

func (f *fakeStore) SelectPlayer(_ context.Context, req pool_client.SelectPlayerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.PickIndex != f.pool.PickIndex {
		return &pool_client.RejectedError{StatusCode: http.StatusConflict, Message: "stale pick index"}
	}
	f.picks = append(f.picks, req)
	u, _ := f.pool.Participant(req.UserID)
	u.Players = append(u.Players, req.PlayerID)
	f.pool.PickIndex++
	return nil
}

func (f *fakeStore) setStatus(status models.PoolStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pool.Status = status
}

type recorded struct {
	kind    string
	settled bool
	turn    draft.Turn
}

type fakeHistory struct {
	mu      sync.Mutex
	records []recorded
	err     error
	trades  []models.Trade
}

func (f *fakeHistory) add(r recorded) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return f.err
}

func (f *fakeHistory) TradeSubmitted(context.Context, string, models.Trade) error {
	return f.add(recorded{kind: "submitted"})
}

func (f *fakeHistory) TradeResponded(_ context.Context, _ string, _ models.Trade, settled bool) error {
	return f.add(recorded{kind: "responded", settled: settled})
}

func (f *fakeHistory) StatusChanged(context.Context, string, models.PoolStatus, models.PoolStatus) error {
	return f.add(recorded{kind: "status"})
}

func (f *fakeHistory) PickMade(_ context.Context, _, _ string, _ models.PlayerID, turn draft.Turn) error {
	return f.add(recorded{kind: "pick", turn: turn})
}

func (f *fakeHistory) Trades(context.Context, string, int32) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, f.err
}

type fakeGames struct {
	snap gamenight.Snapshot
	err  error
}

func (f *fakeGames) Get(_ context.Context, date string) (gamenight.Snapshot, error) {
	if f.err != nil {
		return gamenight.Snapshot{Date: date, Err: f.err}, f.err
	}
	snap := f.snap
	snap.Date = date
	return snap, nil
}

func newTestApp(status models.PoolStatus) (*App, *fakeStore, *fakeHistory, *fakeGames) {
	store := &fakeStore{pool: fixturePool(status)}
	hist := &fakeHistory{}
	games := &fakeGames{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC))
	return NewApp(store, hist, games, clock), store, hist, games
}

func TestApp_LoadPoolUnavailable(t *testing.T) {
	app, store, _, _ := newTestApp(models.PoolStatusInProgress)
	store.getErr = errors.New("connection refused")

	_, err := app.LoadPool(context.Background(), "pool-1")
	assert.ErrorIs(t, err, ErrPoolUnavailable)
}

func TestApp_LoadPoolRecordsStatusChanges(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusDraft)
	ctx := context.Background()

	_, err := app.LoadPool(ctx, "pool-1")
	require.NoError(t, err)
	assert.Empty(t, hist.records)

	store.setStatus(models.PoolStatusInProgress)
	require.NoError(t, app.RefreshPool(ctx, "pool-1"))
	require.Len(t, hist.records, 1)
	assert.Equal(t, "status", hist.records[0].kind)
}

func TestApp_SubmitAndAcceptTrade(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusInProgress)
	ctx := context.Background()

	submitted, err := app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{
		AskTo:     "bob",
		FromItems: models.TradeItems{Players: []models.PlayerID{1}},
		ToItems:   models.TradeItems{Players: []models.PlayerID{3}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusNew, submitted.Status)
	assert.Equal(t, time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC), submitted.DateCreated)
	require.Len(t, store.created, 1)

	// only the counterparty can accept
	_, err = app.RespondTrade(ctx, "pool-1", "alice", submitted.ID, models.TradeStatusAccepted)
	assert.ErrorIs(t, err, ErrNotAllowed)

	accepted, err := app.RespondTrade(ctx, "pool-1", "bob", submitted.ID, models.TradeStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.DateAccepted)

	p, _, err := app.GetPool(ctx, "pool-1")
	require.NoError(t, err)
	owner, _ := p.PlayerOwner(1)
	assert.Equal(t, "bob", owner)

	require.Len(t, hist.records, 2)
	assert.Equal(t, "submitted", hist.records[0].kind)
	assert.Equal(t, recorded{kind: "responded", settled: true}, hist.records[1])

	// terminal
	_, err = app.RespondTrade(ctx, "pool-1", "alice", submitted.ID, models.TradeStatusCancelled)
	assert.ErrorIs(t, err, trade.ErrInvalidTransition)
}

func TestApp_CancelIsProposerOnly(t *testing.T) {
	app, _, hist, _ := newTestApp(models.PoolStatusInProgress)
	ctx := context.Background()

	submitted, err := app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{
		AskTo:     "bob",
		FromItems: models.TradeItems{Players: []models.PlayerID{2}},
	})
	require.NoError(t, err)

	_, err = app.RespondTrade(ctx, "pool-1", "bob", submitted.ID, models.TradeStatusCancelled)
	assert.ErrorIs(t, err, ErrNotAllowed)

	cancelled, err := app.RespondTrade(ctx, "pool-1", "alice", submitted.ID, models.TradeStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusCancelled, cancelled.Status)
	assert.Equal(t, recorded{kind: "responded"}, hist.records[len(hist.records)-1])

	_, err = app.RespondTrade(ctx, "pool-1", "alice", uuid.New(), models.TradeStatusCancelled)
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestApp_SubmitTradeCompositionErrors(t *testing.T) {
	app, store, _, _ := newTestApp(models.PoolStatusInProgress)
	ctx := context.Background()

	_, err := app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{AskTo: "alice", FromItems: models.TradeItems{Players: []models.PlayerID{1}}})
	assert.ErrorIs(t, err, trade.ErrSelfTrade)

	_, err = app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{AskTo: "zed", FromItems: models.TradeItems{Players: []models.PlayerID{1}}})
	assert.ErrorIs(t, err, trade.ErrUnknownParticipant)

	_, err = app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{AskTo: "bob"})
	assert.ErrorIs(t, err, trade.ErrEmptyTrade)

	_, err = app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{AskTo: "bob", FromItems: models.TradeItems{Players: []models.PlayerID{3}}})
	assert.ErrorIs(t, err, trade.ErrAssetNotOwned)

	assert.Empty(t, store.created)
}

func TestApp_SubmitTradeRefusesOversizedSide(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusInProgress)
	store.pool.Participants[0].Players = []models.PlayerID{1, 2, 101, 102, 103, 104}
	ctx := context.Background()

	_, err := app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{
		AskTo:     "bob",
		FromItems: models.TradeItems{Players: []models.PlayerID{1, 101, 102, 103, 104, 2}},
	})
	assert.ErrorIs(t, err, trade.ErrTooManyItems)

	_, err = app.SubmitTrade(ctx, "pool-1", "alice", TradeRequest{
		AskTo:   "bob",
		ToItems: models.TradeItems{Players: []models.PlayerID{3, 3}},
	})
	assert.ErrorIs(t, err, trade.ErrDuplicateItem)

	assert.Empty(t, store.created)
	assert.Empty(t, hist.records)
}

func TestApp_TradeHistory(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusInProgress)
	ctx := context.Background()
	hist.trades = []models.Trade{{ID: uuid.New(), ProposedBy: "alice", AskTo: "bob", Status: models.TradeStatusRejected}}

	trades, err := app.TradeHistory(ctx, "pool-1", 10)
	require.NoError(t, err)
	assert.Equal(t, hist.trades, trades)

	hist.err = errors.New("db down")
	_, err = app.TradeHistory(ctx, "pool-1", 10)
	assert.Error(t, err)

	store.getErr = errors.New("connection refused")
	_, err = app.TradeHistory(ctx, "pool-2", 10)
	assert.ErrorIs(t, err, ErrPoolUnavailable)
}

func TestApp_SubmitTradeRejectedVerbatim(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusInProgress)
	store.rejectMsg = "trade deadline has passed"

	_, err := app.SubmitTrade(context.Background(), "pool-1", "alice", TradeRequest{
		AskTo:     "bob",
		FromItems: models.TradeItems{Players: []models.PlayerID{1}},
	})
	var rejected *pool_client.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "trade deadline has passed", rejected.Message)
	assert.NotErrorIs(t, err, ErrPoolUnavailable)
	assert.Empty(t, hist.records)
}

func TestApp_TradesClosedDuringDraft(t *testing.T) {
	app, _, _, _ := newTestApp(models.PoolStatusDraft)

	_, err := app.SubmitTrade(context.Background(), "pool-1", "alice", TradeRequest{
		AskTo:     "bob",
		FromItems: models.TradeItems{Players: []models.PlayerID{1}},
	})
	assert.ErrorIs(t, err, ErrTradesClosed)
}

func TestApp_SubmitDraftPick(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusDraft)
	ctx := context.Background()

	_, err := app.SubmitDraftPick(ctx, "pool-1", "bob", 99)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = app.SubmitDraftPick(ctx, "pool-1", "alice", 3)
	assert.ErrorIs(t, err, ErrPlayerTaken)
	assert.Empty(t, store.picks)

	turn, err := app.SubmitDraftPick(ctx, "pool-1", "alice", 99)
	require.NoError(t, err)
	assert.Equal(t, draft.Turn{PickIndex: 0, Round: 1, PickInRound: 1, Drafter: "alice"}, turn)
	require.Len(t, store.picks, 1)
	assert.Equal(t, 0, store.picks[0].PickIndex)

	// the re-read pool moved the clock to bob
	state, err := app.DraftState(ctx, "pool-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, state.PickIndex)
	assert.True(t, state.IsUserTurn)

	require.Len(t, hist.records, 1)
	assert.Equal(t, "pick", hist.records[0].kind)
}

func TestApp_SubmitDraftPickWithTradedPick(t *testing.T) {
	app, store, hist, _ := newTestApp(models.PoolStatusDraft)
	store.pool.PickIndex = 1 // bob's slot, pick now held by carol
	store.pool.Participants[1].Picks = nil
	store.pool.Participants[2].Picks = []models.DraftPick{{From: "bob", Round: 0, Season: 2025}}
	ctx := context.Background()

	_, err := app.SubmitDraftPick(ctx, "pool-1", "bob", 99)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	turn, err := app.SubmitDraftPick(ctx, "pool-1", "carol", 99)
	require.NoError(t, err)
	assert.Equal(t, draft.Turn{PickIndex: 1, Round: 1, PickInRound: 2, Drafter: "bob"}, turn)
	require.Len(t, store.picks, 1)
	assert.Equal(t, turn.PickIndex, store.picks[0].PickIndex)
	require.Len(t, hist.records, 1)
}

func TestApp_SubmitDraftPickOutsideDraft(t *testing.T) {
	app, _, _, _ := newTestApp(models.PoolStatusInProgress)

	_, err := app.SubmitDraftPick(context.Background(), "pool-1", "alice", 99)
	assert.ErrorIs(t, err, ErrNotInDraft)
}

func TestApp_GamesNight(t *testing.T) {
	app, _, _, games := newTestApp(models.PoolStatusInProgress)
	games.snap = gamenight.Snapshot{Result: gamenight.Classify([]models.Game{
		{ID: 1, State: models.GameStateLive, HomeTeam: models.GameTeam{ID: 22}, AwayTeam: models.GameTeam{ID: 6}},
	})}

	sess := session.New("alice", clockwork.NewFakeClockAt(time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)), time.UTC)
	night, err := app.GamesNight(context.Background(), sess, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10", night.Date)
	assert.Equal(t, models.GamesNightLive, night.Status)
	assert.Equal(t, 6, night.Against[22])
	assert.NotEmpty(t, night.Matchups["alice"])

	// without a pool the view is just the classification
	night, err = app.GamesNight(context.Background(), sess, "")
	require.NoError(t, err)
	assert.Nil(t, night.Matchups)
}

func TestApp_GamesNightUnavailable(t *testing.T) {
	app, _, _, games := newTestApp(models.PoolStatusInProgress)
	games.err = gamenight.ErrGamesUnavailable

	_, err := app.GamesNight(context.Background(), session.Context{Date: "2025-01-10"}, "")
	assert.ErrorIs(t, err, gamenight.ErrGamesUnavailable)
}

func TestApp_BuildDraftOrder(t *testing.T) {
	app, _, _, _ := newTestApp(models.PoolStatusCreated)
	ctx := context.Background()

	order, err := app.BuildDraftOrder(ctx, "pool-1", "alice", []string{"carol", "alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "bob"}, order)

	_, err = app.BuildDraftOrder(ctx, "pool-1", "alice", []string{"carol", "carol", "bob"})
	assert.ErrorIs(t, err, draft.ErrDuplicateAssignment)

	_, err = app.BuildDraftOrder(ctx, "pool-1", "bob", nil)
	assert.ErrorIs(t, err, ErrNotAllowed)

	for i := 0; i < 5; i++ {
		shuffled, err := app.BuildDraftOrder(ctx, "pool-1", "alice", nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, shuffled)
	}
}
