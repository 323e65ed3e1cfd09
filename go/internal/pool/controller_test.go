package pool

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/trade"
)

func fixturePool(status models.PoolStatus) *models.Pool {
	return &models.Pool{
		Name:     "pool-1",
		Owner:    "alice",
		Status:   status,
		Season:   2025,
		Settings: models.PoolSettings{DraftRounds: 2},
		Participants: []models.PoolUser{
			{ID: "alice", Players: []models.PlayerID{1, 2}, Picks: []models.DraftPick{{From: "alice", Round: 0, Season: 2025}}},
			{ID: "bob", Players: []models.PlayerID{3, 4}, Picks: []models.DraftPick{{From: "bob", Round: 0, Season: 2025}}},
			{ID: "carol", Players: []models.PlayerID{5}},
		},
		DraftOrder: []string{"alice", "bob", "carol"},
		Players: map[models.PlayerID]models.Player{
			1: {ID: 1, TeamID: 22}, 2: {ID: 2, TeamID: 10}, 3: {ID: 3, TeamID: 6},
			4: {ID: 4, TeamID: 8}, 5: {ID: 5, TeamID: 22},
		},
	}
}

func TestMountsFor(t *testing.T) {
	tests := []struct {
		status models.PoolStatus
		want   Mounts
	}{
		{models.PoolStatusCreated, Mounts{}},
		{models.PoolStatusDraft, Mounts{Sequencer: true}},
		{models.PoolStatusInProgress, Mounts{Trades: true, Scoring: true}},
		{models.PoolStatusDynasty, Mounts{Trades: true, Scoring: true}},
		{models.PoolStatusFinal, Mounts{Scoring: true, ReadOnly: true}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, MountsFor(tt.status))
		})
	}
}

func TestController_NoTradesBeforeTheSeason(t *testing.T) {
	for _, status := range []models.PoolStatus{models.PoolStatusCreated, models.PoolStatusDraft, models.PoolStatusFinal} {
		ctrl, err := NewController(fixturePool(status))
		require.NoError(t, err)

		assert.False(t, ctrl.Mounts().Trades, status)
		_, err = ctrl.NewTradeComposer("alice")
		assert.ErrorIs(t, err, ErrTradesClosed, status)
		_, err = ctrl.ApplyTradeEcho(models.Trade{ID: uuid.New(), Status: models.TradeStatusNew})
		assert.ErrorIs(t, err, ErrTradesClosed, status)
	}
}

func TestController_ApplyOnlyMovesOnSnapshots(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusCreated))
	require.NoError(t, err)

	tr, err := ctrl.Apply(fixturePool(models.PoolStatusCreated))
	require.NoError(t, err)
	assert.False(t, tr.Changed)

	tr, err = ctrl.Apply(fixturePool(models.PoolStatusDraft))
	require.NoError(t, err)
	assert.Equal(t, Transition{From: models.PoolStatusCreated, To: models.PoolStatusDraft, Changed: true}, tr)
	assert.Equal(t, models.PoolStatusDraft, ctrl.Status())

	// the service is authoritative even when it moves backwards
	tr, err = ctrl.Apply(fixturePool(models.PoolStatusCreated))
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, models.PoolStatusCreated, ctrl.Status())
}

func TestController_ApplyRejectsBadSnapshots(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusInProgress))
	require.NoError(t, err)

	_, err = ctrl.Apply(nil)
	assert.ErrorIs(t, err, ErrPoolUnavailable)

	other := fixturePool(models.PoolStatusInProgress)
	other.Name = "pool-2"
	_, err = ctrl.Apply(other)
	assert.Error(t, err)

	bad := fixturePool("ARCHIVED")
	_, err = ctrl.Apply(bad)
	assert.Error(t, err)

	dup := fixturePool(models.PoolStatusDraft)
	dup.DraftOrder = []string{"alice", "alice", "bob"}
	_, err = ctrl.Apply(dup)
	assert.Error(t, err)

	// nothing above replaced the read model
	assert.Equal(t, models.PoolStatusInProgress, ctrl.Status())
}

func TestController_PoolIsACopy(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusInProgress))
	require.NoError(t, err)

	p := ctrl.Pool()
	p.Participants[0].Players = nil
	assert.Len(t, ctrl.Pool().Participants[0].Players, 2)
}

func TestController_DraftState(t *testing.T) {
	p := fixturePool(models.PoolStatusDraft)
	p.PickIndex = 4
	ctrl, err := NewController(p)
	require.NoError(t, err)

	state, err := ctrl.DraftState("bob")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, 2, state.PickInRound)
	assert.Equal(t, "bob", state.CurrentDrafter)
	assert.Equal(t, "bob", state.PickOwner)
	assert.True(t, state.IsUserTurn)
	assert.Equal(t, []string{"alice", "bob", "carol"}, state.Order)

	state, err = ctrl.DraftState("alice")
	require.NoError(t, err)
	assert.False(t, state.IsUserTurn)
}

func TestController_DraftStateFollowsTradedPicks(t *testing.T) {
	p := fixturePool(models.PoolStatusDraft)
	p.PickIndex = 1 // round 1, bob's slot
	p.Participants[1].Picks = nil
	p.Participants[2].Picks = []models.DraftPick{{From: "bob", Round: 0, Season: 2025}}
	ctrl, err := NewController(p)
	require.NoError(t, err)

	state, err := ctrl.DraftState("carol")
	require.NoError(t, err)
	assert.Equal(t, "bob", state.CurrentDrafter)
	assert.Equal(t, "carol", state.PickOwner)
	assert.True(t, state.IsUserTurn)
	assert.False(t, state.IsDrafterTurn)

	state, err = ctrl.DraftState("bob")
	require.NoError(t, err)
	assert.True(t, state.IsDrafterTurn)
	assert.False(t, state.IsUserTurn)
}

func TestController_RejectsNegativePickIndex(t *testing.T) {
	p := fixturePool(models.PoolStatusDraft)
	p.PickIndex = -1
	_, err := NewController(p)
	assert.ErrorIs(t, err, ErrPoolUnavailable)
	assert.ErrorIs(t, err, draft.ErrInvalidPickIndex)

	p.PickIndex = 2
	ctrl, err := NewController(p)
	require.NoError(t, err)

	bad := fixturePool(models.PoolStatusDraft)
	bad.PickIndex = -3
	_, err = ctrl.Apply(bad)
	require.Error(t, err)

	state, err := ctrl.DraftState("carol")
	require.NoError(t, err)
	assert.Equal(t, 2, state.PickIndex)
	assert.True(t, state.IsUserTurn)
}

func TestController_DraftStateDefaultsToParticipantOrder(t *testing.T) {
	p := fixturePool(models.PoolStatusDraft)
	p.DraftOrder = nil
	ctrl, err := NewController(p)
	require.NoError(t, err)

	state, err := ctrl.DraftState("")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, state.Order)
	assert.False(t, state.IsUserTurn)
}

func TestController_DraftComplete(t *testing.T) {
	p := fixturePool(models.PoolStatusDraft)
	p.PickIndex = 6 // two rounds of three
	ctrl, err := NewController(p)
	require.NoError(t, err)

	state, err := ctrl.DraftState("alice")
	require.NoError(t, err)
	assert.True(t, state.Complete)
	assert.False(t, state.IsUserTurn)
	assert.Empty(t, state.CurrentDrafter)
}

func TestController_DraftStateOutsideDraft(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusInProgress))
	require.NoError(t, err)

	_, err = ctrl.DraftState("alice")
	assert.ErrorIs(t, err, ErrNotInDraft)
}

func proposal() models.Trade {
	return models.Trade{
		ID:          uuid.New(),
		ProposedBy:  "alice",
		AskTo:       "bob",
		FromItems:   models.TradeItems{Players: []models.PlayerID{1}, Picks: []models.DraftPick{{From: "alice", Round: 0, Season: 2025}}},
		ToItems:     models.TradeItems{Players: []models.PlayerID{3}},
		Status:      models.TradeStatusNew,
		DateCreated: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestController_ApplyTradeEcho_SettlesOnce(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusInProgress))
	require.NoError(t, err)

	tr := proposal()
	settled, err := ctrl.ApplyTradeEcho(tr)
	require.NoError(t, err)
	assert.False(t, settled)
	stored, ok := ctrl.Trade(tr.ID)
	require.True(t, ok)
	assert.Equal(t, models.TradeStatusNew, stored.Status)

	accepted, err := trade.Transition(tr, models.TradeStatusAccepted, time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	settled, err = ctrl.ApplyTradeEcho(accepted)
	require.NoError(t, err)
	assert.True(t, settled)

	p := ctrl.Pool()
	owner, _ := p.PlayerOwner(1)
	assert.Equal(t, "bob", owner)
	owner, _ = p.PlayerOwner(3)
	assert.Equal(t, "alice", owner)
	owner, _ = p.PickOwner(models.DraftPick{From: "alice", Round: 0, Season: 2025})
	assert.Equal(t, "bob", owner)

	// repeated echo does not swap again
	settled, err = ctrl.ApplyTradeEcho(accepted)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.Equal(t, p, ctrl.Pool())

	cancelled := accepted
	cancelled.Status = models.TradeStatusCancelled
	_, err = ctrl.ApplyTradeEcho(cancelled)
	assert.ErrorIs(t, err, trade.ErrInvalidTransition)
}

func TestController_ApplyTradeEcho_RejectedMovesNothing(t *testing.T) {
	ctrl, err := NewController(fixturePool(models.PoolStatusDynasty))
	require.NoError(t, err)

	tr := proposal()
	_, err = ctrl.ApplyTradeEcho(tr)
	require.NoError(t, err)

	tr.Status = models.TradeStatusRejected
	settled, err := ctrl.ApplyTradeEcho(tr)
	require.NoError(t, err)
	assert.False(t, settled)

	owner, _ := ctrl.Pool().PlayerOwner(1)
	assert.Equal(t, "alice", owner)
}

func TestController_ApplyTradeEcho_SnapshotAlreadySwapped(t *testing.T) {
	tr := proposal()
	p := fixturePool(models.PoolStatusInProgress)
	swapped, err := trade.Settle(p, models.Trade{
		ProposedBy: tr.ProposedBy, AskTo: tr.AskTo,
		FromItems: tr.FromItems, ToItems: tr.ToItems,
		Status: models.TradeStatusAccepted,
	})
	require.NoError(t, err)
	swapped.Trades = []models.Trade{tr}

	ctrl, err := NewController(swapped)
	require.NoError(t, err)

	tr.Status = models.TradeStatusAccepted
	settled, err := ctrl.ApplyTradeEcho(tr)
	require.NoError(t, err)
	assert.True(t, settled)

	owner, _ := ctrl.Pool().PlayerOwner(1)
	assert.Equal(t, "bob", owner)
}

func TestIsForward(t *testing.T) {
	assert.True(t, IsForward(models.PoolStatusCreated, models.PoolStatusDraft))
	assert.True(t, IsForward(models.PoolStatusInProgress, models.PoolStatusDynasty))
	assert.True(t, IsForward(models.PoolStatusDynasty, models.PoolStatusInProgress))
	assert.False(t, IsForward(models.PoolStatusFinal, models.PoolStatusInProgress))
}
