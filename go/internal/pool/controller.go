package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/trade"
)

// Mounts lists which components are active for a pool status.
type Mounts struct {
	Sequencer bool `json:"sequencer"`
	Trades    bool `json:"trades"`
	Scoring   bool `json:"scoring"`
	ReadOnly  bool `json:"read_only"`
}

// MountsFor maps a status onto the components it activates.
func MountsFor(status models.PoolStatus) Mounts {
	switch status {
	case models.PoolStatusCreated:
		return Mounts{}
	case models.PoolStatusDraft:
		return Mounts{Sequencer: true}
	case models.PoolStatusInProgress, models.PoolStatusDynasty:
		return Mounts{Trades: true, Scoring: true}
	case models.PoolStatusFinal:
		return Mounts{Scoring: true, ReadOnly: true}
	default:
		return Mounts{ReadOnly: true}
	}
}

var statusRank = map[models.PoolStatus]int{
	models.PoolStatusCreated:    0,
	models.PoolStatusDraft:      1,
	models.PoolStatusInProgress: 2,
	models.PoolStatusDynasty:    2,
	models.PoolStatusFinal:      3,
}

// IsForward reports whether moving from one status to another follows the
// lifecycle. InProgress and Dynasty are peers.
func IsForward(from, to models.PoolStatus) bool {
	return statusRank[to] >= statusRank[from]
}

// Transition describes what a snapshot did to the pool status.
type Transition struct {
	From    models.PoolStatus
	To      models.PoolStatus
	Changed bool
}

// DraftState is the derived view of the draft for one user.
type DraftState struct {
	PickIndex   int      `json:"pick_index"`
	Round       int      `json:"round"`
	PickInRound int      `json:"pick_in_round"`
	TotalRounds int      `json:"total_rounds"`
	Order       []string `json:"order"`

	// CurrentDrafter is the participant whose slot in the order is up.
	CurrentDrafter string `json:"current_drafter"`
	// PickOwner holds the pick at this slot. It differs from CurrentDrafter
	// only when the pick was traded.
	PickOwner string `json:"pick_owner"`
	// IsDrafterTurn is CurrentDrafter == user.
	IsDrafterTurn bool `json:"is_drafter_turn"`
	// IsUserTurn is PickOwner == user: the user may submit this pick.
	IsUserTurn bool `json:"is_user_turn"`
	Complete   bool `json:"complete"`
}

// Controller holds the read model of one pool and dispatches on its status.
// The snapshot is only ever replaced wholesale under the lock.
type Controller struct {
	mu   sync.RWMutex
	pool *models.Pool
	seq  *draft.Sequencer
}

// NewController builds a controller from a first confirmed snapshot.
func NewController(snapshot *models.Pool) (*Controller, error) {
	c := &Controller{}
	if _, err := c.Apply(snapshot); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply replaces the read model with a confirmed snapshot from the pool
// service. The controller never moves status on its own; this is the only way
// it changes.
func (c *Controller) Apply(snapshot *models.Pool) (Transition, error) {
	if snapshot == nil {
		return Transition{}, fmt.Errorf("%w: empty snapshot", ErrPoolUnavailable)
	}
	if _, err := models.ParsePoolStatus(string(snapshot.Status)); err != nil {
		return Transition{}, err
	}
	if snapshot.PickIndex < 0 {
		return Transition{}, fmt.Errorf("%w: pool %s pick index %d: %w",
			ErrPoolUnavailable, snapshot.Name, snapshot.PickIndex, draft.ErrInvalidPickIndex)
	}

	next := snapshot.Clone()
	var seq *draft.Sequencer
	if next.Status == models.PoolStatusDraft {
		order := next.DraftOrder
		if len(order) == 0 {
			order = next.ParticipantIDs()
		}
		s, err := draft.NewSequencer(order, draft.OptionsFromSettings(next.Settings))
		if err != nil {
			return Transition{}, fmt.Errorf("invalid draft order for pool %s: %w", next.Name, err)
		}
		seq = s
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil && c.pool.Name != next.Name {
		return Transition{}, fmt.Errorf("snapshot for pool %s applied to controller of %s", next.Name, c.pool.Name)
	}

	tr := Transition{To: next.Status}
	if c.pool != nil {
		tr.From = c.pool.Status
		tr.Changed = c.pool.Status != next.Status
		if tr.Changed && !IsForward(tr.From, tr.To) {
			// reset is an administrative action on the pool service
			log.Warn().
				Str("pool", next.Name).
				Str("from", string(tr.From)).
				Str("to", string(tr.To)).
				Msg("pool status moved backwards")
		}
	}

	c.pool = next
	c.seq = seq
	return tr, nil
}

// Pool returns a copy of the current snapshot.
func (c *Controller) Pool() *models.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool.Clone()
}

func (c *Controller) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool.Name
}

func (c *Controller) Status() models.PoolStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool.Status
}

func (c *Controller) Mounts() Mounts {
	return MountsFor(c.Status())
}

// DraftState derives the draft position for local. It fails with
// ErrNotInDraft outside the Draft status.
func (c *Controller) DraftState(local string) (DraftState, error) {
	state, _, err := c.draftTurn(local)
	return state, err
}

// draftTurn derives DraftState and the turn behind it from one snapshot.
func (c *Controller) draftTurn(local string) (DraftState, draft.Turn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.seq == nil {
		return DraftState{}, draft.Turn{}, fmt.Errorf("%w: status %s", ErrNotInDraft, c.pool.Status)
	}

	turn, err := c.seq.At(c.pool.PickIndex)
	if err != nil {
		return DraftState{}, draft.Turn{}, err
	}

	rounds := c.pool.Settings.DraftRounds
	state := DraftState{
		PickIndex:   turn.PickIndex,
		Round:       turn.Round,
		PickInRound: turn.PickInRound,
		TotalRounds: rounds,
		Order:       c.seq.Order(),
	}
	if rounds > 0 && turn.Round > rounds {
		state.Complete = true
		return state, turn, nil
	}

	state.CurrentDrafter = turn.Drafter
	state.PickOwner = c.seq.Owner(turn, c.pool)
	state.IsDrafterTurn = local != "" && state.CurrentDrafter == local
	state.IsUserTurn = local != "" && state.PickOwner == local
	return state, turn, nil
}

// NewTradeComposer starts a trade composition for proposer. Trades are
// only open while the pool is InProgress or Dynasty.
func (c *Controller) NewTradeComposer(proposer string) (*trade.Composer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !MountsFor(c.pool.Status).Trades {
		return nil, fmt.Errorf("%w: status %s", ErrTradesClosed, c.pool.Status)
	}
	return trade.NewComposer(c.pool.Clone(), proposer)
}

// Trade returns the trade with the given id from the current snapshot.
func (c *Controller) Trade(id uuid.UUID) (models.Trade, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.pool.Trades {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Trade{}, false
}

// ApplyTradeEcho reflects a trade as confirmed by the pool service. The first
// time an accepted trade is seen its assets are swapped in the read model;
// settled reports whether that happened on this call.
func (c *Controller) ApplyTradeEcho(t models.Trade) (settled bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !MountsFor(c.pool.Status).Trades {
		return false, fmt.Errorf("%w: status %s", ErrTradesClosed, c.pool.Status)
	}

	idx := -1
	for i := range c.pool.Trades {
		if c.pool.Trades[i].ID == t.ID {
			idx = i
			break
		}
	}

	if idx >= 0 {
		prev := c.pool.Trades[idx]
		if prev.Status == t.Status {
			// repeated echo; settlement already happened if it was going to
			return false, nil
		}
		if !trade.CanTransition(prev.Status, t.Status) {
			return false, fmt.Errorf("%w: %s -> %s", trade.ErrInvalidTransition, prev.Status, t.Status)
		}
	}

	next := c.pool.Clone()
	switch t.Status {
	case models.TradeStatusAccepted:
		swapped, err := trade.Settle(next, t)
		switch {
		case err == nil:
			next = swapped
		case errors.Is(err, trade.ErrAssetNotOwned) && alreadySettled(next, t):
			// a refreshed snapshot already carries the swap
		default:
			return false, fmt.Errorf("failed to settle trade %s: %w", t.ID, err)
		}
		settled = true
	case models.TradeStatusNew, models.TradeStatusRejected, models.TradeStatusCancelled:
	}

	if idx >= 0 {
		next.Trades[idx] = t.Clone()
	} else {
		next.Trades = append(next.Trades, t.Clone())
	}
	c.pool = next
	return settled, nil
}

// alreadySettled reports whether every asset of t already sits with the side
// receiving it.
func alreadySettled(p *models.Pool, t models.Trade) bool {
	proposer, ok := p.Participant(t.ProposedBy)
	if !ok {
		return false
	}
	counterparty, ok := p.Participant(t.AskTo)
	if !ok {
		return false
	}
	return holdsAll(counterparty, t.FromItems) && holdsAll(proposer, t.ToItems)
}

func holdsAll(u *models.PoolUser, items models.TradeItems) bool {
	for _, id := range items.Players {
		if !u.HasPlayer(id) {
			return false
		}
	}
	for _, pick := range items.Picks {
		if !u.HasPick(pick) {
			return false
		}
	}
	return true
}
