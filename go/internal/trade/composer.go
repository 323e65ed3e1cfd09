package trade

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Composer holds a trade being put together before it is submitted.
// Nothing it does is visible outside the composer until Build is called.
type Composer struct {
	pool         *models.Pool
	proposer     string
	counterparty string
	from         models.TradeItems
	to           models.TradeItems
}

// NewComposer starts a composition on behalf of proposer.
func NewComposer(pool *models.Pool, proposer string) (*Composer, error) {
	if _, ok := pool.Participant(proposer); !ok {
		return nil, fmt.Errorf("proposer %q: %w", proposer, ErrUnknownParticipant)
	}
	return &Composer{pool: pool, proposer: proposer}, nil
}

func (c *Composer) Proposer() string     { return c.proposer }
func (c *Composer) Counterparty() string { return c.counterparty }

// From is the proposer's side of the offer.
func (c *Composer) From() *models.TradeItems { return &c.from }

// To is the counterparty's side of the offer.
func (c *Composer) To() *models.TradeItems { return &c.to }

// SelectProposer changes the proposing participant and clears their side.
// Selecting the current counterparty or an unknown participant is a no-op and
// returns false.
func (c *Composer) SelectProposer(id string) bool {
	if !c.selectable(id, c.counterparty) {
		return false
	}
	if id != c.proposer {
		c.proposer = id
		c.from.Clear()
	}
	return true
}

// SelectCounterparty changes the participant being asked and clears their
// side. Selecting the proposer or an unknown participant is a no-op and
// returns false.
func (c *Composer) SelectCounterparty(id string) bool {
	if !c.selectable(id, c.proposer) {
		return false
	}
	if id != c.counterparty {
		c.counterparty = id
		c.to.Clear()
	}
	return true
}

func (c *Composer) selectable(id, other string) bool {
	if id == other {
		log.Debug().Str("pool", c.pool.Name).Str("participant", id).Msg("ignoring self-trade selection")
		return false
	}
	if _, ok := c.pool.Participant(id); !ok {
		log.Debug().Str("pool", c.pool.Name).Str("participant", id).Msg("ignoring unknown participant")
		return false
	}
	return true
}

// SetFromItems replaces the proposer's side wholesale. An oversized or
// duplicated side is refused and the current side is kept.
func (c *Composer) SetFromItems(items models.TradeItems) error {
	if err := checkItems(items); err != nil {
		return err
	}
	c.from = items.Clone()
	return nil
}

// SetToItems replaces the counterparty's side wholesale, with the same rules
// as SetFromItems.
func (c *Composer) SetToItems(items models.TradeItems) error {
	if err := checkItems(items); err != nil {
		return err
	}
	c.to = items.Clone()
	return nil
}

// Reset discards the whole composition.
func (c *Composer) Reset() {
	c.counterparty = ""
	c.from.Clear()
	c.to.Clear()
}

// Build validates the composition and returns a NEW trade.
func (c *Composer) Build(clock clockwork.Clock) (models.Trade, error) {
	t := models.Trade{
		ID:          uuid.New(),
		ProposedBy:  c.proposer,
		AskTo:       c.counterparty,
		FromItems:   c.from.Clone(),
		ToItems:     c.to.Clone(),
		Status:      models.TradeStatusNew,
		DateCreated: clock.Now().UTC(),
	}
	if err := Validate(c.pool, t); err != nil {
		return models.Trade{}, err
	}
	return t, nil
}

// Validate checks that t could be proposed in pool: both participants exist
// and differ, at least one side offers something, and every item is held by
// the side offering it.
func Validate(pool *models.Pool, t models.Trade) error {
	if t.ProposedBy == t.AskTo {
		return ErrSelfTrade
	}
	proposer, ok := pool.Participant(t.ProposedBy)
	if !ok {
		return fmt.Errorf("proposer %q: %w", t.ProposedBy, ErrUnknownParticipant)
	}
	counterparty, ok := pool.Participant(t.AskTo)
	if !ok {
		return fmt.Errorf("counterparty %q: %w", t.AskTo, ErrUnknownParticipant)
	}
	if t.FromItems.IsEmpty() && t.ToItems.IsEmpty() {
		return ErrEmptyTrade
	}
	if err := checkItems(t.FromItems); err != nil {
		return err
	}
	if err := checkItems(t.ToItems); err != nil {
		return err
	}
	if err := checkOwnership(proposer, t.FromItems); err != nil {
		return err
	}
	return checkOwnership(counterparty, t.ToItems)
}

func checkOwnership(u *models.PoolUser, items models.TradeItems) error {
	for _, id := range items.Players {
		if !u.HasPlayer(id) {
			return fmt.Errorf("player %d offered by %s: %w", id, u.ID, ErrAssetNotOwned)
		}
	}
	for _, pick := range items.Picks {
		if !u.HasPick(pick) {
			return fmt.Errorf("%s round %d pick (%d) offered by %s: %w", pick.From, pick.Round+1, pick.Season, u.ID, ErrAssetNotOwned)
		}
	}
	return nil
}

// checkItems rejects a side that could not have been built through the
// bounded adds.
func checkItems(items models.TradeItems) error {
	if len(items.Players) > models.MaxTradePlayers || len(items.Picks) > models.MaxTradePicks {
		return fmt.Errorf("%w: %d players, %d picks (max %d, %d)",
			ErrTooManyItems, len(items.Players), len(items.Picks), models.MaxTradePlayers, models.MaxTradePicks)
	}
	for i, id := range items.Players {
		for _, other := range items.Players[i+1:] {
			if id == other {
				return fmt.Errorf("%w: player %d", ErrDuplicateItem, id)
			}
		}
	}
	for i, pick := range items.Picks {
		for _, other := range items.Picks[i+1:] {
			if pick == other {
				return fmt.Errorf("%w: %s round %d pick (%d)", ErrDuplicateItem, pick.From, pick.Round+1, pick.Season)
			}
		}
	}
	return nil
}
