package trade

import (
	"fmt"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Settle returns a copy of pool with the assets of an accepted trade swapped:
// every from-item moves to the counterparty and every to-item to the proposer.
// The input pool is never modified, so readers holding it see either the old
// or the new ownership and never a mix. If any asset is not where the trade
// expects it, or a side lists an asset twice, no copy is returned.
func Settle(pool *models.Pool, t models.Trade) (*models.Pool, error) {
	if t.Status != models.TradeStatusAccepted {
		return nil, fmt.Errorf("%w: status %s", ErrNotAccepted, t.Status)
	}
	if t.ProposedBy == t.AskTo {
		return nil, ErrSelfTrade
	}
	if err := checkItems(t.FromItems); err != nil {
		return nil, err
	}
	if err := checkItems(t.ToItems); err != nil {
		return nil, err
	}

	out := pool.Clone()
	proposer, ok := out.Participant(t.ProposedBy)
	if !ok {
		return nil, fmt.Errorf("proposer %q: %w", t.ProposedBy, ErrUnknownParticipant)
	}
	counterparty, ok := out.Participant(t.AskTo)
	if !ok {
		return nil, fmt.Errorf("counterparty %q: %w", t.AskTo, ErrUnknownParticipant)
	}
	if err := checkOwnership(proposer, t.FromItems); err != nil {
		return nil, err
	}
	if err := checkOwnership(counterparty, t.ToItems); err != nil {
		return nil, err
	}

	move(proposer, counterparty, t.FromItems)
	move(counterparty, proposer, t.ToItems)
	return out, nil
}

func move(from, to *models.PoolUser, items models.TradeItems) {
	for _, id := range items.Players {
		from.Players = removeFirst(from.Players, id)
		to.Players = append(to.Players, id)
	}
	for _, pick := range items.Picks {
		from.Picks = removeFirst(from.Picks, pick)
		to.Picks = append(to.Picks, pick)
	}
}

func removeFirst[T comparable](items []T, target T) []T {
	for i, v := range items {
		if v == target {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}
