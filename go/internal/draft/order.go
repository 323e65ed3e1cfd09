package draft

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// OrderBuilder assembles a draft order one position at a time.
type OrderBuilder struct {
	participants map[string]struct{}
	slots        []string
}

// NewOrderBuilder creates a builder with one empty position per participant.
func NewOrderBuilder(participants []string) *OrderBuilder {
	set := make(map[string]struct{}, len(participants))
	for _, id := range participants {
		set[id] = struct{}{}
	}
	return &OrderBuilder{
		participants: set,
		slots:        make([]string, len(set)),
	}
}

// Assign places id at pos. Placing a participant who already holds another
// position is rejected and leaves the builder unchanged.
func (b *OrderBuilder) Assign(pos int, id string) error {
	if pos < 0 || pos >= len(b.slots) {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
	}
	if _, ok := b.participants[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
	}
	for i, placed := range b.slots {
		if placed == id && i != pos {
			log.Debug().Str("participant", id).Int("position", i).Msg("rejecting duplicate draft position")
			return fmt.Errorf("%w: %s is already at position %d", ErrDuplicateAssignment, id, i+1)
		}
	}
	b.slots[pos] = id
	return nil
}

// Clear empties pos.
func (b *OrderBuilder) Clear(pos int) {
	if pos >= 0 && pos < len(b.slots) {
		b.slots[pos] = ""
	}
}

// Positions returns the current assignment, with "" for open positions.
func (b *OrderBuilder) Positions() []string {
	return append([]string(nil), b.slots...)
}

// Build returns the finished order.
func (b *OrderBuilder) Build() ([]string, error) {
	if len(b.slots) == 0 {
		return nil, ErrEmptyOrder
	}
	for i, id := range b.slots {
		if id == "" {
			return nil, fmt.Errorf("%w: position %d", ErrIncompleteOrder, i+1)
		}
	}
	return b.Positions(), nil
}

// Shuffle returns a uniformly random permutation of ids. A nil rng is seeded
// from the current time.
func Shuffle(ids []string, rng *rand.Rand) []string {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := append([]string(nil), ids...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
