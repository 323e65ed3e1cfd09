package draft

import (
	"fmt"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

// Options selects how the order repeats from round to round. The zero value
// is a linear draft where every round uses the same order.
type Options struct {
	Snake bool
	// ThirdRoundReversal makes round 3 repeat round 2's direction before the
	// snake resumes alternating. Only meaningful with Snake.
	ThirdRoundReversal bool
}

// OptionsFromSettings maps pool settings onto sequencer options.
func OptionsFromSettings(s models.PoolSettings) Options {
	return Options{Snake: s.SnakeDraft, ThirdRoundReversal: s.SnakeDraft && s.ThirdRoundReversal}
}

// Turn is the derived position of the draft for one pick index.
type Turn struct {
	PickIndex   int    `json:"pick_index"`
	Round       int    `json:"round"`         // 1-indexed
	PickInRound int    `json:"pick_in_round"` // 1-indexed
	Drafter     string `json:"drafter"`
}

// IsUserTurn reports whether local is the participant on the clock.
func (t Turn) IsUserTurn(local string) bool {
	return local != "" && t.Drafter == local
}

// Sequencer renders whose turn it is from a fixed draft order. It never
// advances the pick counter itself.
type Sequencer struct {
	order []string
	opts  Options
}

// NewSequencer creates a sequencer over order.
func NewSequencer(order []string, opts Options) (*Sequencer, error) {
	if len(order) == 0 {
		return nil, ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAssignment, id)
		}
		seen[id] = struct{}{}
	}
	return &Sequencer{order: append([]string(nil), order...), opts: opts}, nil
}

// Order returns a copy of the draft order.
func (s *Sequencer) Order() []string {
	return append([]string(nil), s.order...)
}

// At derives the turn for pickIndex.
func (s *Sequencer) At(pickIndex int) (Turn, error) {
	if pickIndex < 0 {
		return Turn{}, ErrInvalidPickIndex
	}
	n := len(s.order)
	round := pickIndex/n + 1
	slot := pickIndex % n

	seat := slot
	if s.reversed(round) {
		seat = n - 1 - slot
	}

	return Turn{
		PickIndex:   pickIndex,
		Round:       round,
		PickInRound: slot + 1,
		Drafter:     s.order[seat],
	}, nil
}

// Schedule lists every turn of a draft with the given number of rounds.
func (s *Sequencer) Schedule(rounds int) []Turn {
	if rounds <= 0 {
		return nil
	}
	turns := make([]Turn, 0, rounds*len(s.order))
	for i := 0; i < rounds*len(s.order); i++ {
		t, _ := s.At(i)
		turns = append(turns, t)
	}
	return turns
}

// Owner returns who actually makes the pick for turn: the drafter unless
// their pick for that round and season was traded to someone else.
func (s *Sequencer) Owner(turn Turn, pool *models.Pool) string {
	pick := models.DraftPick{From: turn.Drafter, Round: turn.Round - 1, Season: pool.Season}
	if owner, ok := pool.PickOwner(pick); ok {
		return owner
	}
	return turn.Drafter
}

func (s *Sequencer) reversed(round int) bool {
	if !s.opts.Snake {
		return false
	}
	if s.opts.ThirdRoundReversal && round >= 3 {
		return round%2 == 1
	}
	return round%2 == 0
}
