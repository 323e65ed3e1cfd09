package trade

import (
	"fmt"
	"time"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

var allowedTransitions = map[models.TradeStatus][]models.TradeStatus{
	models.TradeStatusNew: {
		models.TradeStatusAccepted,
		models.TradeStatusRejected,
		models.TradeStatusCancelled,
	},
	models.TradeStatusAccepted:  {},
	models.TradeStatusRejected:  {},
	models.TradeStatusCancelled: {},
}

// CanTransition reports whether a trade may move from one status to another.
func CanTransition(from, to models.TradeStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns t moved to status. Acceptance records at as the
// acceptance time; nothing else about the trade changes.
func Transition(t models.Trade, status models.TradeStatus, at time.Time) (models.Trade, error) {
	if !CanTransition(t.Status, status) {
		return t, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, status)
	}

	out := t.Clone()
	out.Status = status
	switch status {
	case models.TradeStatusAccepted:
		accepted := at.UTC()
		out.DateAccepted = &accepted
	case models.TradeStatusRejected, models.TradeStatusCancelled, models.TradeStatusNew:
	}
	return out, nil
}

// ReplaceItems swaps both sides of a NEW trade wholesale. On any error t is
// returned unchanged.
func ReplaceItems(t models.Trade, from, to models.TradeItems) (models.Trade, error) {
	if t.Status != models.TradeStatusNew {
		return t, fmt.Errorf("%w: status %s", ErrNotEditable, t.Status)
	}
	if err := checkItems(from); err != nil {
		return t, err
	}
	if err := checkItems(to); err != nil {
		return t, err
	}
	if from.IsEmpty() && to.IsEmpty() {
		return t, ErrEmptyTrade
	}
	out := t.Clone()
	out.FromItems = from.Clone()
	out.ToItems = to.Clone()
	return out, nil
}
