package draft

import "errors"

var (
	ErrEmptyOrder          = errors.New("draft order is empty")
	ErrDuplicateAssignment = errors.New("participant already placed in draft order")
	ErrUnknownParticipant  = errors.New("participant not in pool")
	ErrInvalidPosition     = errors.New("draft position out of range")
	ErrIncompleteOrder     = errors.New("draft order has unassigned positions")
	ErrInvalidPickIndex    = errors.New("pick index must not be negative")
)
