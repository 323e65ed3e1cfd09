package pool

import "errors"

var (
	ErrPoolUnavailable = errors.New("pool unavailable")
	ErrNotInDraft      = errors.New("pool is not drafting")
	ErrDraftComplete   = errors.New("every pick has been made")
	ErrTradesClosed    = errors.New("trades are not open in this pool")
	ErrNotYourTurn     = errors.New("not your turn to pick")
	ErrPlayerTaken     = errors.New("player already rostered")
	ErrTradeNotFound   = errors.New("trade not found")
	ErrNotAllowed      = errors.New("operation not allowed for this user")
)
