package trade

import "errors"

var (
	ErrSelfTrade          = errors.New("proposer and counterparty must differ")
	ErrEmptyTrade         = errors.New("trade offers nothing on either side")
	ErrUnknownParticipant = errors.New("participant not in pool")
	ErrAssetNotOwned      = errors.New("asset not owned by offering participant")
	ErrInvalidTransition  = errors.New("invalid trade status transition")
	ErrNotEditable        = errors.New("trade is no longer editable")
	ErrNotAccepted        = errors.New("trade is not accepted")
	ErrTooManyItems       = errors.New("trade side exceeds the item limits")
	ErrDuplicateItem      = errors.New("trade side lists an item twice")
)
