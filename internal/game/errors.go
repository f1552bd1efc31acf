package game

import "errors"

// Client-input and phase errors are replied to the requester only and cause
// no state change. ErrInvariant means the engine detected a programming
// defect and refuses to continue.
var (
	ErrInvalidPhase        = errors.New("round phase does not allow this operation")
	ErrDuplicateBet        = errors.New("user already has a bet in this round")
	ErrAmountOutOfRange    = errors.New("bet amount outside allowed range")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBetNotFound         = errors.New("bet not found")
	ErrNotOwner            = errors.New("bet does not belong to this user")
	ErrAlreadySettled      = errors.New("bet already settled")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvariant           = errors.New("engine invariant violated")
)
