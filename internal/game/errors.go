package game

import errorsmod "cosmossdk.io/errors"

// Codespace is the ABCI codespace of engine errors.
const Codespace = "game"

// Engine sentinel errors. Every rejection leaves the game untouched.
var (
	ErrInvalidRequest            = errorsmod.Register(Codespace, 1, "invalid request")
	ErrPhaseMismatch             = errorsmod.Register(Codespace, 2, "phase mismatch")
	ErrDeadlineExpired           = errorsmod.Register(Codespace, 3, "deadline expired")
	ErrDeadlineNotReached        = errorsmod.Register(Codespace, 4, "too early: deadline not reached")
	ErrDuplicateAction           = errorsmod.Register(Codespace, 5, "duplicate action")
	ErrInvalidInput              = errorsmod.Register(Codespace, 6, "invalid input")
	ErrUnauthorized              = errorsmod.Register(Codespace, 7, "unauthorized")
	ErrCommitmentMismatch        = errorsmod.Register(Codespace, 8, "invalid reveal: commitment mismatch")
	ErrInsufficientParticipation = errorsmod.Register(Codespace, 9, "insufficient participation")
	ErrTransferFailed            = errorsmod.Register(Codespace, 10, "transfer failed")
	ErrNotJoined                 = errorsmod.Register(Codespace, 11, "not a player in this game")
	ErrWrongPayment              = errorsmod.Register(Codespace, 12, "payment must equal stake amount")
)
