package app

import errorsmod "cosmossdk.io/errors"

// Codespace of tx routing and auth errors. Engine errors use game.Codespace.
const Codespace = "app"

var (
	ErrTxDecode      = errorsmod.Register(Codespace, 1, "tx decode")
	ErrUnknownTx     = errorsmod.Register(Codespace, 2, "unknown tx type")
	ErrUnauthorized  = errorsmod.Register(Codespace, 3, "unauthorized")
	ErrReplay        = errorsmod.Register(Codespace, 4, "replayed tx.nonce")
	ErrFunds         = errorsmod.Register(Codespace, 5, "insufficient funds")
	ErrGameNotFound  = errorsmod.Register(Codespace, 6, "game not found")
	ErrFaucetOff     = errorsmod.Register(Codespace, 7, "faucet disabled")
	ErrInvalidTx     = errorsmod.Register(Codespace, 8, "invalid tx")
	ErrInternalState = errorsmod.Register(Codespace, 9, "state error")
)
