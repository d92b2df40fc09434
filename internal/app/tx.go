package app

import (
	"encoding/json"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"

	"twothirds/internal/codec"
	"twothirds/internal/game"
	"twothirds/internal/state"
)

// execTx routes tx to its handler. st is a staged copy; on error the caller
// discards it. signer and nonce are zero for the unsigned bank/mint.
func (a *TTGApp) execTx(st *state.State, tx codec.TxEnvelope, signer common.Address, nonce uint64, env game.Env) ([]abci.Event, error) {
	switch tx.Type {
	case codec.TypeBankMint:
		var msg codec.BankMintTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad bank/mint value")
		}
		if !a.cfg.Faucet {
			return nil, ErrFaucetOff.Wrap("bank/mint rejected")
		}
		if msg.To == (common.Address{}) || msg.Amount == 0 {
			return nil, ErrInvalidTx.Wrap("missing to/amount")
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, ErrInvalidTx.Wrap(err.Error())
		}
		return []abci.Event{okEvent("BankMinted", map[string]string{
			"to":     msg.To.Hex(),
			"amount": fmt.Sprintf("%d", msg.Amount),
		})}, nil

	case codec.TypeBankSend:
		var msg codec.BankSendTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad bank/send value")
		}
		if msg.To == (common.Address{}) || msg.Amount == 0 {
			return nil, ErrInvalidTx.Wrap("missing to/amount")
		}
		if err := requireSigner(signer, msg.From); err != nil {
			return nil, err
		}
		if err := st.Debit(msg.From, msg.Amount); err != nil {
			return nil, ErrFunds.Wrap(err.Error())
		}
		if err := st.Credit(msg.To, msg.Amount); err != nil {
			return nil, ErrInvalidTx.Wrap(err.Error())
		}
		return []abci.Event{okEvent("BankSent", map[string]string{
			"from":   msg.From.Hex(),
			"to":     msg.To.Hex(),
			"amount": fmt.Sprintf("%d", msg.Amount),
		})}, nil

	case codec.TypeGameCreate:
		var msg codec.GameCreateTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad game/create value")
		}
		if err := requireSigner(signer, msg.Creator); err != nil {
			return nil, err
		}
		return a.createGame(st, env, msg, nonce)

	case codec.TypeGameJoin:
		var msg codec.GameJoinTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad game/join value")
		}
		return a.withGame(st, signer, msg.GameID, msg.Player, func(g *game.Game) ([]abci.Event, error) {
			return g.Join(st, env, msg.Player, msg.Payment)
		})

	case codec.TypeGameCommit:
		var msg codec.GameCommitTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad game/commit value")
		}
		return a.withGame(st, signer, msg.GameID, msg.Player, func(g *game.Game) ([]abci.Event, error) {
			return g.Commit(env, msg.Player, msg.Commitment)
		})

	case codec.TypeGameReveal:
		var msg codec.GameRevealTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrap("bad game/reveal value")
		}
		return a.withGame(st, signer, msg.GameID, msg.Player, func(g *game.Game) ([]abci.Event, error) {
			return g.Reveal(env, msg.Player, msg.Number, msg.Salt)
		})

	case codec.TypeGameAdvance, codec.TypeGameCalculate, codec.TypeGameWithdrawPrize,
		codec.TypeGameWithdrawFee, codec.TypeGameReclaim:
		var msg codec.GameCallTx
		if err := json.Unmarshal(tx.Value, &msg); err != nil {
			return nil, ErrTxDecode.Wrapf("bad %s value", tx.Type)
		}
		return a.withGame(st, signer, msg.GameID, msg.Caller, func(g *game.Game) ([]abci.Event, error) {
			switch tx.Type {
			case codec.TypeGameAdvance:
				return g.AdvancePhase(env, msg.Caller)
			case codec.TypeGameCalculate:
				return g.CalculateResult(env, msg.Caller)
			case codec.TypeGameWithdrawPrize:
				return g.WithdrawPrize(st, msg.Caller)
			case codec.TypeGameWithdrawFee:
				return g.WithdrawServiceFee(st, msg.Caller)
			default:
				return g.ReclaimWager(st, msg.Caller)
			}
		})

	default:
		return nil, ErrUnknownTx.Wrap(tx.Type)
	}
}

// withGame checks that caller signed the tx, loads the game and runs op on
// it. Metrics and lifecycle logs are derived from how op changed the game.
func (a *TTGApp) withGame(st *state.State, signer common.Address, id uint64, caller common.Address, op func(*game.Game) ([]abci.Event, error)) ([]abci.Event, error) {
	if err := requireSigner(signer, caller); err != nil {
		return nil, err
	}
	g := st.Game(id)
	if g == nil {
		return nil, ErrGameNotFound.Wrapf("game %d", id)
	}

	phase, paidOut := g.Phase, g.PaidOut
	events, err := op(g)
	if err != nil {
		return nil, err
	}

	if g.PaidOut > paidOut {
		a.metrics.payoutTotal.Inc(int64(g.PaidOut - paidOut))
	}
	if g.Phase != phase {
		switch g.Phase {
		case game.PhaseCompleted:
			a.metrics.gameCompleted.Inc(1)
			a.logger.Info("game completed", "gameId", g.ID, "winner", g.Winner.Hex(), "pot", g.Pot)
		case game.PhaseCancelled:
			a.metrics.gameCancelled.Inc(1)
			a.logger.Info("game cancelled", "gameId", g.ID, "players", g.PlayerCount())
		default:
			a.logger.Debug("game phase changed", "gameId", g.ID, "phase", g.Phase, "deadline", g.Deadline)
		}
	}
	return events, nil
}
