package app

import (
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/crypto"

	"twothirds/internal/codec"
	"twothirds/internal/game"
	"twothirds/internal/state"
)

// createGame deploys a new game instance. The instance address is derived
// from the creator and the tx nonce the same way contract addresses are, so
// it is unique per (creator, nonce).
func (a *TTGApp) createGame(st *state.State, env game.Env, msg codec.GameCreateTx, nonce uint64) ([]abci.Event, error) {
	master := msg.Creator
	if msg.GameMaster != nil {
		master = *msg.GameMaster
	}
	params := game.Params{
		StakeAmount:        msg.StakeAmount,
		FeePercent:         msg.FeePercent,
		RegistrationBlocks: orDefault(msg.RegistrationBlocks, a.cfg.RegistrationBlocks),
		CommitBlocks:       orDefault(msg.CommitBlocks, a.cfg.CommitBlocks),
		RevealBlocks:       orDefault(msg.RevealBlocks, a.cfg.RevealBlocks),
	}

	id := st.AllocGameID()
	addr := crypto.CreateAddress(msg.Creator, nonce)
	g, events, err := game.New(id, addr, msg.Creator, master, params, env)
	if err != nil {
		return nil, err
	}
	st.Games[id] = g

	a.metrics.gameCreated.Inc(1)
	a.logger.Info("game created",
		"gameId", id,
		"address", addr.Hex(),
		"creator", msg.Creator.Hex(),
		"stake", params.StakeAmount,
		"feePercent", params.FeePercent,
		"deadline", g.Deadline,
	)
	return events, nil
}

func orDefault(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}
