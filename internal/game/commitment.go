package game

import (
	"fmt"
	"math/big"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ComputeCommitment returns keccak256(uint256(number) || salt || player),
// the abi.encodePacked layout of (uint256, bytes32, address). Binding the
// player address stops a revealed (number, salt) pair from being replayed
// under another identity.
func ComputeCommitment(number uint64, salt common.Hash, player common.Address) common.Hash {
	return crypto.Keccak256Hash(u256(number), salt.Bytes(), player.Bytes())
}

func u256(x uint64) []byte {
	return common.BigToHash(new(big.Int).SetUint64(x)).Bytes()
}

// Commit stores the caller's sealed guess. Nothing about the guess can be
// checked until it is revealed.
func (g *Game) Commit(env Env, caller common.Address, commitment common.Hash) ([]abci.Event, error) {
	if err := g.requirePhase(PhaseCommit); err != nil {
		return nil, err
	}
	if err := g.requireBeforeDeadline(env); err != nil {
		return nil, err
	}
	p := g.Player(caller)
	if p == nil {
		return nil, ErrNotJoined.Wrapf("%s cannot commit", caller.Hex())
	}
	if p.HasCommitted {
		return nil, ErrDuplicateAction.Wrapf("%s already committed", caller.Hex())
	}
	if commitment == (common.Hash{}) {
		return nil, ErrInvalidInput.Wrap("empty commitment")
	}

	p.Commitment = commitment
	p.HasCommitted = true

	return []abci.Event{{
		Type: EventTypePlayerCommitted,
		Attributes: []abci.EventAttribute{
			{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
			{Key: "player", Value: caller.Hex(), Index: true},
			{Key: "commitment", Value: commitment.Hex(), Index: false},
		},
	}}, nil
}

// Reveal opens the caller's commitment. A mismatching (number, salt) is
// rejected without consuming the reveal, so the player may retry until the
// deadline.
func (g *Game) Reveal(env Env, caller common.Address, number uint64, salt common.Hash) ([]abci.Event, error) {
	if err := g.requirePhase(PhaseReveal); err != nil {
		return nil, err
	}
	if err := g.requireBeforeDeadline(env); err != nil {
		return nil, err
	}
	p := g.Player(caller)
	if p == nil {
		return nil, ErrNotJoined.Wrapf("%s cannot reveal", caller.Hex())
	}
	if !p.HasCommitted {
		return nil, ErrInvalidRequest.Wrapf("%s has no commitment", caller.Hex())
	}
	if p.HasRevealed {
		return nil, ErrDuplicateAction.Wrapf("%s already revealed", caller.Hex())
	}
	if number > MaxGuess {
		return nil, ErrInvalidInput.Wrapf("guess %d out of range [0,%d]", number, MaxGuess)
	}
	if got := ComputeCommitment(number, salt, caller); got != p.Commitment {
		return nil, ErrCommitmentMismatch.Wrapf("player %s", caller.Hex())
	}

	p.RevealedNumber = number
	p.HasRevealed = true

	return []abci.Event{{
		Type: EventTypePlayerRevealed,
		Attributes: []abci.EventAttribute{
			{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
			{Key: "player", Value: caller.Hex(), Index: true},
			{Key: "number", Value: fmt.Sprintf("%d", number), Index: false},
		},
	}}, nil
}
