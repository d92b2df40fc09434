package game

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Result is the outcome of a round over the revealed guesses.
type Result struct {
	Revealed        int
	Average         uint64
	Target          uint64
	WinningDistance uint64
	// Candidates are the players at WinningDistance, in join order.
	Candidates []common.Address
}

// Tally computes average, target and the closest players over the revealed
// guesses, in join order. It does not pick among ties.
func (g *Game) Tally() Result {
	var (
		res Result
		sum uint64
	)
	for _, addr := range g.PlayerOrder {
		p := g.Players[addr]
		if p == nil || !p.HasRevealed {
			continue
		}
		sum += p.RevealedNumber
		res.Revealed++
	}
	if res.Revealed == 0 {
		return res
	}
	res.Average = sum / uint64(res.Revealed)
	// Multiply before dividing; the truncation order is part of the rules.
	res.Target = res.Average * 2 / 3

	first := true
	for _, addr := range g.PlayerOrder {
		p := g.Players[addr]
		if p == nil || !p.HasRevealed {
			continue
		}
		d := absDiff(p.RevealedNumber, res.Target)
		switch {
		case first || d < res.WinningDistance:
			first = false
			res.WinningDistance = d
			res.Candidates = append(res.Candidates[:0], addr)
		case d == res.WinningDistance:
			res.Candidates = append(res.Candidates, addr)
		}
	}
	return res
}

// TieBreakIndex picks an index in [0, n) from
// keccak256(uint256(time) || entropy || uint256(pot)). The inputs are
// visible to, and partly chosen by, the block proposer; the pick is
// reproducible but not secure.
func TieBreakIndex(time int64, entropy common.Hash, pot uint64, n int) int {
	if n <= 1 {
		return 0
	}
	var ts uint64
	if time > 0 {
		ts = uint64(time)
	}
	h := crypto.Keccak256Hash(u256(ts), entropy.Bytes(), u256(pot))
	r := sdkmath.NewUintFromBigInt(new(big.Int).SetBytes(h.Bytes()))
	return int(r.Mod(sdkmath.NewUint(uint64(n))).Uint64())
}

// CalculateResult settles the round. Anyone may call it during the
// calculation phase. With no reveals the game is cancelled and every
// player may reclaim their stake.
func (g *Game) CalculateResult(env Env, caller common.Address) ([]abci.Event, error) {
	if err := g.requirePhase(PhaseCalculation); err != nil {
		return nil, err
	}
	if g.ResultComputed {
		return nil, ErrDuplicateAction.Wrap("result already computed")
	}

	res := g.Tally()
	if res.Revealed == 0 {
		g.Phase = PhaseCancelled
		g.Deadline = 0
		return []abci.Event{g.phaseEvent("no reveals")}, nil
	}

	winner := res.Candidates[TieBreakIndex(env.Time, env.Entropy, g.Pot, len(res.Candidates))]

	g.ResultComputed = true
	g.AverageValue = res.Average
	g.TargetValue = res.Target
	g.WinningDistance = res.WinningDistance
	g.Winner = winner
	g.WinningNumber = g.Players[winner].RevealedNumber
	g.Phase = PhasePayout
	g.Deadline = 0

	return []abci.Event{
		{
			Type: EventTypeResultComputed,
			Attributes: []abci.EventAttribute{
				{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
				{Key: "winner", Value: winner.Hex(), Index: true},
				{Key: "average", Value: fmt.Sprintf("%d", res.Average), Index: false},
				{Key: "target", Value: fmt.Sprintf("%d", res.Target), Index: false},
				{Key: "winningNumber", Value: fmt.Sprintf("%d", g.WinningNumber), Index: false},
				{Key: "winningDistance", Value: fmt.Sprintf("%d", res.WinningDistance), Index: false},
				{Key: "revealed", Value: fmt.Sprintf("%d", res.Revealed), Index: false},
				{Key: "tied", Value: fmt.Sprintf("%d", len(res.Candidates)), Index: false},
				{Key: "calledBy", Value: caller.Hex(), Index: false},
			},
		},
		g.phaseEvent(""),
	}, nil
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
