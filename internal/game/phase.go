package game

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

// AdvancePhase moves the game past an expired deadline. Anyone may call it
// once env.Height > Deadline; the game master may additionally close
// registration early when the quorum is met.
//
// Closing registration below quorum cancels the game; that outcome is a
// successful call, not an error.
func (g *Game) AdvancePhase(env Env, caller common.Address) ([]abci.Event, error) {
	switch g.Phase {
	case PhaseRegistration:
		expired := env.Height > g.Deadline
		if !expired && caller != g.GameMaster {
			return nil, g.tooEarly(env)
		}
		if len(g.PlayerOrder) < MinPlayers {
			if !expired {
				return nil, ErrInsufficientParticipation.Wrapf("have %d players, need %d", len(g.PlayerOrder), MinPlayers)
			}
			g.Phase = PhaseCancelled
			g.Deadline = 0
			return []abci.Event{g.phaseEvent(fmt.Sprintf("quorum not met: %d/%d players", len(g.PlayerOrder), MinPlayers))}, nil
		}
		deadline, err := addInt64AndU64Checked(env.Height, g.Params.CommitBlocks, "commit deadline")
		if err != nil {
			return nil, ErrInvalidInput.Wrap(err.Error())
		}
		g.Phase = PhaseCommit
		g.Deadline = deadline
		return []abci.Event{g.phaseEvent("")}, nil

	case PhaseCommit:
		if env.Height <= g.Deadline {
			return nil, g.tooEarly(env)
		}
		deadline, err := addInt64AndU64Checked(env.Height, g.Params.RevealBlocks, "reveal deadline")
		if err != nil {
			return nil, ErrInvalidInput.Wrap(err.Error())
		}
		g.Phase = PhaseReveal
		g.Deadline = deadline
		return []abci.Event{g.phaseEvent("")}, nil

	case PhaseReveal:
		if env.Height <= g.Deadline {
			return nil, g.tooEarly(env)
		}
		g.Phase = PhaseCalculation
		g.Deadline = 0
		return []abci.Event{g.phaseEvent("")}, nil

	case PhaseCalculation:
		return nil, ErrPhaseMismatch.Wrap("calculation phase ends by computing the result")
	default:
		return nil, ErrPhaseMismatch.Wrapf("no transition out of %s", g.Phase)
	}
}

func (g *Game) tooEarly(env Env) error {
	return ErrDeadlineNotReached.Wrapf("%s deadline %d, height %d", g.Phase, g.Deadline, env.Height)
}

func (g *Game) phaseEvent(reason string) abci.Event {
	ev := abci.Event{
		Type: EventTypePhaseChanged,
		Attributes: []abci.EventAttribute{
			{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
			{Key: "phase", Value: string(g.Phase), Index: true},
			{Key: "deadline", Value: fmt.Sprintf("%d", g.Deadline), Index: false},
		},
	}
	if reason != "" {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: "reason", Value: reason, Index: false})
	}
	return ev
}
