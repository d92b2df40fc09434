package game

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

// Payout kinds reported on PayoutMade events.
const (
	PayoutPrize  = "prize"
	PayoutFee    = "serviceFee"
	PayoutRefund = "refund"
)

// WithdrawPrize pays the winner Pot minus the service fee, once.
func (g *Game) WithdrawPrize(ledger Ledger, caller common.Address) ([]abci.Event, error) {
	if err := g.requirePhase(PhasePayout); err != nil {
		return nil, err
	}
	if caller != g.Winner {
		return nil, ErrUnauthorized.Wrapf("%s is not the winner", caller.Hex())
	}
	p := g.Player(caller)
	if p == nil {
		return nil, ErrNotJoined.Wrapf("winner %s has no player record", caller.Hex())
	}
	if p.HasWithdrawn {
		return nil, ErrDuplicateAction.Wrap("prize already withdrawn")
	}

	amount := g.WinnerPayout()
	paidOut, err := g.release(ledger, caller, amount)
	if err != nil {
		return nil, err
	}
	g.PaidOut = paidOut
	p.HasWithdrawn = true

	events := []abci.Event{g.payoutEvent(caller, amount, PayoutPrize)}
	return append(events, g.completeIfSettled()...), nil
}

// WithdrawServiceFee pays the game master floor(Pot*FeePercent/100), once.
func (g *Game) WithdrawServiceFee(ledger Ledger, caller common.Address) ([]abci.Event, error) {
	if err := g.requirePhase(PhasePayout); err != nil {
		return nil, err
	}
	if caller != g.GameMaster {
		return nil, ErrUnauthorized.Wrapf("%s is not the game master", caller.Hex())
	}
	if g.ServiceFeeWithdrawn {
		return nil, ErrDuplicateAction.Wrap("service fee already withdrawn")
	}

	amount := g.ServiceFee()
	paidOut, err := g.release(ledger, caller, amount)
	if err != nil {
		return nil, err
	}
	g.PaidOut = paidOut
	g.ServiceFeeWithdrawn = true

	events := []abci.Event{g.payoutEvent(caller, amount, PayoutFee)}
	return append(events, g.completeIfSettled()...), nil
}

// ReclaimWager refunds a player's stake after cancellation, once.
func (g *Game) ReclaimWager(ledger Ledger, caller common.Address) ([]abci.Event, error) {
	if err := g.requirePhase(PhaseCancelled); err != nil {
		return nil, err
	}
	p := g.Player(caller)
	if p == nil {
		return nil, ErrNotJoined.Wrapf("%s has no stake in game %d", caller.Hex(), g.ID)
	}
	if p.HasWithdrawn {
		return nil, ErrDuplicateAction.Wrap("wager already reclaimed")
	}

	paidOut, err := g.release(ledger, caller, p.WagerPaid)
	if err != nil {
		return nil, err
	}
	g.PaidOut = paidOut
	p.HasWithdrawn = true

	return []abci.Event{g.payoutEvent(caller, p.WagerPaid, PayoutRefund)}, nil
}

// release credits amount to recipient and returns the new PaidOut total. It
// mutates nothing on the game; callers commit the returned total only after
// it succeeds.
func (g *Game) release(ledger Ledger, recipient common.Address, amount uint64) (uint64, error) {
	paidOut, err := addUint64Checked(g.PaidOut, amount, "paid out")
	if err != nil || paidOut > g.Pot {
		return 0, ErrTransferFailed.Wrapf("payout of %d exceeds pot %d (already paid %d)", amount, g.Pot, g.PaidOut)
	}
	if err := ledger.Credit(recipient, amount); err != nil {
		return 0, ErrTransferFailed.Wrapf("credit %s: %v", recipient.Hex(), err)
	}
	return paidOut, nil
}

func (g *Game) completeIfSettled() []abci.Event {
	w := g.Players[g.Winner]
	if w == nil || !w.HasWithdrawn || !g.ServiceFeeWithdrawn {
		return nil
	}
	g.Phase = PhaseCompleted
	g.Deadline = 0
	return []abci.Event{g.phaseEvent("")}
}

func (g *Game) payoutEvent(recipient common.Address, amount uint64, kind string) abci.Event {
	return abci.Event{
		Type: EventTypePayoutMade,
		Attributes: []abci.EventAttribute{
			{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
			{Key: "recipient", Value: recipient.Hex(), Index: true},
			{Key: "amount", Value: fmt.Sprintf("%d", amount), Index: false},
			{Key: "kind", Value: kind, Index: true},
		},
	}
}
