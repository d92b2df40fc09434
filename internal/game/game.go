// Package game implements one round of the two-thirds-of-the-average game:
// the phase machine, commit-reveal verification, winner selection and the
// escrow of the pooled stake.
//
// A Game never blocks and owns no clock. Every operation receives the block
// context it executes in (Env) and either applies completely or returns an
// error without touching the game.
package game

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// MinPlayers is the quorum needed to leave registration.
	MinPlayers = 3
	// MaxGuess is the largest number a player may reveal.
	MaxGuess = 1000
	// MaxFeePercent bounds Params.FeePercent.
	MaxFeePercent = 100
)

type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhaseCommit       Phase = "commit"
	PhaseReveal       Phase = "reveal"
	PhaseCalculation  Phase = "calculation"
	PhasePayout       Phase = "payout"
	PhaseCompleted    Phase = "completed"
	PhaseCancelled    Phase = "cancelled"
)

// Terminal reports whether no further transition can leave p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// Env is the block context of an operation.
type Env struct {
	// Height is the block height, used as the game clock.
	Height int64
	// Time is the block time in unix seconds.
	Time int64
	// Entropy is the block hash. It feeds the tie-break and is NOT secure
	// randomness: the block proposer can influence it.
	Entropy common.Hash
}

// Ledger moves escrowed value between the game and player balances.
type Ledger interface {
	Debit(addr common.Address, amount uint64) error
	Credit(addr common.Address, amount uint64) error
}

// Params are fixed when the game is created.
type Params struct {
	StakeAmount uint64 `json:"stakeAmount"`
	FeePercent  uint64 `json:"feePercent"`

	// Phase windows in blocks.
	RegistrationBlocks uint64 `json:"registrationBlocks"`
	CommitBlocks       uint64 `json:"commitBlocks"`
	RevealBlocks       uint64 `json:"revealBlocks"`
}

// Validate checks the constructor contract.
func (p Params) Validate() error {
	if p.StakeAmount == 0 {
		return ErrInvalidInput.Wrap("stake amount must be > 0")
	}
	if p.FeePercent > MaxFeePercent {
		return ErrInvalidInput.Wrapf("fee percent %d exceeds %d", p.FeePercent, MaxFeePercent)
	}
	if p.RegistrationBlocks == 0 || p.CommitBlocks == 0 || p.RevealBlocks == 0 {
		return ErrInvalidInput.Wrap("phase windows must be > 0 blocks")
	}
	return nil
}

type Player struct {
	WagerPaid      uint64      `json:"wagerPaid"`
	Commitment     common.Hash `json:"commitment"`
	RevealedNumber uint64      `json:"revealedNumber"`
	HasCommitted   bool        `json:"hasCommitted"`
	HasRevealed    bool        `json:"hasRevealed"`
	HasWithdrawn   bool        `json:"hasWithdrawn"`
}

type Game struct {
	ID         uint64         `json:"id"`
	Address    common.Address `json:"address"`
	Creator    common.Address `json:"creator"`
	GameMaster common.Address `json:"gameMaster"`
	Params     Params         `json:"params"`

	CreatedHeight int64 `json:"createdHeight"`

	Phase Phase `json:"phase"`
	// Deadline is a block height; 0 means no active deadline.
	Deadline int64 `json:"deadline"`

	// Pot is StakeAmount * len(PlayerOrder) and is never decremented.
	// Released value is tracked in PaidOut.
	Pot     uint64 `json:"pot"`
	PaidOut uint64 `json:"paidOut"`

	Players map[common.Address]*Player `json:"players"`
	// PlayerOrder lists players in join order; all iteration goes through it.
	PlayerOrder []common.Address `json:"playerOrder"`

	ResultComputed      bool           `json:"resultComputed"`
	Winner              common.Address `json:"winner"`
	AverageValue        uint64         `json:"averageValue"`
	TargetValue         uint64         `json:"targetValue"`
	WinningDistance     uint64         `json:"winningDistance"`
	WinningNumber       uint64         `json:"winningNumber"`
	ServiceFeeWithdrawn bool           `json:"serviceFeeWithdrawn"`
}

// New creates a game in the registration phase. The registration deadline
// is env.Height + params.RegistrationBlocks.
func New(id uint64, addr, creator, gameMaster common.Address, params Params, env Env) (*Game, []abci.Event, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if gameMaster == (common.Address{}) {
		return nil, nil, ErrInvalidInput.Wrap("missing game master")
	}
	deadline, err := addInt64AndU64Checked(env.Height, params.RegistrationBlocks, "registration deadline")
	if err != nil {
		return nil, nil, ErrInvalidInput.Wrap(err.Error())
	}

	g := &Game{
		ID:            id,
		Address:       addr,
		Creator:       creator,
		GameMaster:    gameMaster,
		Params:        params,
		CreatedHeight: env.Height,
		Phase:         PhaseRegistration,
		Deadline:      deadline,
		Players:       map[common.Address]*Player{},
	}
	events := []abci.Event{
		{
			Type: EventTypeGameCreated,
			Attributes: []abci.EventAttribute{
				{Key: "gameId", Value: fmt.Sprintf("%d", id), Index: true},
				{Key: "address", Value: addr.Hex(), Index: true},
				{Key: "creator", Value: creator.Hex(), Index: true},
				{Key: "gameMaster", Value: gameMaster.Hex(), Index: true},
				{Key: "stakeAmount", Value: fmt.Sprintf("%d", params.StakeAmount), Index: false},
				{Key: "feePercent", Value: fmt.Sprintf("%d", params.FeePercent), Index: false},
			},
		},
		g.phaseEvent(""),
	}
	return g, events, nil
}

// PlayerCount returns the number of joined players.
func (g *Game) PlayerCount() int {
	return len(g.PlayerOrder)
}

// Player returns the record of addr, or nil if addr never joined.
func (g *Game) Player(addr common.Address) *Player {
	p := g.Players[addr]
	if p == nil || p.WagerPaid == 0 {
		return nil
	}
	return p
}

// ServiceFee is floor(Pot * FeePercent / 100).
func (g *Game) ServiceFee() uint64 {
	return percentOf(g.Pot, g.Params.FeePercent)
}

// WinnerPayout is the pot minus the service fee.
func (g *Game) WinnerPayout() uint64 {
	return g.Pot - g.ServiceFee()
}

// Join escrows the caller's stake. payment must equal the stake exactly.
func (g *Game) Join(ledger Ledger, env Env, caller common.Address, payment uint64) ([]abci.Event, error) {
	if g.Player(caller) != nil {
		return nil, ErrDuplicateAction.Wrapf("%s already joined", caller.Hex())
	}
	if err := g.requirePhase(PhaseRegistration); err != nil {
		return nil, err
	}
	if err := g.requireBeforeDeadline(env); err != nil {
		return nil, err
	}
	if payment != g.Params.StakeAmount {
		return nil, ErrWrongPayment.Wrapf("got %d want %d", payment, g.Params.StakeAmount)
	}
	pot, err := addUint64Checked(g.Pot, payment, "pot")
	if err != nil {
		return nil, ErrInvalidInput.Wrap(err.Error())
	}
	if err := ledger.Debit(caller, payment); err != nil {
		return nil, ErrTransferFailed.Wrapf("escrow stake: %v", err)
	}

	g.Players[caller] = &Player{WagerPaid: payment}
	g.PlayerOrder = append(g.PlayerOrder, caller)
	g.Pot = pot

	return []abci.Event{{
		Type: EventTypePlayerJoined,
		Attributes: []abci.EventAttribute{
			{Key: "gameId", Value: fmt.Sprintf("%d", g.ID), Index: true},
			{Key: "player", Value: caller.Hex(), Index: true},
			{Key: "stake", Value: fmt.Sprintf("%d", payment), Index: false},
			{Key: "playerCount", Value: fmt.Sprintf("%d", len(g.PlayerOrder)), Index: false},
			{Key: "pot", Value: fmt.Sprintf("%d", g.Pot), Index: false},
		},
	}}, nil
}

func (g *Game) requirePhase(want Phase) error {
	if g.Phase != want {
		return ErrPhaseMismatch.Wrapf("game %d is in %s, want %s", g.ID, g.Phase, want)
	}
	return nil
}

func (g *Game) requireBeforeDeadline(env Env) error {
	if env.Height > g.Deadline {
		return ErrDeadlineExpired.Wrapf("height %d is past %s deadline %d", env.Height, g.Phase, g.Deadline)
	}
	return nil
}
