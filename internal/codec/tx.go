package codec

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; ours are JSON-encoded envelopes.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Tx auth:
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: hex address of the signer.
	// - Sig: 65-byte recoverable secp256k1 signature over the sign bytes of
	//   (type, nonce, signer, keccak256(value)).
	Nonce  string        `json:"nonce,omitempty"`
	Signer string        `json:"signer,omitempty"`
	Sig    hexutil.Bytes `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// Tx types.
const (
	TypeBankMint = "bank/mint"
	TypeBankSend = "bank/send"

	TypeGameCreate        = "game/create"
	TypeGameJoin          = "game/join"
	TypeGameCommit        = "game/commit"
	TypeGameReveal        = "game/reveal"
	TypeGameAdvance       = "game/advance"
	TypeGameCalculate     = "game/calculate"
	TypeGameWithdrawPrize = "game/withdraw_prize"
	TypeGameWithdrawFee   = "game/withdraw_fee"
	TypeGameReclaim       = "game/reclaim"
)

// ---- Bank ----

type BankMintTx struct {
	To     common.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

type BankSendTx struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount uint64         `json:"amount"`
}

// ---- Game ----

type GameCreateTx struct {
	Creator     common.Address `json:"creator"`
	StakeAmount uint64         `json:"stakeAmount"`
	FeePercent  uint64         `json:"feePercent"`
	// GameMaster defaults to Creator.
	GameMaster *common.Address `json:"gameMaster,omitempty"`

	// Optional phase windows in blocks. Node defaults are used when zero.
	RegistrationBlocks uint64 `json:"registrationBlocks,omitempty"`
	CommitBlocks       uint64 `json:"commitBlocks,omitempty"`
	RevealBlocks       uint64 `json:"revealBlocks,omitempty"`
}

type GameJoinTx struct {
	Player common.Address `json:"player"`
	GameID uint64         `json:"gameId"`
	// Payment is the value attached to the join; it must equal the stake.
	Payment uint64 `json:"payment"`
}

type GameCommitTx struct {
	Player     common.Address `json:"player"`
	GameID     uint64         `json:"gameId"`
	Commitment common.Hash    `json:"commitment"`
}

type GameRevealTx struct {
	Player common.Address `json:"player"`
	GameID uint64         `json:"gameId"`
	Number uint64         `json:"number"`
	Salt   common.Hash    `json:"salt"`
}

// GameCallTx is the payload of the parameterless game calls: advance,
// calculate, withdraw_prize, withdraw_fee and reclaim.
type GameCallTx struct {
	Caller common.Address `json:"caller"`
	GameID uint64         `json:"gameId"`
}
