package codec

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeTxEnvelope_OK(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":  TypeBankMint,
		"value": map[string]any{"to": "0x0000000000000000000000000000000000000001", "amount": 123},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	env, err := DecodeTxEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if env.Type != TypeBankMint {
		t.Fatalf("unexpected type: %q", env.Type)
	}

	var v BankMintTx
	if err := json.Unmarshal(env.Value, &v); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if v.To != common.HexToAddress("0x01") || v.Amount != 123 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestDecodeTxEnvelope_SignedFields(t *testing.T) {
	sig := make([]byte, 65)
	sig[64] = 1
	b, err := json.Marshal(TxEnvelope{
		Type:   TypeGameJoin,
		Value:  json.RawMessage(`{"gameId":1,"payment":10}`),
		Nonce:  "7",
		Signer: "0x0000000000000000000000000000000000000002",
		Sig:    sig,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	env, err := DecodeTxEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeTxEnvelope: %v", err)
	}
	if env.Nonce != "7" || len(env.Sig) != 65 || env.Sig[64] != 1 {
		t.Fatalf("signed fields not preserved: %+v", env)
	}

	var v GameJoinTx
	if err := json.Unmarshal(env.Value, &v); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if v.GameID != 1 || v.Payment != 10 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestGameCreateTx_OptionalMaster(t *testing.T) {
	var v GameCreateTx
	if err := json.Unmarshal([]byte(`{"stakeAmount":5,"feePercent":3}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.GameMaster != nil {
		t.Fatalf("expected nil game master, got %v", v.GameMaster)
	}
	if v.RegistrationBlocks != 0 {
		t.Fatalf("expected zero window, got %d", v.RegistrationBlocks)
	}
}

func TestDecodeTxEnvelope_MissingType(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"value": map[string]any{"x": 1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = DecodeTxEnvelope(b)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeTxEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeTxEnvelope([]byte("{not json"))
	if err == nil {
		t.Fatalf("expected error")
	}
}
