package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"twothirds/internal/app"
	"twothirds/internal/codec"
	"twothirds/internal/config"
	"twothirds/internal/game"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommitmentCmd(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	salt := crypto.Keccak256Hash([]byte("salt"))

	out, err := run(t, "commitment", "333", salt.Hex(), addr.Hex())
	require.NoError(t, err)
	require.Equal(t, game.ComputeCommitment(333, salt, addr).Hex(), strings.TrimSpace(out))

	_, err = run(t, "commitment", "1001", salt.Hex(), addr.Hex())
	require.Error(t, err)
	_, err = run(t, "commitment", "1", "0x1234", addr.Hex())
	require.Error(t, err)
	_, err = run(t, "commitment", "1", salt.Hex(), "nope")
	require.Error(t, err)
}

func TestKeygenAndSignTx(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)
	var kp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &kp))

	raw, err := hex.DecodeString(kp["key"])
	require.NoError(t, err)
	key, err := crypto.ToECDSA(raw)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), kp["address"])

	out, err = run(t, "sign-tx", codec.TypeGameAdvance, `{ "caller": "`+kp["address"]+`", "gameId": 1 }`, "--key", kp["key"], "--nonce", "3")
	require.NoError(t, err)

	env, err := codec.DecodeTxEnvelope([]byte(out))
	require.NoError(t, err)
	require.Equal(t, "3", env.Nonce)
	require.Equal(t, kp["address"], env.Signer)
	require.JSONEq(t, `{"caller":"`+kp["address"]+`","gameId":1}`, string(env.Value))

	pub, err := crypto.SigToPub(app.TxAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer), env.Sig)
	require.NoError(t, err)
	require.Equal(t, kp["address"], crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignTx_RequiresKeyAndNonce(t *testing.T) {
	_, err := run(t, "sign-tx", codec.TypeGameAdvance, `{}`)
	require.Error(t, err)
	_, err = run(t, "sign-tx", codec.TypeGameAdvance, `{not json`, "--key", strings.Repeat("11", 32), "--nonce", "1")
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogFormat = "json"
	logger, err := NewLogger(&buf, cfg)
	require.NoError(t, err)
	logger.Info("hello", "gameId", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.EqualValues(t, 7, line["gameId"])

	cfg.LogLevel = "loud"
	_, err = NewLogger(&buf, cfg)
	require.Error(t, err)
}
