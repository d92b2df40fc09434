package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"twothirds/internal/app"
	"twothirds/internal/codec"
	"twothirds/internal/game"
)

const (
	flagKey   = "key"
	flagNonce = "nonce"
)

// CommitmentCmd prints the commitment a player submits before revealing.
func CommitmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commitment <number> <salt-hex> <address>",
		Short: "Compute keccak256(number, salt, address) for game/commit",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || number > game.MaxGuess {
				return fmt.Errorf("number must be an integer in [0,%d]", game.MaxGuess)
			}
			salt := common.FromHex(args[1])
			if len(salt) != common.HashLength {
				return fmt.Errorf("salt must be %d bytes hex, got %d", common.HashLength, len(salt))
			}
			if !common.IsHexAddress(args[2]) {
				return fmt.Errorf("invalid address %q", args[2])
			}
			c := game.ComputeCommitment(number, common.BytesToHash(salt), common.HexToAddress(args[2]))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), c.Hex())
			return err
		},
	}
}

// KeygenCmd generates a secp256k1 account key.
func KeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new account key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			out := map[string]string{
				"address": crypto.PubkeyToAddress(key.PublicKey).Hex(),
				"key":     hex.EncodeToString(crypto.FromECDSA(key)),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

// SignTxCmd wraps a tx value in a signed envelope ready for broadcast_tx.
func SignTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-tx <type> <value-json>",
		Short: "Sign a tx envelope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyHex, _ := cmd.Flags().GetString(flagKey)
			nonce, _ := cmd.Flags().GetUint64(flagNonce)

			key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flagKey, err)
			}
			var value bytes.Buffer
			if err := json.Compact(&value, []byte(args[1])); err != nil {
				return fmt.Errorf("invalid value json: %w", err)
			}

			env := codec.TxEnvelope{
				Type:   args[0],
				Value:  value.Bytes(),
				Nonce:  strconv.FormatUint(nonce, 10),
				Signer: crypto.PubkeyToAddress(key.PublicKey).Hex(),
			}
			env.Sig, err = crypto.Sign(app.TxAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer), key)
			if err != nil {
				return fmt.Errorf("sign: %w", err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(env)
		},
	}
	cmd.Flags().String(flagKey, "", "hex-encoded secp256k1 private key")
	cmd.Flags().Uint64(flagNonce, 0, "tx nonce; must exceed the signer's last accepted nonce")
	_ = cmd.MarkFlagRequired(flagKey)
	_ = cmd.MarkFlagRequired(flagNonce)
	return cmd
}
