package app

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"

	"twothirds/internal/codec"
	"twothirds/internal/state"
)

const txAuthDomainV1 = "ttg/tx/v1"

// SigLen is the length of a recoverable secp256k1 signature (R || S || V).
const SigLen = crypto.SignatureLength

// TxAuthSignBytes is the digest a signer signs:
// keccak256(DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || keccak256(value)).
func TxAuthSignBytes(typ string, value []byte, nonce string, signer string) []byte {
	sum := crypto.Keccak256(value)
	out := make([]byte, 0, len(txAuthDomainV1)+1+len(typ)+1+len(nonce)+1+len(signer)+1+len(sum))
	out = append(out, []byte(txAuthDomainV1)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum...)
	return crypto.Keccak256(out)
}

// signerCache memoizes signature recovery by (digest, sig) so the work done
// in CheckTx is reused when the tx is delivered.
type signerCache struct {
	c *lru.Cache
}

func newSignerCache(size int) (*signerCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &signerCache{c: c}, nil
}

func (s *signerCache) recover(digest, sig []byte) (common.Address, error) {
	key := crypto.Keccak256Hash(digest, sig)
	if v, ok := s.c.Get(key); ok {
		return v.(common.Address), nil
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	addr := crypto.PubkeyToAddress(*pub)
	s.c.Add(key, addr)
	return addr, nil
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return ErrUnauthorized.Wrap("missing tx.nonce")
	}
	if env.Signer == "" {
		return ErrUnauthorized.Wrap("missing tx.signer")
	}
	if !common.IsHexAddress(env.Signer) {
		return ErrUnauthorized.Wrapf("invalid tx.signer %q", env.Signer)
	}
	if len(env.Sig) == 0 {
		return ErrUnauthorized.Wrap("missing tx.sig")
	}
	if len(env.Sig) != SigLen {
		return ErrUnauthorized.Wrapf("invalid tx.sig length: got %d want %d", len(env.Sig), SigLen)
	}
	return nil
}

// authenticate verifies the envelope signature and nonce against st and
// returns the signer with its nonce. It does not record the nonce.
//
// A nonce is consumed once the envelope authenticates, even if the tx then
// fails, so a signed tx can never execute later than its first inclusion.
func (a *TTGApp) authenticate(st *state.State, env codec.TxEnvelope) (common.Address, uint64, error) {
	if err := requireSignedEnvelope(env); err != nil {
		return common.Address{}, 0, err
	}
	nonce, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return common.Address{}, 0, ErrUnauthorized.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	signer := common.HexToAddress(env.Signer)

	digest := TxAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	recovered, err := a.sigs.recover(digest, env.Sig)
	if err != nil {
		return common.Address{}, 0, ErrUnauthorized.Wrapf("invalid signature: %v", err)
	}
	if recovered != signer {
		return common.Address{}, 0, ErrUnauthorized.Wrapf("invalid signature: recovered %s, tx.signer %s", recovered.Hex(), signer.Hex())
	}

	if last, ok := st.NonceMax[signer]; ok && nonce <= last {
		return common.Address{}, 0, ErrReplay.Wrapf("nonce %d <= last %d", nonce, last)
	}
	return signer, nonce, nil
}

// requireSigner checks that the authenticated signer is the account the
// tx acts for.
func requireSigner(signer, account common.Address) error {
	if account == (common.Address{}) {
		return ErrInvalidTx.Wrap("missing account")
	}
	if signer != account {
		return ErrUnauthorized.Wrapf("tx signer mismatch: signer=%s want=%s", signer.Hex(), account.Hex())
	}
	return nil
}
