package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"

	"twothirds/internal/codec"
	"twothirds/internal/config"
	"twothirds/internal/game"
	"twothirds/internal/state"
)

const (
	AppVersion uint64 = 1
)

type TTGApp struct {
	*abci.BaseApplication

	db     *leveldb.DB
	cfg    config.Config
	logger log.Logger

	sigs    *signerCache
	metrics *appMetrics

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(db *leveldb.DB, cfg config.Config, logger log.Logger) (*TTGApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	st, err := state.Load(db)
	if err != nil {
		return nil, err
	}
	sigs, err := newSignerCache(cfg.SigCacheSize)
	if err != nil {
		return nil, fmt.Errorf("signer cache: %w", err)
	}
	a := &TTGApp{
		BaseApplication: abci.NewBaseApplication(),
		db:              db,
		cfg:             cfg,
		logger:          logger.With("module", "app"),
		sigs:            sigs,
		metrics:         newAppMetrics(),
		st:              st,
		lastHash:        st.AppHash(),
	}
	a.metrics.blockHeight.Update(st.Height)
	a.logger.Info("loaded state", "height", st.Height, "games", len(st.Games), "appHash", fmt.Sprintf("%X", a.lastHash))
	return a, nil
}

func (a *TTGApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "TTG (v1)",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

// CheckTx validates structure, faucet policy, signature and nonce against
// the last committed state. Game preconditions are only checked on delivery.
func (a *TTGApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return checkTxError(ErrTxDecode.Wrap(err.Error())), nil
	}
	if env.Type == codec.TypeBankMint {
		if !a.cfg.Faucet {
			return checkTxError(ErrFaucetOff.Wrap("bank/mint rejected")), nil
		}
		return &abci.CheckTxResponse{Code: abci.CodeTypeOK}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, _, err := a.authenticate(a.st, env); err != nil {
		return checkTxError(err), nil
	}
	return &abci.CheckTxResponse{Code: abci.CodeTypeOK}, nil
}

func (a *TTGApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	// No genesis accounts; devnets fund players through the faucet.
	return &abci.InitChainResponse{}, nil
}

func (a *TTGApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	env := game.Env{
		Height:  req.Height,
		Time:    req.Time.Unix(),
		Entropy: common.BytesToHash(req.Hash),
	}

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, env)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()
	a.metrics.blockHeight.Update(req.Height)
	a.logger.Debug("finalized block", "height", req.Height, "txs", len(req.Txs))

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *TTGApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.st.Save(a.db); err != nil {
		// CometBFT expects Commit to not crash; return error so node halts loudly.
		a.logger.Error("commit failed", "height", a.st.Height, "err", err)
		return nil, err
	}
	a.logger.Info("committed state", "height", a.st.Height, "appHash", fmt.Sprintf("%X", a.lastHash))
	return &abci.CommitResponse{}, nil
}

// deliverTx executes one tx against a staged copy of the state. The copy
// replaces the live state only if the tx succeeds, so a rejected tx leaves
// nothing behind except its consumed nonce.
func (a *TTGApp) deliverTx(txBytes []byte, env game.Env) *abci.ExecTxResult {
	tx, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return a.reject("", ErrTxDecode.Wrap(err.Error()))
	}

	var (
		signer common.Address
		nonce  uint64
		signed = tx.Type != codec.TypeBankMint
	)
	if signed {
		signer, nonce, err = a.authenticate(a.st, tx)
		if err != nil {
			return a.reject(tx.Type, err)
		}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return a.reject(tx.Type, ErrInternalState.Wrap(err.Error()))
	}
	if signed {
		staged.NonceMax[signer] = nonce
	}
	events, err := a.execTx(staged, tx, signer, nonce, env)
	if err != nil {
		if signed {
			a.st.NonceMax[signer] = nonce
		}
		return a.reject(tx.Type, err)
	}

	a.st = staged
	a.metrics.txDelivered.Inc(1)
	return &abci.ExecTxResult{Code: abci.CodeTypeOK, Events: events}
}

func (a *TTGApp) reject(typ string, err error) *abci.ExecTxResult {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	a.metrics.txRejected.Inc(1)
	a.logger.Debug("tx rejected", "type", typ, "codespace", codespace, "code", code, "err", logMsg)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: logMsg}
}

func checkTxError(err error) *abci.CheckTxResponse {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.CheckTxResponse{Code: code, Codespace: codespace, Log: logMsg}
}

func okEvent(typ string, attrs map[string]string) abci.Event {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}
