package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"

	"twothirds/internal/game"
)

func (a *TTGApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /games
	// - /game/<id>
	// - /game/<id>/player/<addr>
	// - /account/<addr>
	// - /commitment/<number>/<salt>/<addr>
	// - /stats
	path := strings.TrimSpace(req.Path)
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case path == "/games":
		return a.queryOK(a.st.GameIDs())

	case path == "/stats":
		return a.queryOK(a.metrics.snapshot())

	case parts[0] == "account" && len(parts) == 2:
		addr, ok := parseAddress(parts[1])
		if !ok {
			return a.queryErr("invalid address"), nil
		}
		return a.queryOK(map[string]any{
			"addr":    addr.Hex(),
			"balance": a.st.Balance(addr),
			"nonce":   a.st.NonceMax[addr],
		})

	case parts[0] == "game" && (len(parts) == 2 || len(parts) == 4):
		id, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return a.queryErr("invalid game id"), nil
		}
		g := a.st.Game(id)
		if g == nil {
			return a.queryErr("game not found"), nil
		}
		if len(parts) == 2 {
			return a.queryOK(g)
		}
		if parts[2] != "player" {
			return a.queryErr("unknown query path"), nil
		}
		addr, ok := parseAddress(parts[3])
		if !ok {
			return a.queryErr("invalid address"), nil
		}
		p := g.Player(addr)
		if p == nil {
			return a.queryErr("player not found"), nil
		}
		return a.queryOK(struct {
			Addr common.Address `json:"addr"`
			*game.Player
		}{Addr: addr, Player: p})

	case parts[0] == "commitment" && len(parts) == 4:
		number, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil || number > game.MaxGuess {
			return a.queryErr("invalid number"), nil
		}
		salt := common.FromHex(parts[2])
		if len(salt) != common.HashLength {
			return a.queryErr("salt must be 32 bytes hex"), nil
		}
		addr, ok := parseAddress(parts[3])
		if !ok {
			return a.queryErr("invalid address"), nil
		}
		c := game.ComputeCommitment(number, common.BytesToHash(salt), addr)
		return a.queryOK(map[string]string{"commitment": c.Hex()})

	default:
		return a.queryErr("unknown query path"), nil
	}
}

func (a *TTGApp) queryOK(v any) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return a.queryErr(err.Error()), nil
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
}

func (a *TTGApp) queryErr(msg string) *abci.QueryResponse {
	return &abci.QueryResponse{Code: 1, Log: msg, Height: a.st.Height}
}

func parseAddress(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
