package state

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"

	"twothirds/internal/game"
)

var latestKey = []byte("state/latest")

type State struct {
	Height int64 `json:"height"`

	NextGameID uint64                    `json:"nextGameId"`
	Accounts   map[common.Address]uint64 `json:"accounts"`
	NonceMax   map[common.Address]uint64 `json:"nonceMax,omitempty"` // signer -> last accepted tx.nonce, for replay protection
	Games      map[uint64]*game.Game     `json:"games"`
}

func NewState() *State {
	return &State{
		Height:     0,
		NextGameID: 1,
		Accounts:   map[common.Address]uint64{},
		NonceMax:   map[common.Address]uint64{},
		Games:      map[uint64]*game.Game{},
	}
}

// Load reads the last saved state from db, or returns a fresh state if none
// was saved yet.
func Load(db *leveldb.DB) (*State, error) {
	b, err := db.Get(latestKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *State) Save(db *leveldb.DB) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := db.Put(latestKey, b, nil); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (s *State) normalize() {
	if s.Accounts == nil {
		s.Accounts = map[common.Address]uint64{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[common.Address]uint64{}
	}
	if s.Games == nil {
		s.Games = map[uint64]*game.Game{}
	}
	if s.NextGameID == 0 {
		s.NextGameID = 1
	}
	for _, g := range s.Games {
		if g.Players == nil {
			g.Players = map[common.Address]*game.Player{}
		}
	}
}

func (s *State) AppHash() []byte {
	// Hash a normalized view with maps flattened into sorted slices so the
	// digest never depends on map iteration.
	type accountKV struct {
		Addr    common.Address `json:"addr"`
		Balance uint64         `json:"balance"`
	}
	type nonceKV struct {
		Signer common.Address `json:"signer"`
		Nonce  uint64         `json:"nonce"`
	}
	type playerKV struct {
		Addr   common.Address `json:"addr"`
		Player *game.Player   `json:"player"`
	}
	type gameKV struct {
		ID      uint64     `json:"id"`
		Game    *game.Game `json:"game"`
		Players []playerKV `json:"players"`
	}

	accounts := make([]accountKV, 0, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts = append(accounts, accountKV{Addr: k, Balance: v})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Addr.Cmp(accounts[j].Addr) < 0 })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer.Cmp(nonces[j].Signer) < 0 })

	games := make([]gameKV, 0, len(s.Games))
	for id, g := range s.Games {
		// Players are listed in join order; the map itself is left out.
		view := *g
		view.Players = nil
		players := make([]playerKV, 0, len(g.PlayerOrder))
		for _, addr := range g.PlayerOrder {
			players = append(players, playerKV{Addr: addr, Player: g.Players[addr]})
		}
		games = append(games, gameKV{ID: id, Game: &view, Players: players})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })

	normalized := struct {
		Height     int64       `json:"height"`
		NextGameID uint64      `json:"nextGameId"`
		Accounts   []accountKV `json:"accounts"`
		NonceMax   []nonceKV   `json:"nonceMax,omitempty"`
		Games      []gameKV    `json:"games"`
	}{
		Height:     s.Height,
		NextGameID: s.NextGameID,
		Accounts:   accounts,
		NonceMax:   nonces,
		Games:      games,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr common.Address) uint64 {
	return s.Accounts[addr]
}

func (s *State) Credit(addr common.Address, amount uint64) error {
	bal := s.Accounts[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	s.Accounts[addr] = bal + amount
	return nil
}

func (s *State) Debit(addr common.Address, amount uint64) error {
	bal := s.Accounts[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	s.Accounts[addr] = bal - amount
	return nil
}

var _ game.Ledger = (*State)(nil)

// ---- Games ----

// Game returns the game with the given id, or nil.
func (s *State) Game(id uint64) *game.Game {
	return s.Games[id]
}

// AllocGameID reserves and returns the next game id.
func (s *State) AllocGameID() uint64 {
	id := s.NextGameID
	s.NextGameID++
	return id
}

// GameIDs returns all game ids in ascending order.
func (s *State) GameIDs() []uint64 {
	ids := make([]uint64, 0, len(s.Games))
	for id := range s.Games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
