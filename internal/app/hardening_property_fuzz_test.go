package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"twothirds/internal/codec"
	"twothirds/internal/game"
)

func TestProperty_ValueConservation_RandomRounds(t *testing.T) {
	const loops = 20

	r := rand.New(rand.NewSource(1337))
	players := []testAccount{alice, bob, carol, mallet}

	for i := 0; i < loops; i++ {
		a := newTestApp(t)

		stake := 1 + r.Uint64()%1_000_000
		fee := r.Uint64() % 101
		for _, p := range players {
			mintTestTokens(t, a, 1, p, stake*2)
		}
		id := createTestGame(t, a, 1, master, stake, fee)

		guesses := make([]uint64, len(players))
		for j := range guesses {
			guesses[j] = r.Uint64() % (game.MaxGuess + 1)
		}
		playToPayout(t, a, id, players, guesses)

		g := a.st.Game(id)
		var winner *testAccount
		for j, p := range players {
			d := guesses[j] - g.TargetValue
			if guesses[j] < g.TargetValue {
				d = g.TargetValue - guesses[j]
			}
			if d < g.WinningDistance {
				t.Fatalf("loop=%d: %s at distance %d beats winning distance %d", i, p.name, d, g.WinningDistance)
			}
			if p.addr == g.Winner {
				winner = &players[j]
				require.Equal(t, g.WinningDistance, d, "loop=%d", i)
			}
		}
		require.NotNil(t, winner, "loop=%d: winner is not a player", i)

		mustOk(t, callGame(t, a, 35, codec.TypeGameWithdrawPrize, id, *winner))
		mustOk(t, callGame(t, a, 35, codec.TypeGameWithdrawFee, id, master))

		g = a.st.Game(id)
		require.Equal(t, game.PhaseCompleted, g.Phase)
		require.Equal(t, stake*uint64(len(players)), g.Pot)
		require.Equal(t, g.Pot, g.PaidOut)

		var total uint64
		for _, p := range append([]testAccount{master}, players...) {
			total += a.st.Balance(p.addr)
		}
		require.Equal(t, stake*2*uint64(len(players)), total, "loop=%d: value not conserved", i)
	}
}
