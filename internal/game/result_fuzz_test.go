package game

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func FuzzTally_WinnerIsClosest(f *testing.F) {
	f.Add(uint16(100), uint16(200), uint16(300), uint16(0), uint8(0x7))
	f.Add(uint16(0), uint16(1), uint16(1000), uint16(1000), uint8(0xf))
	f.Add(uint16(500), uint16(500), uint16(500), uint16(500), uint8(0xa))

	f.Fuzz(func(t *testing.T, n0, n1, n2, n3 uint16, revealMask uint8) {
		numbers := []uint64{uint64(n0) % (MaxGuess + 1), uint64(n1) % (MaxGuess + 1), uint64(n2) % (MaxGuess + 1), uint64(n3) % (MaxGuess + 1)}
		addrs := []common.Address{alice, bob, carol, dave}

		g := &Game{Players: map[common.Address]*Player{}}
		var sum, revealed uint64
		for i, addr := range addrs {
			p := &Player{WagerPaid: 1, HasCommitted: true}
			if revealMask&(1<<i) != 0 {
				p.HasRevealed = true
				p.RevealedNumber = numbers[i]
				sum += numbers[i]
				revealed++
			}
			g.Players[addr] = p
			g.PlayerOrder = append(g.PlayerOrder, addr)
		}

		res := g.Tally()
		if uint64(res.Revealed) != revealed {
			t.Fatalf("revealed=%d want %d", res.Revealed, revealed)
		}
		if revealed == 0 {
			if len(res.Candidates) != 0 {
				t.Fatalf("candidates without reveals: %v", res.Candidates)
			}
			return
		}
		if want := sum / revealed; res.Average != want {
			t.Fatalf("average=%d want %d", res.Average, want)
		}
		if want := res.Average * 2 / 3; res.Target != want {
			t.Fatalf("target=%d want %d", res.Target, want)
		}
		if len(res.Candidates) == 0 {
			t.Fatalf("no candidates")
		}

		isCandidate := map[common.Address]bool{}
		for _, c := range res.Candidates {
			isCandidate[c] = true
		}
		for i, addr := range addrs {
			if !g.Players[addr].HasRevealed {
				if isCandidate[addr] {
					t.Fatalf("unrevealed player %s is a candidate", addr.Hex())
				}
				continue
			}
			d := absDiff(numbers[i], res.Target)
			if d < res.WinningDistance {
				t.Fatalf("player %d at distance %d beats %d", i, d, res.WinningDistance)
			}
			if (d == res.WinningDistance) != isCandidate[addr] {
				t.Fatalf("player %d at distance %d: candidate=%v", i, d, isCandidate[addr])
			}
		}

		idx := TieBreakIndex(int64(n0), common.Hash{byte(n1)}, uint64(n2), len(res.Candidates))
		if idx < 0 || idx >= len(res.Candidates) {
			t.Fatalf("tie-break index %d out of range %d", idx, len(res.Candidates))
		}
	})
}
