// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"math/bits"

	"github.com/thoas/go-funk"
)

// Split is the distribution of one game's prize.
type Split struct {
	TotalPrize   Amount `json:"totalPrize"`
	CreatorCut   Amount `json:"creatorCut"`
	PlatformCut  Amount `json:"platformCut"`
	WinnerAmount Amount `json:"winnerAmount"`
	PerWinner    Amount `json:"perWinner"`
	// Dust is winnerAmount mod len(winners). It is credited to platform revenue.
	Dust Amount `json:"dust"`
}

// Distributed is the total value the split hands out, dust included.
func (s Split) Distributed(winners int) Amount {
	return s.CreatorCut + s.PlatformCut + s.PerWinner*Amount(winners) + s.Dust
}

// bpsOf returns floor(amount * bps / 10000) with a 128-bit intermediate.
func bpsOf(amount Amount, bps uint32) Amount {
	hi, lo := bits.Mul64(uint64(amount), uint64(bps))
	q, _ := bits.Div64(hi, lo, BpsDenominator)
	return Amount(q)
}

// ComputeSplit computes the prize distribution for a pool of totalPrize
// shared by winners. Callers guarantee creatorBps+platformBps < 10000 and
// winners > 0.
func ComputeSplit(totalPrize Amount, creatorBps, platformBps uint32, winners int) Split {
	s := Split{
		TotalPrize:  totalPrize,
		CreatorCut:  bpsOf(totalPrize, creatorBps),
		PlatformCut: bpsOf(totalPrize, platformBps),
	}
	s.WinnerAmount = totalPrize - s.CreatorCut - s.PlatformCut
	if winners > 0 {
		s.PerWinner = s.WinnerAmount / Amount(winners)
		s.Dust = s.WinnerAmount % Amount(winners)
	}
	return s
}

// validateWinners checks the reported winners are a non-empty set of joined players.
func validateWinners(op string, g *Game, winners []Address) error {
	if len(winners) == 0 {
		return newError(KindInvalidGameParameters, op, "game %d: no winners", g.ID)
	}
	if uniq := funk.Uniq(winners).([]Address); len(uniq) != len(winners) {
		return newError(KindInvalidGameParameters, op, "game %d: duplicate winners", g.ID)
	}
	for _, w := range winners {
		if !funk.Contains(g.Players, w) {
			return newError(KindInvalidGameParameters, op, "game %d: winner %s did not join", g.ID, w)
		}
	}
	return nil
}

// settle credits the split into the ledger. Called with the game and
// admission locks held.
func (e *Engine) settle(g *Game, winners []Address) Split {
	split := ComputeSplit(g.PrizePool, g.CreatorBps, g.PlatformBps, len(winners))
	for _, w := range winners {
		e.ledger.credit(ClassPlayer, w, g.Token, split.PerWinner)
		e.risk.recordWin(w)
	}
	e.ledger.credit(ClassCreator, g.Creator, g.Token, split.CreatorCut)
	e.ledger.credit(ClassPlatform, platformAccount, g.Token, split.PlatformCut+split.Dust)
	e.ledger.unlock(g.Token, split.TotalPrize)
	return split
}

// refund credits every player its entry fee back. Called with the game and
// admission locks held.
func (e *Engine) refund(g *Game) Amount {
	var total Amount
	for _, p := range g.Players {
		e.ledger.credit(ClassPlayer, p, g.Token, g.EntryFee)
		total += g.EntryFee
	}
	e.ledger.unlock(g.Token, total)
	return total
}
