// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SnapshotVersion is bumped whenever the Snapshot layout changes incompatibly.
const SnapshotVersion = 1

// Snapshot is a consistent, serializable copy of the whole engine state.
type Snapshot struct {
	Version  int                   `json:"version"`
	TakenAt  time.Time             `json:"takenAt"`
	Paused   bool                  `json:"paused"`
	Limits   GameLimits            `json:"limits"`
	MaxTVL   Amount                `json:"maxTVL"`
	TotalTVL Amount                `json:"totalTVL"`
	Tokens   []TokenSnapshot       `json:"tokens"`
	Games    []Game                `json:"games"`
	Balances []LedgerEntry         `json:"balances"`
	Risk     map[Address]RiskState `json:"risk"`
	Roles    map[Address][]Role    `json:"roles"`
}

// TokenSnapshot is the persisted policy and locked value of one token.
type TokenSnapshot struct {
	Token  TokenID     `json:"token"`
	Config TokenConfig `json:"config"`
	TVL    Amount      `json:"tvl"`
}

// Snapshot stops the world briefly and copies the engine state.
func (e *Engine) Snapshot() *Snapshot {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	s := &Snapshot{
		Version:  SnapshotVersion,
		TakenAt:  e.now(),
		Paused:   e.paused.Load(),
		Limits:   e.limits,
		MaxTVL:   e.ledger.maxTVL,
		TotalTVL: e.ledger.totalTVL,
		Balances: e.ledger.exportCells(),
		Risk:     make(map[Address]RiskState, len(e.risk.players)),
		Roles:    e.access.export(),
	}
	for _, t := range e.ledger.known {
		s.Tokens = append(s.Tokens, TokenSnapshot{Token: t, Config: *e.ledger.tokens[t], TVL: e.ledger.tokenTVL[t]})
	}
	for _, rec := range e.registry.games {
		s.Games = append(s.Games, rec.game.clone())
	}
	for addr, st := range e.risk.players {
		s.Risk[addr] = *st
	}
	return s
}

// Restore replaces the engine state with s after checking it is consistent:
// ids are contiguous from 1 and every TVL counter equals the stake of the
// non-terminal games. It must run before the engine serves any call.
func (e *Engine) Restore(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	if err := checkSnapshot(s); err != nil {
		return fmt.Errorf("inconsistent snapshot: %w", err)
	}

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	ledger := newTokenLedger(s.MaxTVL)
	for _, t := range s.Tokens {
		cfg := t.Config
		ledger.tokens[t.Token] = &cfg
		ledger.known = append(ledger.known, t.Token)
		ledger.tokenTVL[t.Token] = t.TVL
	}
	ledger.totalTVL = s.TotalTVL
	for _, b := range s.Balances {
		ledger.restoreCell(b)
	}

	risk := newRiskControls(e.risk.policy)
	for addr, st := range s.Risk {
		st := st
		risk.players[addr] = &st
	}

	access := newAccessControl()
	for addr, roles := range s.Roles {
		for _, r := range roles {
			access.grant(addr, r)
		}
	}

	e.registry.restore(s.Games)
	e.ledger = ledger
	e.risk = risk
	e.access = access
	e.limits = s.Limits
	e.paused.Store(s.Paused)

	logrus.Infof("engine restored from snapshot taken at %v: games=%d tokens=%d totalTVL=%d",
		s.TakenAt, len(s.Games), len(s.Tokens), s.TotalTVL)
	return nil
}

func checkSnapshot(s *Snapshot) error {
	locked := make(map[TokenID]Amount)
	var total Amount
	for i, g := range s.Games {
		if g.ID != GameID(i+1) {
			return fmt.Errorf("game at position %d has id %d", i, g.ID)
		}
		if g.Status.Terminal() {
			continue
		}
		if g.PrizePool != g.EntryFee*Amount(len(g.Players)) {
			return fmt.Errorf("game %d prize pool %d does not match %d players", g.ID, g.PrizePool, len(g.Players))
		}
		locked[g.Token] += g.PrizePool
		total += g.PrizePool
	}
	if total != s.TotalTVL {
		return fmt.Errorf("total TVL %d does not match locked stakes %d", s.TotalTVL, total)
	}
	for _, t := range s.Tokens {
		if locked[t.Token] != t.TVL {
			return fmt.Errorf("token %s TVL %d does not match locked stakes %d", t.Token, t.TVL, locked[t.Token])
		}
		delete(locked, t.Token)
	}
	for token, amt := range locked {
		if amt > 0 {
			return fmt.Errorf("token %s has locked stakes but no config", token)
		}
	}
	return nil
}
