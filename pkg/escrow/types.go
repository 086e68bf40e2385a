// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"time"
)

// Address identifies a principal: a player, a game creator, an operator or the oracle.
type Address string

// TokenID identifies a fungible token accepted for stakes.
type TokenID string

// Amount is a token quantity in the token's smallest unit.
type Amount uint64

// GameID is the monotonic identifier of a game. The first game is 1.
type GameID uint64

// BpsDenominator is the basis point scale used for commissions.
const BpsDenominator = 10000

// GameMode selects how a game is played and who can be named a winner.
type GameMode int

const (
	WinnerTakesAll GameMode = iota
	TeamBattle
)

func (m GameMode) String() string {
	switch m {
	case WinnerTakesAll:
		return "WinnerTakesAll"
	case TeamBattle:
		return "TeamBattle"
	default:
		return "Unknown"
	}
}

// GameStatus is the lifecycle state of a game.
type GameStatus int

const (
	StatusWaiting GameStatus = iota
	StatusActive
	StatusFinished
	StatusCancelled
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusActive:
		return "Active"
	case StatusFinished:
		return "Finished"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s GameStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Cancellation reasons recorded by the engine itself.
const (
	ReasonTimeout   = "Timeout"
	ReasonEmergency = "Emergency"
)

// GameLimits is the admin-mutable policy every new game is validated against.
type GameLimits struct {
	MinEntryFee              Amount        `json:"minEntryFee" yaml:"min_entry_fee"`
	MaxEntryFee              Amount        `json:"maxEntryFee" yaml:"max_entry_fee"`
	MinPlayers               int           `json:"minPlayers" yaml:"min_players"`
	MaxPlayers               int           `json:"maxPlayers" yaml:"max_players"`
	MaxTimeLimit             time.Duration `json:"maxTimeLimit" yaml:"max_time_limit"`
	MaxCreatorCommissionBps  uint32        `json:"maxCreatorCommissionBps" yaml:"max_creator_commission_bps"`
	MaxPlatformCommissionBps uint32        `json:"maxPlatformCommissionBps" yaml:"max_platform_commission_bps"`
}

// DefaultGameLimits returns the limits the engine starts with: fees between
// 1 and 10000 units of a 6-decimal token, 2 to 16 players, at most an hour
// per game, 50% creator and 20% platform commission caps.
func DefaultGameLimits() GameLimits {
	return GameLimits{
		MinEntryFee:              1_000_000,
		MaxEntryFee:              10_000_000_000,
		MinPlayers:               2,
		MaxPlayers:               16,
		MaxTimeLimit:             time.Hour,
		MaxCreatorCommissionBps:  5000,
		MaxPlatformCommissionBps: 2000,
	}
}

// Validate checks the limits are internally consistent.
func (l GameLimits) Validate() error {
	if l.MinEntryFee == 0 || l.MinEntryFee > l.MaxEntryFee {
		return newError(KindInvalidGameParameters, "updateGameLimits", "entry fee bounds %d..%d", l.MinEntryFee, l.MaxEntryFee)
	}
	if l.MinPlayers < 2 || l.MinPlayers > l.MaxPlayers {
		return newError(KindInvalidGameParameters, "updateGameLimits", "player bounds %d..%d", l.MinPlayers, l.MaxPlayers)
	}
	if l.MaxTimeLimit <= 0 {
		return newError(KindInvalidGameParameters, "updateGameLimits", "max time limit %v", l.MaxTimeLimit)
	}
	if l.MaxCreatorCommissionBps >= BpsDenominator || l.MaxPlatformCommissionBps >= BpsDenominator ||
		l.MaxCreatorCommissionBps+l.MaxPlatformCommissionBps >= BpsDenominator {
		return newError(KindInvalidCommission, "updateGameLimits", "commission caps %d/%d", l.MaxCreatorCommissionBps, l.MaxPlatformCommissionBps)
	}
	return nil
}

// TokenConfig is the admission policy of one token.
type TokenConfig struct {
	Allowed       bool   `json:"allowed"`
	MaxTokenLimit Amount `json:"maxTokenLimit"`
}

// GameParams are the creator-chosen settings of a new game.
type GameParams struct {
	Token       TokenID       `json:"token"`
	Mode        GameMode      `json:"mode"`
	EntryFee    Amount        `json:"entryFee"`
	MaxPlayers  int           `json:"maxPlayers"`
	NumTeams    int           `json:"numTeams"`
	TimeLimit   time.Duration `json:"timeLimit"`
	CreatorBps  uint32        `json:"creatorBps"`
	PlatformBps uint32        `json:"platformBps"`
}

// Game is a read-only view of a game record.
type Game struct {
	ID           GameID          `json:"id"`
	Creator      Address         `json:"creator"`
	Token        TokenID         `json:"token"`
	Mode         GameMode        `json:"mode"`
	EntryFee     Amount          `json:"entryFee"`
	MaxPlayers   int             `json:"maxPlayers"`
	NumTeams     int             `json:"numTeams"`
	TimeLimit    time.Duration   `json:"timeLimit"`
	CreatorBps   uint32          `json:"creatorBps"`
	PlatformBps  uint32          `json:"platformBps"`
	Status       GameStatus      `json:"status"`
	Players      []Address       `json:"players"`
	PlayerTeam   map[Address]int `json:"playerTeam,omitempty"`
	PrizePool    Amount          `json:"prizePool"`
	Winners      []Address       `json:"winners,omitempty"`
	CancelReason string          `json:"cancelReason,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	StartedAt    time.Time       `json:"startedAt,omitempty"`
	EndedAt      time.Time       `json:"endedAt,omitempty"`
}

// Full reports whether every seat is taken.
func (g *Game) Full() bool {
	return len(g.Players) >= g.MaxPlayers
}

// HasPlayer reports whether addr joined the game.
func (g *Game) HasPlayer(addr Address) bool {
	for _, p := range g.Players {
		if p == addr {
			return true
		}
	}
	return false
}

// Deadline is the moment the game may be reported as timed out.
// It is zero until the game starts.
func (g *Game) Deadline() time.Time {
	if g.StartedAt.IsZero() {
		return time.Time{}
	}
	return g.StartedAt.Add(g.TimeLimit)
}

func (g *Game) clone() Game {
	c := *g
	c.Players = append([]Address(nil), g.Players...)
	c.Winners = append([]Address(nil), g.Winners...)
	if g.PlayerTeam != nil {
		c.PlayerTeam = make(map[Address]int, len(g.PlayerTeam))
		for k, v := range g.PlayerTeam {
			c.PlayerTeam[k] = v
		}
	}
	return c
}

// Balance is a non-zero withdrawable amount of one token.
type Balance struct {
	Token  TokenID `json:"token"`
	Amount Amount  `json:"amount"`
}

// BalanceClass selects one of the three ledger balance classes.
type BalanceClass int

const (
	ClassPlayer BalanceClass = iota
	ClassCreator
	ClassPlatform
)

func (c BalanceClass) String() string {
	switch c {
	case ClassPlayer:
		return "player"
	case ClassCreator:
		return "creator"
	case ClassPlatform:
		return "platform"
	default:
		return "unknown"
	}
}

// RiskState is the per-player admission state.
type RiskState struct {
	Reputation       uint64    `json:"reputation"`
	LastJoinAt       time.Time `json:"lastJoinAt"`
	GamesPlayedToday int       `json:"gamesPlayedToday"`
	DayAnchor        time.Time `json:"dayAnchor"`
}
