package handler

import (
	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
)

// Request and response messages of the escrow.v1.Escrow service. Durations are
// in seconds and amounts in the token's smallest unit.

type Empty struct{}

type CreateGameRequest struct {
	Token            escrow.TokenID  `json:"token"`
	Mode             escrow.GameMode `json:"mode"`
	EntryFee         escrow.Amount   `json:"entryFee"`
	MaxPlayers       int             `json:"maxPlayers"`
	NumTeams         int             `json:"numTeams,omitempty"`
	TimeLimitSeconds int64           `json:"timeLimitSeconds"`
	CreatorBps       uint32          `json:"creatorBps"`
	PlatformBps      uint32          `json:"platformBps"`
}

type CreateGameResponse struct {
	GameID escrow.GameID `json:"gameId"`
}

type GameRequest struct {
	GameID escrow.GameID `json:"gameId"`
}

type JoinGameRequest struct {
	GameID escrow.GameID `json:"gameId"`
	Team   int           `json:"team"`
}

type ReportGameResultRequest struct {
	GameID  escrow.GameID    `json:"gameId"`
	Winners []escrow.Address `json:"winners"`
}

type ReportGameResultResponse struct {
	Split escrow.Split `json:"split"`
}

type CancelGameRequest struct {
	GameID escrow.GameID `json:"gameId"`
	Reason string        `json:"reason"`
}

type WithdrawRequest struct {
	// Class is player, creator or platform.
	Class string         `json:"class"`
	Token escrow.TokenID `json:"token"`
	// To is only used for platform withdrawals and defaults to the caller.
	To escrow.Address `json:"to,omitempty"`
}

type WithdrawResponse struct {
	Transfers []escrow.Transfer `json:"transfers"`
}

type GameResponse struct {
	Game escrow.Game `json:"game"`
}

type ListGamesRequest struct {
	// Filter is waiting, active or creator.
	Filter  string         `json:"filter"`
	Creator escrow.Address `json:"creator,omitempty"`
}

type ListGamesResponse struct {
	Games []escrow.Game `json:"games"`
}

type BalancesRequest struct {
	Account escrow.Address `json:"account"`
}

type BalancesResponse struct {
	Player     []escrow.Balance `json:"player"`
	Creator    []escrow.Balance `json:"creator"`
	Reputation uint64           `json:"reputation"`
}

type SupportedTokensResponse struct {
	Tokens     []TokenInfo       `json:"tokens"`
	TotalTVL   escrow.Amount     `json:"totalTVL"`
	MaxTVL     escrow.Amount     `json:"maxTVL"`
	Paused     bool              `json:"paused"`
	GameLimits escrow.GameLimits `json:"gameLimits"`
}

type TokenInfo struct {
	Token           escrow.TokenID `json:"token"`
	MaxTokenLimit   escrow.Amount  `json:"maxTokenLimit"`
	ValueLocked     escrow.Amount  `json:"valueLocked"`
	PlatformRevenue escrow.Amount  `json:"platformRevenue"`
}

type TokenLimitRequest struct {
	Token escrow.TokenID `json:"token"`
	Limit escrow.Amount  `json:"limit"`
}

type TVLLimitRequest struct {
	Limit escrow.Amount `json:"limit"`
}

type GameLimitsRequest struct {
	Limits escrow.GameLimits `json:"limits"`
}

type RoleRequest struct {
	Account escrow.Address `json:"account"`
	Role    string         `json:"role"`
}

type TokenRecoveryRequest struct {
	Token  escrow.TokenID `json:"token"`
	To     escrow.Address `json:"to"`
	Amount escrow.Amount  `json:"amount"`
}
