// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"sync"
	"time"
)

// Event names as published to sinks.
const (
	EventGameCreated     = "GameCreated"
	EventPlayerJoined    = "PlayerJoined"
	EventGameStarted     = "GameStarted"
	EventGameFinished    = "GameFinished"
	EventGameCancelled   = "GameCancelled"
	EventTokenAdded      = "TokenAdded"
	EventTokenRemoved    = "TokenRemoved"
	EventLimitsUpdated   = "LimitsUpdated"
	EventEmergencyAction = "EmergencyAction"
	EventRoleGranted     = "RoleGranted"
	EventRoleRevoked     = "RoleRevoked"
)

// Event is a fact emitted after a successful state transition.
type Event interface {
	EventName() string
}

// EventSink receives events. Emit is called synchronously after the
// transition committed and must not call back into the engine.
type EventSink interface {
	Emit(e Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(e Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// MemorySink keeps every event in memory.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Named returns the recorded events with the given name.
func (s *MemorySink) Named(name string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type GameCreated struct {
	GameID     GameID   `json:"gameId"`
	Creator    Address  `json:"creator"`
	Token      TokenID  `json:"token"`
	Mode       GameMode `json:"mode"`
	EntryFee   Amount   `json:"entryFee"`
	MaxPlayers int      `json:"maxPlayers"`
	CreatorBps uint32   `json:"creatorBps"`
}

type PlayerJoined struct {
	GameID GameID  `json:"gameId"`
	Player Address `json:"player"`
	Team   int     `json:"team"`
}

type GameStarted struct {
	GameID    GameID    `json:"gameId"`
	StartedAt time.Time `json:"startedAt"`
}

type GameFinished struct {
	GameID       GameID    `json:"gameId"`
	Token        TokenID   `json:"token"`
	Winners      []Address `json:"winners"`
	PerWinner    Amount    `json:"perWinner"`
	WinnerAmount Amount    `json:"winnerAmount"`
	CreatorCut   Amount    `json:"creatorCut"`
	PlatformCut  Amount    `json:"platformCut"`
	Dust         Amount    `json:"dust"`
}

type GameCancelled struct {
	GameID   GameID  `json:"gameId"`
	Token    TokenID `json:"token"`
	Reason   string  `json:"reason"`
	Refunded Amount  `json:"refunded"`
}

type TokenAdded struct {
	Token    TokenID `json:"token"`
	MaxLimit Amount  `json:"maxLimit"`
}

type TokenRemoved struct {
	Token TokenID `json:"token"`
}

// LimitsUpdated is emitted for token caps, the global TVL cap and game limits.
// Scope is "token", "tvl" or "game".
type LimitsUpdated struct {
	Scope      string      `json:"scope"`
	Token      TokenID     `json:"token,omitempty"`
	Limit      Amount      `json:"limit,omitempty"`
	GameLimits *GameLimits `json:"gameLimits,omitempty"`
}

type EmergencyAction struct {
	GameID GameID  `json:"gameId"`
	Action string  `json:"action"`
	Caller Address `json:"caller"`
}

type RoleGranted struct {
	Account Address `json:"account"`
	Role    Role    `json:"role"`
	Caller  Address `json:"caller"`
}

type RoleRevoked struct {
	Account Address `json:"account"`
	Role    Role    `json:"role"`
	Caller  Address `json:"caller"`
}

func (GameCreated) EventName() string     { return EventGameCreated }
func (PlayerJoined) EventName() string    { return EventPlayerJoined }
func (GameStarted) EventName() string     { return EventGameStarted }
func (GameFinished) EventName() string    { return EventGameFinished }
func (GameCancelled) EventName() string   { return EventGameCancelled }
func (TokenAdded) EventName() string      { return EventTokenAdded }
func (TokenRemoved) EventName() string    { return EventTokenRemoved }
func (LimitsUpdated) EventName() string   { return EventLimitsUpdated }
func (EmergencyAction) EventName() string { return EventEmergencyAction }
func (RoleGranted) EventName() string     { return EventRoleGranted }
func (RoleRevoked) EventName() string     { return EventRoleRevoked }
