// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultJoinCooldown is the minimum gap between two joins by one player.
	DefaultJoinCooldown = 5 * time.Second
	// DefaultDailyWindow is the rolling window of the daily game counter.
	DefaultDailyWindow = 24 * time.Hour
)

// RiskPolicy configures RiskControls.
type RiskPolicy struct {
	JoinCooldown time.Duration
	DailyWindow  time.Duration
	// MaxGamesPerDay caps joins per rolling window; zero disables the cap.
	MaxGamesPerDay int
}

// RiskControls tracks per-player cooldown, daily counter and reputation.
// Guarded by the engine's admission lock.
type RiskControls struct {
	policy  RiskPolicy
	players map[Address]*RiskState
}

func newRiskControls(policy RiskPolicy) *RiskControls {
	if policy.JoinCooldown < 0 {
		policy.JoinCooldown = 0
	}
	if policy.DailyWindow <= 0 {
		policy.DailyWindow = DefaultDailyWindow
	}
	return &RiskControls{policy: policy, players: make(map[Address]*RiskState)}
}

func (r *RiskControls) state(player Address) *RiskState {
	s, ok := r.players[player]
	if !ok {
		s = &RiskState{}
		r.players[player] = s
	}
	return s
}

// InCooldown reports whether a join at now falls inside the cooldown window
// of the previous join.
func InCooldown(s RiskState, now time.Time, cooldown time.Duration) bool {
	if s.LastJoinAt.IsZero() {
		return false
	}
	return now.Before(s.LastJoinAt.Add(cooldown))
}

// DayExpired reports whether the rolling daily window anchored at
// s.DayAnchor has elapsed at now.
func DayExpired(s RiskState, now time.Time, window time.Duration) bool {
	if s.DayAnchor.IsZero() {
		return true
	}
	return now.Sub(s.DayAnchor) > window
}

// check validates a join by player without mutating anything.
func (r *RiskControls) check(op string, player Address, now time.Time) error {
	s, ok := r.players[player]
	if !ok {
		return nil
	}
	if InCooldown(*s, now, r.policy.JoinCooldown) {
		logrus.Debugf("join cooldown active for %s until %v", player, s.LastJoinAt.Add(r.policy.JoinCooldown))
		return newError(KindCooldownActive, op, "player %s joined at %v", player, s.LastJoinAt)
	}
	if r.policy.MaxGamesPerDay > 0 && !DayExpired(*s, now, r.policy.DailyWindow) &&
		s.GamesPlayedToday >= r.policy.MaxGamesPerDay {
		return newError(KindExceedsLimit, op, "player %s reached %d games in the daily window", player, s.GamesPlayedToday)
	}
	return nil
}

// recordJoin applies a successful join: cooldown clock, daily counter and +1 reputation.
func (r *RiskControls) recordJoin(player Address, now time.Time) {
	s := r.state(player)
	s.LastJoinAt = now
	if DayExpired(*s, now, r.policy.DailyWindow) {
		s.GamesPlayedToday = 1
		s.DayAnchor = now
	} else {
		s.GamesPlayedToday++
	}
	s.Reputation++
}

// recordWin adds the +2 winner reputation bonus.
func (r *RiskControls) recordWin(player Address) {
	r.state(player).Reputation += 2
}

func (r *RiskControls) get(player Address) RiskState {
	if s, ok := r.players[player]; ok {
		return *s
	}
	return RiskState{}
}
