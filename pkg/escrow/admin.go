// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AddAllowedToken allows token for new games with a per-token TVL cap.
// Re-adding a removed token re-enables it with the new cap.
func (e *Engine) AddAllowedToken(caller Address, token TokenID, maxLimit Amount) error {
	const op = "addAllowedToken"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	if token == "" {
		return newError(KindInvalidGameParameters, op, "empty token")
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	e.admission.Lock()
	e.ledger.setToken(token, maxLimit)
	e.admission.Unlock()

	logrus.Infof("token added: token=%s maxLimit=%d", token, maxLimit)
	e.emit(TokenAdded{Token: token, MaxLimit: maxLimit})
	return nil
}

// RemoveAllowedToken stops new games in token. Games already running keep
// their stakes and existing balances stay withdrawable.
func (e *Engine) RemoveAllowedToken(caller Address, token TokenID) error {
	const op = "removeAllowedToken"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	e.admission.Lock()
	cfg, ok := e.ledger.tokens[token]
	if !ok || !cfg.Allowed {
		e.admission.Unlock()
		return newError(KindInvalidGameParameters, op, "token %s is not allowed", token)
	}
	cfg.Allowed = false
	e.admission.Unlock()

	logrus.Infof("token removed: token=%s", token)
	e.emit(TokenRemoved{Token: token})
	return nil
}

// UpdateTokenLimit changes the per-token TVL cap. Lowering it below the
// current locked value only blocks further joins.
func (e *Engine) UpdateTokenLimit(caller Address, token TokenID, newLimit Amount) error {
	const op = "updateTokenLimit"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	e.admission.Lock()
	cfg, ok := e.ledger.tokens[token]
	if !ok {
		e.admission.Unlock()
		return newError(KindInvalidGameParameters, op, "unknown token %s", token)
	}
	cfg.MaxTokenLimit = newLimit
	e.admission.Unlock()

	logrus.Infof("token limit updated: token=%s limit=%d", token, newLimit)
	e.emit(LimitsUpdated{Scope: "token", Token: token, Limit: newLimit})
	return nil
}

// UpdateTVLLimits changes the global TVL cap.
func (e *Engine) UpdateTVLLimits(caller Address, newLimit Amount) error {
	const op = "updateTVLLimits"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	e.admission.Lock()
	e.ledger.maxTVL = newLimit
	e.admission.Unlock()

	logrus.Infof("global TVL limit updated: limit=%d", newLimit)
	e.emit(LimitsUpdated{Scope: "tvl", Limit: newLimit})
	return nil
}

// UpdateGameLimits replaces the limits new games are validated against.
func (e *Engine) UpdateGameLimits(caller Address, limits GameLimits) error {
	const op = "updateGameLimits"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	if err := limits.Validate(); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	e.admission.Lock()
	e.limits = limits
	e.admission.Unlock()

	logrus.Infof("game limits updated: %+v", limits)
	l := limits
	e.emit(LimitsUpdated{Scope: "game", GameLimits: &l})
	return nil
}

// EmergencyTokenRecovery moves tokens the custodian holds outside the
// ledger's accounting, such as accidental deposits. It never touches ledger
// balances or TVL. Admin only.
func (e *Engine) EmergencyTokenRecovery(ctx context.Context, caller Address, token TokenID, to Address, amount Amount) error {
	const op = "emergencyTokenRecovery"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return err
	}
	if to == "" || amount == 0 {
		return newError(KindInvalidGameParameters, op, "recover %d %s to %q", amount, token, to)
	}
	t := Transfer{
		IdempotencyKey: e.newKey(),
		Class:          ClassPlatform,
		To:             to,
		Token:          token,
		Amount:         amount,
		Reason:         "emergency-recovery",
	}
	if err := e.custodian.Transfer(ctx, t); err != nil {
		logrus.Errorf("emergency token recovery failed: token=%s to=%s amount=%d: %v", token, to, amount, err)
		return fmt.Errorf("emergency token recovery: %w", err)
	}
	logrus.Warnf("emergency token recovery: token=%s to=%s amount=%d caller=%s", token, to, amount, caller)
	e.emit(EmergencyAction{Action: "TokenRecovery", Caller: caller})
	return nil
}
