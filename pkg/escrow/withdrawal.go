// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func newIdempotencyKey() string {
	return uuid.NewString()
}

// withdrawalKey names the nonce-th payout from one balance cell. The nonce is
// persisted with the cell, so a withdrawal repeated after restoring an older
// snapshot carries the key of the one that already went out.
func withdrawalKey(class BalanceClass, account Address, token TokenID, nonce uint64) string {
	return fmt.Sprintf("withdraw/%s/%s/%s/%d", class, account, token, nonce)
}

// WithdrawBalance pays out caller's player balance in token.
func (e *Engine) WithdrawBalance(ctx context.Context, caller Address, token TokenID) (Transfer, error) {
	return e.withdraw(ctx, "withdrawBalance", ClassPlayer, caller, caller, token)
}

// WithdrawCreatorEarnings pays out caller's creator commissions in token.
func (e *Engine) WithdrawCreatorEarnings(ctx context.Context, caller Address, token TokenID) (Transfer, error) {
	return e.withdraw(ctx, "withdrawCreatorEarnings", ClassCreator, caller, caller, token)
}

// WithdrawPlatformRevenue pays out platform revenue in token to an admin-chosen
// recipient; an empty recipient pays the caller. Admin only.
func (e *Engine) WithdrawPlatformRevenue(ctx context.Context, caller Address, token TokenID, to Address) (Transfer, error) {
	const op = "withdrawPlatformRevenue"
	if err := e.access.require(op, caller, RoleAdmin); err != nil {
		return Transfer{}, err
	}
	if to == "" {
		to = caller
	}
	return e.withdraw(ctx, op, ClassPlatform, platformAccount, to, token)
}

// WithdrawAllBalances withdraws every non-zero player and creator balance of
// caller. It stops at the first custodian failure and returns the transfers
// that completed together with the error.
func (e *Engine) WithdrawAllBalances(ctx context.Context, caller Address) ([]Transfer, error) {
	const op = "withdrawAllBalances"
	type pending struct {
		class BalanceClass
		token TokenID
	}
	var todo []pending
	for _, b := range e.ledger.balances(ClassPlayer, caller) {
		todo = append(todo, pending{class: ClassPlayer, token: b.Token})
	}
	for _, b := range e.ledger.balances(ClassCreator, caller) {
		todo = append(todo, pending{class: ClassCreator, token: b.Token})
	}
	if len(todo) == 0 {
		return nil, newError(KindInsufficientBalance, op, "no balances for %s", caller)
	}

	done := make([]Transfer, 0, len(todo))
	for _, p := range todo {
		t, err := e.withdraw(ctx, op, p.class, caller, caller, p.token)
		if err != nil {
			if kind, ok := KindOf(err); ok && kind == KindInsufficientBalance {
				// drained concurrently since the listing
				continue
			}
			return done, err
		}
		done = append(done, t)
	}
	return done, nil
}

// withdraw clears the cell first and only then calls the custodian.
func (e *Engine) withdraw(ctx context.Context, op string, class BalanceClass, account, to Address, token TokenID) (Transfer, error) {
	e.stateMu.RLock()
	amount, nonce := e.ledger.drain(class, account, token)
	e.stateMu.RUnlock()

	if amount == 0 {
		return Transfer{}, newError(KindInsufficientBalance, op, "no %s balance in %s", class, token)
	}

	t := Transfer{
		IdempotencyKey: withdrawalKey(class, account, token, nonce),
		Class:          class,
		From:           account,
		To:             to,
		Token:          token,
		Amount:         amount,
		Reason:         op,
	}
	if err := e.custodian.Transfer(ctx, t); err != nil {
		logrus.Errorf("withdrawal transfer failed, balance not re-credited: key=%s class=%s to=%s token=%s amount=%d: %v",
			t.IdempotencyKey, class, to, token, amount, err)
		return t, &TransferError{Transfer: t, Err: err}
	}

	logrus.Infof("withdrawal completed: key=%s class=%s to=%s token=%s amount=%d", t.IdempotencyKey, class, to, token, amount)
	return t, nil
}
