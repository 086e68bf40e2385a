// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"errors"
	"fmt"
)

// Kind tags a domain rejection. Every Kind means the whole operation was
// refused and nothing was mutated.
type Kind string

const (
	KindInvalidGameParameters Kind = "InvalidGameParameters"
	KindInvalidCommission     Kind = "InvalidCommission"
	KindInvalidTeam           Kind = "InvalidTeam"
	KindPlayerAlreadyJoined   Kind = "PlayerAlreadyJoined"
	KindCooldownActive        Kind = "CooldownActive"
	KindExceedsLimit          Kind = "ExceedsLimit"
	KindGameNotFound          Kind = "GameNotFound"
	KindNotGameCreator        Kind = "NotGameCreator"
	KindInsufficientBalance   Kind = "InsufficientBalance"
	KindEnforcedPause         Kind = "EnforcedPause"
)

// Error is a domain rejection carrying the operation and a human detail.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Detail == "":
		return string(e.Kind)
	case e.Detail == "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	}
}

// Is matches any *Error of the same Kind so callers can compare against the
// sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrInvalidGameParameters is returned for malformed games or illegal state transitions.
	ErrInvalidGameParameters = &Error{Kind: KindInvalidGameParameters}

	// ErrInvalidCommission is returned when commissions exceed their bounds.
	ErrInvalidCommission = &Error{Kind: KindInvalidCommission}

	// ErrInvalidTeam is returned when a team index is out of range.
	ErrInvalidTeam = &Error{Kind: KindInvalidTeam}

	// ErrPlayerAlreadyJoined is returned on a second join of the same game.
	ErrPlayerAlreadyJoined = &Error{Kind: KindPlayerAlreadyJoined}

	// ErrCooldownActive is returned when a player joins again too soon.
	ErrCooldownActive = &Error{Kind: KindCooldownActive}

	// ErrExceedsLimit is returned when a TVL cap or the daily game limit would be exceeded.
	ErrExceedsLimit = &Error{Kind: KindExceedsLimit}

	// ErrGameNotFound is returned for unknown game ids.
	ErrGameNotFound = &Error{Kind: KindGameNotFound}

	// ErrNotGameCreator is returned when a non-creator tries to cancel a game.
	ErrNotGameCreator = &Error{Kind: KindNotGameCreator}

	// ErrInsufficientBalance is returned when withdrawing an empty balance.
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}

	// ErrEnforcedPause is returned by create and join while the engine is paused.
	ErrEnforcedPause = &Error{Kind: KindEnforcedPause}
)

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the domain Kind of err, if it is a domain error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// UnauthorizedError reports a caller lacking the role an operation requires.
// It is not a Kind.
type UnauthorizedError struct {
	Caller Address
	Role   Role
	Op     string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: account %s is missing role %s", e.Op, e.Caller, e.Role)
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}

// TransferError is returned when the custodian fails to move funds for a
// withdrawal whose ledger cell has already been cleared. The balance is not
// re-credited; IdempotencyKey lets an operator replay the exact transfer.
type TransferError struct {
	Transfer Transfer
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s of %d %s to %s failed: %v",
		e.Transfer.IdempotencyKey, e.Transfer.Amount, e.Transfer.Token, e.Transfer.To, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
