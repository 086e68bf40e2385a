package service

import (
	"context"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
)

// Service interfaces for the collaborators the escrow engine is wired to.
//
// The engine itself only knows escrow.Custodian and escrow.EventSink; the
// interfaces below let the custody and outbox implementations be swapped in tests.

// PendingTransferStore keeps transfers the custodian could not complete so they
// can be replayed later. Entries are keyed by idempotency key.
type PendingTransferStore interface {
	Put(ctx context.Context, t escrow.Transfer) error
	Remove(ctx context.Context, idempotencyKey string) error
	List(ctx context.Context) ([]escrow.Transfer, error)
}

// Vault is a custodian that can also be inspected and funded.
type Vault interface {
	escrow.Custodian
	Deposit(ctx context.Context, account escrow.Address, token escrow.TokenID, amount escrow.Amount) error
	Balance(ctx context.Context, account escrow.Address, token escrow.TokenID) (escrow.Amount, error)
}
