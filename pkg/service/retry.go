package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// RetryingCustodian retries a custodian with exponential backoff. Transfers
// that still fail are parked in a PendingTransferStore for ReplayPending.
type RetryingCustodian struct {
	next    escrow.Custodian
	pending PendingTransferStore
	cfg     RetryingCustodianConfig
}

type RetryingCustodianConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// CollectMaxRetries and CollectMaxElapsed bound the retries of a stake
	// collection, which runs while the engine holds its admission lock.
	CollectMaxRetries uint64
	CollectMaxElapsed time.Duration
}

func NewRetryingCustodian(next escrow.Custodian, pending PendingTransferStore, cfg RetryingCustodianConfig) *RetryingCustodian {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.CollectMaxRetries == 0 {
		cfg.CollectMaxRetries = 1
	}
	if cfg.CollectMaxElapsed <= 0 {
		cfg.CollectMaxElapsed = 500 * time.Millisecond
	}
	return &RetryingCustodian{next: next, pending: pending, cfg: cfg}
}

func (c *RetryingCustodian) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval
	return backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx)
}

func (c *RetryingCustodian) collectBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialInterval
	b.MaxInterval = c.cfg.MaxInterval
	b.MaxElapsedTime = c.cfg.CollectMaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.CollectMaxRetries), ctx)
}

// retry runs op until it succeeds, fails permanently or retries run out.
// Insufficient funds is never retried.
func (c *RetryingCustodian) retry(ctx context.Context, what string, b backoff.BackOff, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrVaultInsufficientFunds) {
			return backoff.Permanent(err)
		}
		logrus.Warnf("%s failed (attempt %d): %v, retrying...", what, attempt, err)
		return err
	}, b)
}

// Collect retries a stake collection within the short collect budget. The
// idempotency key makes a retry after a lost reply a no-op.
func (c *RetryingCustodian) Collect(ctx context.Context, col escrow.Collection) error {
	return c.retry(ctx, fmt.Sprintf("collect %s", col.IdempotencyKey), c.collectBackoff(ctx), func() error {
		return c.next.Collect(ctx, col)
	})
}

// Transfer retries t and parks it as pending when every attempt failed. The
// original error is still returned so the caller learns about the delay.
func (c *RetryingCustodian) Transfer(ctx context.Context, t escrow.Transfer) error {
	err := c.retry(ctx, fmt.Sprintf("transfer %s", t.IdempotencyKey), c.backoff(ctx), func() error {
		return c.next.Transfer(ctx, t)
	})
	if err == nil || c.pending == nil || errors.Is(err, ErrVaultInsufficientFunds) {
		return err
	}

	if perr := c.pending.Put(context.WithoutCancel(ctx), t); perr != nil {
		logrus.Errorf("failed to park transfer %s: %v", t.IdempotencyKey, perr)
		return errors.Join(err, perr)
	}
	return err
}

// ReplayPending tries every parked transfer once and removes the ones that
// went through. It returns how many were delivered.
func (c *RetryingCustodian) ReplayPending(ctx context.Context) (int, error) {
	if c.pending == nil {
		return 0, nil
	}
	transfers, err := c.pending.List(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	var errs []error
	for _, t := range transfers {
		if err := c.next.Transfer(ctx, t); err != nil {
			logrus.Warnf("replay of transfer %s failed: %v", t.IdempotencyKey, err)
			errs = append(errs, err)
			continue
		}
		if err := c.pending.Remove(ctx, t.IdempotencyKey); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		logrus.Infof("replayed %d of %d pending transfers", delivered, len(transfers))
	}
	return delivered, errors.Join(errs...)
}
