package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	vaultKeyPrefix = "game_escrow:vault:"
	// vaultEscrowField is the hash field holding the funds held by the escrow itself.
	vaultEscrowField = "__escrow__"
	// vaultIdempotencyTTL bounds how long a completed movement key is remembered.
	vaultIdempotencyTTL = 7 * 24 * time.Hour
)

// ErrVaultInsufficientFunds is returned when the debited account cannot cover a movement.
var ErrVaultInsufficientFunds = errors.New("vault: insufficient funds")

// moveScript debits ARGV[1] and credits ARGV[2] by ARGV[3] in hash KEYS[1].
// When KEYS[2] is given it is used as an idempotency marker: a replayed
// movement returns 2 without touching balances.
var moveScript = redis.NewScript(`
if KEYS[2] ~= nil then
	if not redis.call('SET', KEYS[2], '1', 'NX', 'EX', ARGV[4]) then
		return 2
	end
end
local left = redis.call('HINCRBY', KEYS[1], ARGV[1], '-' .. ARGV[3])
if left < 0 then
	redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[3])
	if KEYS[2] ~= nil then
		redis.call('DEL', KEYS[2])
	end
	return 0
end
redis.call('HINCRBY', KEYS[1], ARGV[2], ARGV[3])
return 1
`)

// RedisVaultCustodian keeps token custody in Redis hashes, one hash per token,
// moving funds with Lua scripts so each debit and credit pair is atomic.
type RedisVaultCustodian struct {
	client redis.UniversalClient
	cfg    RedisVaultCustodianConfig
}

type RedisVaultCustodianConfig struct {
	// IdempotencyTTL overrides how long collect and transfer keys are remembered.
	IdempotencyTTL time.Duration
}

func NewRedisVaultCustodian(client redis.UniversalClient, cfg RedisVaultCustodianConfig) *RedisVaultCustodian {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = vaultIdempotencyTTL
	}
	return &RedisVaultCustodian{
		client: client,
		cfg:    cfg,
	}
}

// makeVaultKey creates the hash key of token. The hash tag keeps a token's
// balances and idempotency markers in one cluster slot.
func makeVaultKey(token escrow.TokenID) string {
	return fmt.Sprintf("%s{%s}", vaultKeyPrefix, token)
}

func makeTransferKey(token escrow.TokenID, idempotencyKey string) string {
	return fmt.Sprintf("%s{%s}:transfer:%s", vaultKeyPrefix, token, idempotencyKey)
}

func vaultAmount(amount escrow.Amount) (int64, error) {
	if uint64(amount) > math.MaxInt64 {
		return 0, fmt.Errorf("vault: amount %d exceeds the int64 range of Redis counters", amount)
	}
	return int64(amount), nil
}

func makeCollectKey(token escrow.TokenID, idempotencyKey string) string {
	return fmt.Sprintf("%s{%s}:collect:%s", vaultKeyPrefix, token, idempotencyKey)
}

// Collect moves a stake from the player's wallet into escrow custody. Replays
// of the same idempotency key are acknowledged without debiting again.
func (v *RedisVaultCustodian) Collect(ctx context.Context, c escrow.Collection) error {
	amt, err := vaultAmount(c.Amount)
	if err != nil {
		return err
	}
	if c.IdempotencyKey == "" {
		return fmt.Errorf("vault: collect without idempotency key")
	}

	keys := []string{makeVaultKey(c.Token), makeCollectKey(c.Token, c.IdempotencyKey)}
	ttl := int64(v.cfg.IdempotencyTTL / time.Second)

	res, err := moveScript.Run(ctx, v.client, keys, string(c.From), vaultEscrowField, amt, ttl).Int()
	if err != nil {
		logrus.Errorf("failed to collect %s: %v", c.IdempotencyKey, err)
		return fmt.Errorf("failed to collect stake: %w", err)
	}

	switch res {
	case 0:
		return fmt.Errorf("collect %d %s from %s: %w", c.Amount, c.Token, c.From, ErrVaultInsufficientFunds)
	case 2:
		logrus.Infof("collect %s already applied, skipping", c.IdempotencyKey)
	default:
		logrus.Debugf("collected %d %s from %s: key=%s", c.Amount, c.Token, c.From, c.IdempotencyKey)
	}
	return nil
}

// Transfer moves funds out of escrow custody to t.To. Replays of the same
// idempotency key are acknowledged without moving funds again.
func (v *RedisVaultCustodian) Transfer(ctx context.Context, t escrow.Transfer) error {
	amt, err := vaultAmount(t.Amount)
	if err != nil {
		return err
	}
	if t.IdempotencyKey == "" {
		return fmt.Errorf("vault: transfer without idempotency key")
	}

	keys := []string{makeVaultKey(t.Token), makeTransferKey(t.Token, t.IdempotencyKey)}
	ttl := int64(v.cfg.IdempotencyTTL / time.Second)

	res, err := moveScript.Run(ctx, v.client, keys, vaultEscrowField, string(t.To), amt, ttl).Int()
	if err != nil {
		logrus.Errorf("failed to transfer %s: %v", t.IdempotencyKey, err)
		return fmt.Errorf("failed to transfer: %w", err)
	}

	switch res {
	case 0:
		return fmt.Errorf("transfer %s of %d %s: %w", t.IdempotencyKey, t.Amount, t.Token, ErrVaultInsufficientFunds)
	case 2:
		logrus.Infof("transfer %s already applied, skipping", t.IdempotencyKey)
	default:
		logrus.Infof("transferred %d %s to %s: key=%s reason=%s", t.Amount, t.Token, t.To, t.IdempotencyKey, t.Reason)
	}
	return nil
}

// Deposit credits an external wallet balance, the on-ramp for players before joining.
func (v *RedisVaultCustodian) Deposit(ctx context.Context, account escrow.Address, token escrow.TokenID, amount escrow.Amount) error {
	amt, err := vaultAmount(amount)
	if err != nil {
		return err
	}
	if err := v.client.HIncrBy(ctx, makeVaultKey(token), string(account), amt).Err(); err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}
	return nil
}

// Balance returns the wallet balance of account in token.
func (v *RedisVaultCustodian) Balance(ctx context.Context, account escrow.Address, token escrow.TokenID) (escrow.Amount, error) {
	n, err := v.client.HGet(ctx, makeVaultKey(token), string(account)).Uint64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return escrow.Amount(n), nil
}

// Held returns the funds in escrow custody for token.
func (v *RedisVaultCustodian) Held(ctx context.Context, token escrow.TokenID) (escrow.Amount, error) {
	return v.Balance(ctx, vaultEscrowField, token)
}
