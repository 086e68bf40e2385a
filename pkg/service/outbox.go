package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const pendingTransfersKey = "game_escrow:pending_transfers"

// RedisPendingTransferStore implements PendingTransferStore with one Redis hash
// keyed by idempotency key.
type RedisPendingTransferStore struct {
	client redis.UniversalClient
	cfg    RedisPendingTransferStoreConfig
}

type RedisPendingTransferStoreConfig struct {
	// Key overrides the hash key.
	Key string
}

func NewRedisPendingTransferStore(client redis.UniversalClient, cfg RedisPendingTransferStoreConfig) *RedisPendingTransferStore {
	if cfg.Key == "" {
		cfg.Key = pendingTransfersKey
	}
	return &RedisPendingTransferStore{
		client: client,
		cfg:    cfg,
	}
}

func (r *RedisPendingTransferStore) Put(ctx context.Context, t escrow.Transfer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}
	if err := r.client.HSet(ctx, r.cfg.Key, t.IdempotencyKey, data).Err(); err != nil {
		logrus.Errorf("failed to store pending transfer %s: %v", t.IdempotencyKey, err)
		return fmt.Errorf("failed to store pending transfer: %w", err)
	}
	logrus.Warnf("transfer %s parked for replay: to=%s token=%s amount=%d", t.IdempotencyKey, t.To, t.Token, t.Amount)
	return nil
}

func (r *RedisPendingTransferStore) Remove(ctx context.Context, idempotencyKey string) error {
	if err := r.client.HDel(ctx, r.cfg.Key, idempotencyKey).Err(); err != nil {
		return fmt.Errorf("failed to remove pending transfer: %w", err)
	}
	return nil
}

// List returns the pending transfers ordered by idempotency key.
func (r *RedisPendingTransferStore) List(ctx context.Context) ([]escrow.Transfer, error) {
	raw, err := r.client.HGetAll(ctx, r.cfg.Key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transfers: %w", err)
	}

	out := make([]escrow.Transfer, 0, len(raw))
	for key, data := range raw {
		var t escrow.Transfer
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			logrus.Errorf("dropping unreadable pending transfer %s: %v", key, err)
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdempotencyKey < out[j].IdempotencyKey })
	return out, nil
}
