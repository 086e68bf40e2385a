// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// KeyPrefix is the prefix for all escrow snapshot keys
	KeyPrefix = "game_escrow:snapshot:"
	// DefaultHistory is how many previous snapshots are retained next to the latest one
	DefaultHistory = 5
)

// RedisSnapshotStore persists engine snapshots in Redis.
// The latest snapshot lives under one key; older ones are kept in a capped list.
type RedisSnapshotStore struct {
	client redis.UniversalClient
	cfg    RedisSnapshotStoreConfig
}

type RedisSnapshotStoreConfig struct {
	// Name separates the snapshots of several escrow instances sharing one Redis.
	Name string
	// History caps the list of previous snapshots; zero means DefaultHistory.
	History int
}

func NewRedisSnapshotStore(client redis.UniversalClient, cfg RedisSnapshotStoreConfig) *RedisSnapshotStore {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	return &RedisSnapshotStore{
		client: client,
		cfg:    cfg,
	}
}

// makeKey creates the Redis key of the latest snapshot
func makeKey(name string) string {
	return fmt.Sprintf("%s%s", KeyPrefix, name)
}

func makeHistoryKey(name string) string {
	return makeKey(name) + ":history"
}

// Save stores s as the latest snapshot and pushes the previous one into history.
func (r *RedisSnapshotStore) Save(ctx context.Context, s *escrow.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		logrus.Errorf("failed to marshal snapshot: %v", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := makeKey(r.cfg.Name)
	historyKey := makeHistoryKey(r.cfg.Name)

	previous, err := r.client.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		logrus.Errorf("failed to read previous snapshot %s: %v", key, err)
		return fmt.Errorf("failed to read previous snapshot: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil {
			pipe.LPush(ctx, historyKey, previous)
			pipe.LTrim(ctx, historyKey, 0, int64(r.cfg.History-1))
		}
		pipe.Set(ctx, key, data, 0)
		return nil
	})
	if err != nil {
		logrus.Errorf("failed to save snapshot %s: %v", key, err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	logrus.Debugf("saved snapshot %s: games=%d totalTVL=%d", key, len(s.Games), s.TotalTVL)
	return nil
}

// Load returns the latest snapshot. The boolean is false when none was ever saved.
func (r *RedisSnapshotStore) Load(ctx context.Context) (*escrow.Snapshot, bool, error) {
	key := makeKey(r.cfg.Name)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		logrus.Infof("no snapshot stored under %s", key)
		return nil, false, nil
	}
	if err != nil {
		logrus.Errorf("failed to get snapshot %s: %v", key, err)
		return nil, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var s escrow.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		logrus.Errorf("failed to unmarshal snapshot %s: %v", key, err)
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	logrus.Infof("loaded snapshot %s taken at %v", key, s.TakenAt)
	return &s, true, nil
}

// History returns the retained previous snapshots, newest first.
func (r *RedisSnapshotStore) History(ctx context.Context) ([]*escrow.Snapshot, error) {
	raw, err := r.client.LRange(ctx, makeHistoryKey(r.cfg.Name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot history: %w", err)
	}

	out := make([]*escrow.Snapshot, 0, len(raw))
	for _, item := range raw {
		var s escrow.Snapshot
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot history: %w", err)
		}
		out = append(out, &s)
	}
	return out, nil
}

// Delete removes the latest snapshot and its history.
func (r *RedisSnapshotStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, makeKey(r.cfg.Name), makeHistoryKey(r.cfg.Name)).Err(); err != nil {
		logrus.Errorf("failed to delete snapshot %s: %v", r.cfg.Name, err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	logrus.Infof("deleted snapshot %s", r.cfg.Name)
	return nil
}
