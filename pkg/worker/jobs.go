// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/sirupsen/logrus"
)

// TimeoutSweeper acts as the oracle for expired games: every Active game whose
// time limit elapsed is reported as timed out, refunding its players.
type TimeoutSweeper struct {
	engine *escrow.Engine
	oracle escrow.Address
	now    func() time.Time
}

func NewTimeoutSweeper(engine *escrow.Engine, oracle escrow.Address, now func() time.Time) *TimeoutSweeper {
	if now == nil {
		now = time.Now
	}
	return &TimeoutSweeper{engine: engine, oracle: oracle, now: now}
}

// Sweep reports every expired game and returns how many were cancelled.
func (s *TimeoutSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	cancelled := 0
	var errs []error

	for _, g := range s.engine.GetActiveGames() {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		if now.Before(g.Deadline()) {
			continue
		}
		err := s.engine.ReportGameTimeout(s.oracle, g.ID)
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, escrow.ErrInvalidGameParameters):
			// settled or cancelled since the listing
			logrus.Debugf("game %d no longer active: %v", g.ID, err)
		default:
			errs = append(errs, err)
		}
	}

	if cancelled > 0 {
		logrus.Infof("timeout sweep cancelled %d games", cancelled)
	}
	return cancelled, errors.Join(errs...)
}

// Job wraps the sweeper as a scheduler job.
func (s *TimeoutSweeper) Job(interval time.Duration) Job {
	return Job{
		Name:     "timeout-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := s.Sweep(ctx)
			return err
		},
	}
}

// Replayer redelivers parked custodian transfers.
type Replayer interface {
	ReplayPending(ctx context.Context) (int, error)
}

// ReplayJob periodically retries the transfers the custodian could not deliver.
func ReplayJob(r Replayer, interval time.Duration) Job {
	return Job{
		Name:     "transfer-replay",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := r.ReplayPending(ctx)
			return err
		},
	}
}

// SnapshotStore persists engine snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, s *escrow.Snapshot) error
}

// SaveSnapshot takes a snapshot of engine and stores it.
func SaveSnapshot(ctx context.Context, engine *escrow.Engine, store SnapshotStore) error {
	snap := engine.Snapshot()
	if err := store.Save(ctx, snap); err != nil {
		return err
	}
	logrus.Infof("snapshot saved: games=%d totalTVL=%d", len(snap.Games), snap.TotalTVL)
	return nil
}

// SnapshotJob periodically persists the engine state.
func SnapshotJob(engine *escrow.Engine, store SnapshotStore, interval time.Duration) Job {
	return Job{
		Name:     "snapshot",
		Interval: interval,
		Run: func(ctx context.Context) error {
			return SaveSnapshot(ctx, engine, store)
		},
	}
}
