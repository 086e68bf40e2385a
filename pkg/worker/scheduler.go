// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/common"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Job is a periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on fixed intervals. A tick that arrives while the
// previous run of the same job is still going is skipped.
type Scheduler struct {
	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(jobs ...Job) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{sched: sched, ctx: ctx, cancel: cancel}

	for _, j := range jobs {
		if j.Interval <= 0 {
			logrus.Infof("job %s disabled", j.Name)
			continue
		}
		if err := s.add(j); err != nil {
			cancel()
			_ = sched.Shutdown()
			return nil, err
		}
		logrus.Infof("scheduled job %s every %v", j.Name, j.Interval)
	}
	return s, nil
}

func (s *Scheduler) add(j Job) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(j.Interval),
		gocron.NewTask(func() {
			scope := common.GetScopeFromContext(s.ctx, "job."+j.Name)
			defer scope.Finish()

			if err := j.Run(scope.Ctx); err != nil {
				scope.TraceError(err)
				scope.Log.Errorf("job %s failed: %v", j.Name, err)
			}
		}),
		gocron.WithName(j.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", j.Name, err)
	}
	return nil
}

// Start begins running the scheduled jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.sched.Start()
	logrus.Infof("scheduler started with %d jobs", len(s.sched.Jobs()))
	return nil
}

// Shutdown cancels in-flight runs and waits for them to return.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down scheduler...")
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return err
	}
	logrus.Info("scheduler stopped")
	return nil
}
