// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-game-escrow/internal/bootstrap"
	"github.com/AccelByte/extend-game-escrow/internal/config"
	"github.com/AccelByte/extend-game-escrow/internal/server"
	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
	"github.com/AccelByte/extend-game-escrow/pkg/handler"
	"github.com/AccelByte/extend-game-escrow/pkg/metrics"
	"github.com/AccelByte/extend-game-escrow/pkg/service"
	"github.com/AccelByte/extend-game-escrow/pkg/state"
	"github.com/AccelByte/extend-game-escrow/pkg/worker"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const healthInterval = 10 * time.Second

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	scheduler         *worker.Scheduler
	shutdownTelemetry func(context.Context) error

	engine    *escrow.Engine
	snapshots *state.RedisSnapshotStore
	custodian *service.RetryingCustodian
}

// New creates and initializes a new application instance.
//
// ============================================================
// Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Redis (snapshots, vault, outbox, event stream)
// 2. Policy file (YAML configuration)
// 3. Custodian (Redis vault behind retries and the outbox)
// 4. Engine (restored from the latest snapshot, or fresh + policy)
// 5. Background jobs (timeout sweep, transfer replay, snapshots)
// 6. Servers (gRPC, metrics)
// 7. Telemetry (OpenTelemetry tracing)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Initialize Redis
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// ============================================================
	// Step 2: Load policy configuration
	// ============================================================
	policy, err := bootstrap.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy from %s: %w", cfg.PolicyPath, err)
	}
	logrus.Infof("loaded policy from %s", cfg.PolicyPath)

	// ============================================================
	// Step 3: Initialize the custodian
	// ============================================================
	vault := service.NewRedisVaultCustodian(app.redisClient, service.RedisVaultCustodianConfig{})
	outbox := service.NewRedisPendingTransferStore(app.redisClient, service.RedisPendingTransferStoreConfig{})
	app.custodian = service.NewRetryingCustodian(vault, outbox, service.RetryingCustodianConfig{
		MaxRetries:      uint64(cfg.TransferMaxRetries),
		InitialInterval: cfg.TransferRetryDelay,
	})

	// ============================================================
	// Step 4: Build or restore the engine
	// ============================================================
	metricsSink := metrics.NewSink()
	sinks := escrow.MultiSink{
		escrow.EventSinkFunc(logEvent),
		service.NewRedisStreamSink(app.redisClient, service.RedisStreamSinkConfig{Stream: cfg.EventStream}),
		metricsSink,
	}

	app.snapshots = state.NewRedisSnapshotStore(app.redisClient, state.RedisSnapshotStoreConfig{
		Name:    cfg.SnapshotName,
		History: cfg.SnapshotHistory,
	})
	if err := app.initEngine(ctx, policy, sinks); err != nil {
		return nil, err
	}

	// ============================================================
	// Step 5: Schedule background jobs
	// ============================================================
	// The sweeper acts as the oracle for games whose time limit elapsed.
	// ============================================================
	sweeper := worker.NewTimeoutSweeper(app.engine, escrow.Address(cfg.OracleAddress), nil)
	healthChecker := state.NewHealthChecker(app.redisClient)

	// servers are set up below, before the scheduler starts
	healthJob := worker.Job{
		Name:     "health",
		Interval: healthInterval,
		Run: func(ctx context.Context) error {
			healthChecker.Report(ctx, app.grpcServer.Health(), handler.ServiceName)
			return nil
		},
	}

	app.scheduler, err = worker.NewScheduler(
		sweeper.Job(cfg.SweepInterval),
		worker.ReplayJob(app.custodian, cfg.ReplayInterval),
		worker.SnapshotJob(app.engine, app.snapshots, cfg.SnapshotInterval),
		healthJob,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	// ============================================================
	// Step 6: Setup servers
	// ============================================================
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, handler.NewEscrow(app.engine))
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	collectors := append(metricsSink.Collectors(), prometheus.Collector(metrics.NewTVLCollector(app.engine)))
	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", collectors...)
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// Step 7: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(b, uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		backoff.WithContext(maxRetries, ctx),
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// initEngine restores the engine from the latest snapshot. Without one the
// engine starts empty and the policy file seeds tokens, limits and roles.
func (a *App) initEngine(ctx context.Context, policy *bootstrap.Policy, sink escrow.EventSink) error {
	admin := escrow.Address(a.cfg.AdminAddress)
	oracle := escrow.Address(a.cfg.OracleAddress)

	a.engine = escrow.New(admin, oracle, escrow.Options{
		MaxTVL: escrow.Amount(a.cfg.MaxTVL),
		Risk: escrow.RiskPolicy{
			JoinCooldown:   a.cfg.JoinCooldown,
			DailyWindow:    a.cfg.DailyWindow,
			MaxGamesPerDay: a.cfg.MaxGamesPerDay,
		},
		Sink:      sink,
		Custodian: a.custodian,
	})

	snap, found, err := a.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if found {
		if err := a.engine.Restore(snap); err != nil {
			return fmt.Errorf("failed to restore snapshot taken at %v: %w", snap.TakenAt, err)
		}
		logrus.Infof("restored engine from snapshot taken at %v (%d games)", snap.TakenAt, len(snap.Games))
		return nil
	}

	if err := policy.Apply(a.engine, admin); err != nil {
		return fmt.Errorf("failed to apply policy: %w", err)
	}
	logrus.Info("started fresh engine")
	return nil
}

func logEvent(ev escrow.Event) {
	logrus.WithField("event", ev.EventName()).Debugf("%+v", ev)
}
