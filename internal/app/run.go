// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/handler"
	"github.com/AccelByte/extend-game-escrow/pkg/state"
	"github.com/AccelByte/extend-game-escrow/pkg/worker"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run(ctx context.Context) error {
	// Start servers
	if err := a.grpcServer.Start(ctx); err != nil {
		return err
	}
	if err := a.metricsServer.Start(ctx); err != nil {
		return err
	}

	a.healthReport(ctx)

	// Redeliver transfers parked before the last shutdown
	if n, err := a.custodian.ReplayPending(ctx); err != nil {
		logrus.Warnf("failed to replay %d pending transfers: %v", n, err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	logrus.Info("application started successfully")

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logrus.Info("shutdown signal received")
	return a.Shutdown(ctx)
}

// Shutdown gracefully shuts down all application components.
//
// ============================================================
// Shutdown order is critical
// ============================================================
// Components are shut down in reverse dependency order:
// 1. Stop accepting new requests (gRPC + metrics servers)
// 2. Stop background jobs
// 3. Persist a final snapshot of the engine
// 4. Close external connections (Redis)
// 5. Flush telemetry data (OpenTelemetry)
//
// Shutdown errors are logged but don't stop the shutdown
// sequence. Each component gets a chance to clean up.
// ============================================================
func (a *App) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down application...")

	// signal contexts are already done here
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	// ============================================================
	// Step 1: Shutdown servers (stop accepting new requests)
	// ============================================================
	if err := a.grpcServer.Shutdown(ctx); err != nil {
		logrus.Errorf("gRPC server shutdown error: %v", err)
	}
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		logrus.Errorf("metrics server shutdown error: %v", err)
	}

	// ============================================================
	// Step 2: Stop background jobs
	// ============================================================
	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logrus.Errorf("scheduler shutdown error: %v", err)
		}
	}

	// ============================================================
	// Step 3: Persist the final engine state
	// ============================================================
	if a.engine != nil && a.snapshots != nil {
		if err := worker.SaveSnapshot(ctx, a.engine, a.snapshots); err != nil {
			logrus.Errorf("final snapshot error: %v", err)
		}
	}

	// ============================================================
	// Step 4: Close external connections
	// ============================================================
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.Errorf("Redis close error: %v", err)
		}
	}

	// ============================================================
	// Step 5: Flush telemetry data
	// ============================================================
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			logrus.Errorf("telemetry shutdown error: %v", err)
		}
	}

	logrus.Info("application shutdown complete")
	return nil
}

func (a *App) healthReport(ctx context.Context) {
	state.NewHealthChecker(a.redisClient).Report(ctx, a.grpcServer.Health(), handler.ServiceName)
}
