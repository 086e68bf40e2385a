// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	return Parse()
}

// Parse reads the Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

// Validate performs custom validation on the configuration.
func (c *Config) Validate() error {
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort)
	}

	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort)
	}

	if c.GRPCPort == c.MetricsPort {
		return fmt.Errorf("GRPC_PORT and METRICS_PORT must differ (both %d)", c.GRPCPort)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if c.AdminAddress == "" {
		return fmt.Errorf("ESCROW_ADMIN_ADDRESS is required")
	}
	if c.OracleAddress == "" {
		return fmt.Errorf("ESCROW_ORACLE_ADDRESS is required")
	}

	if c.MaxTVL == 0 {
		return fmt.Errorf("ESCROW_MAX_TVL must be positive")
	}
	if c.JoinCooldown < 0 {
		return fmt.Errorf("invalid ESCROW_JOIN_COOLDOWN: %v (must not be negative)", c.JoinCooldown)
	}
	if c.MaxGamesPerDay < 0 {
		return fmt.Errorf("invalid ESCROW_MAX_GAMES_PER_DAY: %d (0 disables the limit)", c.MaxGamesPerDay)
	}
	if c.MaxGamesPerDay > 0 && c.DailyWindow <= 0 {
		return fmt.Errorf("ESCROW_DAILY_WINDOW must be positive when ESCROW_MAX_GAMES_PER_DAY is set")
	}

	if c.SnapshotHistory < 0 {
		return fmt.Errorf("invalid SNAPSHOT_HISTORY: %d", c.SnapshotHistory)
	}
	if c.TransferMaxRetries < 0 {
		return fmt.Errorf("invalid TRANSFER_MAX_RETRIES: %d", c.TransferMaxRetries)
	}

	for name, d := range map[string]int64{
		"SWEEP_INTERVAL":           int64(c.SweepInterval),
		"TRANSFER_REPLAY_INTERVAL": int64(c.ReplayInterval),
		"SNAPSHOT_INTERVAL":        int64(c.SnapshotInterval),
	} {
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", name)
		}
	}

	return nil
}
