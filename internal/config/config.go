// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// After adding fields here, update loader.go Validate() if custom
// validation is needed.
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExtendGameEscrow"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ============================================================
	// Escrow configuration (REQUIRED)
	// ============================================================
	AdminAddress  string `env:"ESCROW_ADMIN_ADDRESS,required"`
	OracleAddress string `env:"ESCROW_ORACLE_ADDRESS,required"`

	// ============================================================
	// Escrow limits
	// ============================================================
	MaxTVL         uint64        `env:"ESCROW_MAX_TVL" envDefault:"1000000000000000000"`
	JoinCooldown   time.Duration `env:"ESCROW_JOIN_COOLDOWN" envDefault:"5s"`
	MaxGamesPerDay int           `env:"ESCROW_MAX_GAMES_PER_DAY" envDefault:"0"`
	DailyWindow    time.Duration `env:"ESCROW_DAILY_WINDOW" envDefault:"24h"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// ============================================================
	// Persistence and events
	// ============================================================
	SnapshotName    string `env:"SNAPSHOT_NAME" envDefault:"default"`
	SnapshotHistory int    `env:"SNAPSHOT_HISTORY" envDefault:"5"`
	EventStream     string `env:"EVENT_STREAM" envDefault:"game_escrow:events"`

	// ============================================================
	// Custodian transfers
	// ============================================================
	TransferMaxRetries int           `env:"TRANSFER_MAX_RETRIES" envDefault:"3"`
	TransferRetryDelay time.Duration `env:"TRANSFER_RETRY_DELAY" envDefault:"100ms"`

	// ============================================================
	// Background jobs (0 disables a job)
	// ============================================================
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"15s"`
	ReplayInterval   time.Duration `env:"TRANSFER_REPLAY_INTERVAL" envDefault:"1m"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`

	// ============================================================
	// Policy configuration
	// ============================================================
	PolicyPath string `env:"POLICY_PATH" envDefault:"config/policy.yaml"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"extend-game-escrow"`
}
