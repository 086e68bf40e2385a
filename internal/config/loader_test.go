// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("ESCROW_ADMIN_ADDRESS", "0xadmin")
	t.Setenv("ESCROW_ORACLE_ADDRESS", "0xoracle")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.GRPCPort != 6565 {
		t.Errorf("GRPCPort = %d, expected 6565", cfg.GRPCPort)
	}
	if cfg.JoinCooldown != 5*time.Second {
		t.Errorf("JoinCooldown = %v, expected 5s", cfg.JoinCooldown)
	}
	if cfg.MaxGamesPerDay != 0 {
		t.Errorf("MaxGamesPerDay = %d, expected 0", cfg.MaxGamesPerDay)
	}
	if cfg.SweepInterval != 15*time.Second {
		t.Errorf("SweepInterval = %v, expected 15s", cfg.SweepInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_MissingRequired(t *testing.T) {
	t.Setenv("ESCROW_ADMIN_ADDRESS", "0xadmin")

	if _, err := Parse(); err == nil {
		t.Error("Parse() expected error without ESCROW_ORACLE_ADDRESS")
	}
}

func validConfig() *Config {
	return &Config{
		GRPCPort:         6565,
		MetricsPort:      8080,
		LogLevel:         "info",
		AdminAddress:     "0xadmin",
		OracleAddress:    "0xoracle",
		MaxTVL:           1000,
		JoinCooldown:     time.Second,
		DailyWindow:      24 * time.Hour,
		SnapshotHistory:  5,
		SweepInterval:    time.Second,
		ReplayInterval:   time.Minute,
		SnapshotInterval: time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"grpc port out of range", func(c *Config) { c.GRPCPort = 70000 }, "GRPC_PORT"},
		{"metrics port zero", func(c *Config) { c.MetricsPort = 0 }, "METRICS_PORT"},
		{"ports collide", func(c *Config) { c.MetricsPort = c.GRPCPort }, "must differ"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"missing admin", func(c *Config) { c.AdminAddress = "" }, "ESCROW_ADMIN_ADDRESS"},
		{"missing oracle", func(c *Config) { c.OracleAddress = "" }, "ESCROW_ORACLE_ADDRESS"},
		{"zero tvl", func(c *Config) { c.MaxTVL = 0 }, "ESCROW_MAX_TVL"},
		{"negative cooldown", func(c *Config) { c.JoinCooldown = -time.Second }, "ESCROW_JOIN_COOLDOWN"},
		{"negative daily games", func(c *Config) { c.MaxGamesPerDay = -1 }, "ESCROW_MAX_GAMES_PER_DAY"},
		{"daily limit without window", func(c *Config) { c.MaxGamesPerDay = 3; c.DailyWindow = 0 }, "ESCROW_DAILY_WINDOW"},
		{"negative sweep", func(c *Config) { c.SweepInterval = -time.Second }, "SWEEP_INTERVAL"},
		{"disabled jobs", func(c *Config) { c.SweepInterval, c.ReplayInterval, c.SnapshotInterval = 0, 0, 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, expected nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, expected it to mention %s", err, tt.wantErr)
			}
		})
	}
}
