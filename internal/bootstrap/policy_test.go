// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
)

func TestLoadPolicy(t *testing.T) {
	t.Setenv("OPS_ADDRESS", "0xops")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "policy.yaml")

	content := `
max_tvl: 5000000000
tokens:
  - token: USDC
    max_limit: ${USDC_LIMIT:2000000000}
  - token: DAI
    max_limit: 1000000000
game_limits:
  min_entry_fee: 10
  max_time_limit: 30m
roles:
  - account: ${OPS_ADDRESS}
    role: EMERGENCY
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}

	if len(policy.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(policy.Tokens))
	}
	if policy.Tokens[0].MaxLimit != 2_000_000_000 {
		t.Errorf("USDC max_limit = %d, expected the 2000000000 default", policy.Tokens[0].MaxLimit)
	}
	if policy.GameLimits == nil {
		t.Fatal("expected game_limits")
	}
	if policy.GameLimits.MinEntryFee != 10 {
		t.Errorf("MinEntryFee = %d, expected 10", policy.GameLimits.MinEntryFee)
	}
	if policy.GameLimits.MaxTimeLimit != 30*time.Minute {
		t.Errorf("MaxTimeLimit = %v, expected 30m", policy.GameLimits.MaxTimeLimit)
	}
	if policy.GameLimits.MaxPlayers != escrow.DefaultGameLimits().MaxPlayers {
		t.Errorf("MaxPlayers = %d, expected default %d", policy.GameLimits.MaxPlayers, escrow.DefaultGameLimits().MaxPlayers)
	}
	if len(policy.Roles) != 1 || policy.Roles[0].Account != "0xops" {
		t.Errorf("Roles = %+v, expected EMERGENCY for 0xops", policy.Roles)
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	policy, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}
	if len(policy.Tokens) != 0 || policy.GameLimits != nil {
		t.Errorf("expected empty policy, got %+v", policy)
	}
}

func TestParsePolicy_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "tokens: [\n"},
		{"empty token", "tokens:\n  - max_limit: 10\n"},
		{"duplicate token", "tokens:\n  - token: USDC\n    max_limit: 1\n  - token: USDC\n    max_limit: 2\n"},
		{"zero limit", "tokens:\n  - token: USDC\n"},
		{"bad game limits", "game_limits:\n  min_players: 1\n"},
		{"commission caps too high", "game_limits:\n  max_creator_commission_bps: 9000\n  max_platform_commission_bps: 1000\n"},
		{"unknown role", "roles:\n  - account: 0xops\n    role: ROOT\n"},
		{"empty account", "roles:\n  - role: ADMIN\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePolicy([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPolicy_Apply(t *testing.T) {
	policy, err := ParsePolicy([]byte(`
max_tvl: 900
tokens:
  - token: USDC
    max_limit: 500
game_limits:
  min_entry_fee: 5
roles:
  - account: 0xops
    role: EMERGENCY
`))
	if err != nil {
		t.Fatalf("ParsePolicy failed: %v", err)
	}

	engine := escrow.New("0xadmin", "0xoracle", escrow.Options{})
	if err := policy.Apply(engine, "0xadmin"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if engine.MaxTVLLimit() != 900 {
		t.Errorf("MaxTVLLimit() = %d, expected 900", engine.MaxTVLLimit())
	}
	cfg, ok := engine.GetTokenConfig("USDC")
	if !ok || !cfg.Allowed || cfg.MaxTokenLimit != 500 {
		t.Errorf("GetTokenConfig(USDC) = %+v, %v, expected allowed with limit 500", cfg, ok)
	}
	if engine.GetGameLimits().MinEntryFee != 5 {
		t.Errorf("MinEntryFee = %d, expected 5", engine.GetGameLimits().MinEntryFee)
	}
	if !engine.HasRole("0xops", escrow.RoleEmergency) {
		t.Error("0xops should hold EMERGENCY")
	}

	if err := policy.Apply(engine, "0xnobody"); err == nil {
		t.Error("Apply by a non-admin should fail")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ESCROW_TEST_SET", "value")

	tests := []struct {
		in, expected string
	}{
		{"${ESCROW_TEST_SET}", "value"},
		{"${ESCROW_TEST_SET:other}", "value"},
		{"${ESCROW_TEST_UNSET:fallback}", "fallback"},
		{"${ESCROW_TEST_UNSET}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}
