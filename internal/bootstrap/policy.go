// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Policy is the boot-time escrow policy read from config/policy.yaml.
//
// Example:
//
//	tokens:
//	  - token: USDC
//	    max_limit: ${USDC_LIMIT:1000000000000}
//	game_limits:
//	  min_entry_fee: 1000000
//	  max_time_limit: 1h
//	roles:
//	  - account: ${OPS_ADDRESS}
//	    role: EMERGENCY
type Policy struct {
	Tokens     []TokenPolicy     `yaml:"tokens"`
	GameLimits *GameLimitsPolicy `yaml:"game_limits,omitempty"`
	MaxTVL     escrow.Amount     `yaml:"max_tvl,omitempty"`
	Roles      []RoleGrant       `yaml:"roles,omitempty"`
}

// TokenPolicy allows one token with a locked value cap.
type TokenPolicy struct {
	Token    escrow.TokenID `yaml:"token"`
	MaxLimit escrow.Amount  `yaml:"max_limit"`
}

// GameLimitsPolicy overrides individual game limits. Fields left out keep
// their escrow.DefaultGameLimits value.
type GameLimitsPolicy struct {
	escrow.GameLimits
}

func (g *GameLimitsPolicy) UnmarshalYAML(node *yaml.Node) error {
	g.GameLimits = escrow.DefaultGameLimits()
	return node.Decode(&g.GameLimits)
}

// RoleGrant grants a role beyond the bootstrap admin and oracle.
type RoleGrant struct {
	Account escrow.Address `yaml:"account"`
	Role    string         `yaml:"role"`
}

// LoadPolicy loads the policy from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
// A missing file yields an empty policy.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("policy file %s not found, starting without allowed tokens", path)
		return &Policy{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	return ParsePolicy(data)
}

// ParsePolicy parses and validates a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	expanded := expandEnvVars(string(data))

	var policy Policy
	if err := yaml.Unmarshal([]byte(expanded), &policy); err != nil {
		return nil, fmt.Errorf("failed to parse YAML policy: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	return &policy, nil
}

// Validate checks the policy for common errors.
func (p *Policy) Validate() error {
	tokens := make(map[escrow.TokenID]bool)
	for _, t := range p.Tokens {
		if t.Token == "" {
			return fmt.Errorf("token with empty ID found")
		}
		if tokens[t.Token] {
			return fmt.Errorf("duplicate token: %s", t.Token)
		}
		tokens[t.Token] = true

		if t.MaxLimit == 0 {
			return fmt.Errorf("token %s has no max_limit", t.Token)
		}
	}

	if p.GameLimits != nil {
		if err := p.GameLimits.Validate(); err != nil {
			return err
		}
	}

	for _, r := range p.Roles {
		if r.Account == "" {
			return fmt.Errorf("role grant with empty account found")
		}
		if _, err := escrow.ParseRole(r.Role); err != nil {
			return fmt.Errorf("role grant for %s: %w", r.Account, err)
		}
	}

	return nil
}

// Apply seeds a freshly built engine with the policy, acting as admin.
func (p *Policy) Apply(engine *escrow.Engine, admin escrow.Address) error {
	if p.MaxTVL > 0 {
		if err := engine.UpdateTVLLimits(admin, p.MaxTVL); err != nil {
			return fmt.Errorf("failed to apply max_tvl: %w", err)
		}
	}

	if p.GameLimits != nil {
		if err := engine.UpdateGameLimits(admin, p.GameLimits.GameLimits); err != nil {
			return fmt.Errorf("failed to apply game_limits: %w", err)
		}
	}

	for _, t := range p.Tokens {
		if err := engine.AddAllowedToken(admin, t.Token, t.MaxLimit); err != nil {
			return fmt.Errorf("failed to allow token %s: %w", t.Token, err)
		}
		logrus.Infof("allowed token %s (limit %d)", t.Token, t.MaxLimit)
	}

	for _, r := range p.Roles {
		role, _ := escrow.ParseRole(r.Role)
		if err := engine.GrantRole(admin, r.Account, role); err != nil {
			return fmt.Errorf("failed to grant %s to %s: %w", role, r.Account, err)
		}
		logrus.Infof("granted role %s to %s", role, r.Account)
	}

	logrus.Infof("applied policy: %d tokens, %d role grants", len(p.Tokens), len(p.Roles))
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
