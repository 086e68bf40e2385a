// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"fmt"
	"sort"
	"sync"
)

// Role is a capability a principal can hold.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleOracle    Role = "ORACLE"
	RoleEmergency Role = "EMERGENCY"
)

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleOracle, RoleEmergency:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// RoleSet is the set of roles one principal holds.
type RoleSet map[Role]struct{}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// List returns the roles in a stable order.
func (s RoleSet) List() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AccessControl keeps the capability set of every principal.
type AccessControl struct {
	mu    sync.RWMutex
	roles map[Address]RoleSet
}

func newAccessControl() *AccessControl {
	return &AccessControl{roles: make(map[Address]RoleSet)}
}

func (a *AccessControl) grant(account Address, r Role) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.roles[account]
	if !ok {
		set = make(RoleSet)
		a.roles[account] = set
	}
	if set.Has(r) {
		return false
	}
	set[r] = struct{}{}
	return true
}

func (a *AccessControl) revoke(account Address, r Role) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.roles[account]
	if !ok || !set.Has(r) {
		return false
	}
	delete(set, r)
	if len(set) == 0 {
		delete(a.roles, account)
	}
	return true
}

// HasRole reports whether account holds r.
func (a *AccessControl) HasRole(account Address, r Role) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.roles[account].Has(r)
}

// Roles returns the roles held by account.
func (a *AccessControl) Roles(account Address) []Role {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.roles[account].List()
}

// require is the guard at the top of every role-gated operation. It passes
// when the caller holds any of the given roles.
func (a *AccessControl) require(op string, caller Address, roles ...Role) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	set := a.roles[caller]
	for _, r := range roles {
		if set.Has(r) {
			return nil
		}
	}
	return &UnauthorizedError{Caller: caller, Role: roles[0], Op: op}
}

func (a *AccessControl) export() map[Address][]Role {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[Address][]Role, len(a.roles))
	for addr, set := range a.roles {
		out[addr] = set.List()
	}
	return out
}
