package mock

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"
)

// Custodian is a mock implementation of escrow.Custodian for testing
type Custodian struct {
	mu sync.Mutex

	// CollectFunc is called when Collect is invoked
	CollectFunc func(ctx context.Context, c escrow.Collection) error

	// TransferFunc is called when Transfer is invoked
	TransferFunc func(ctx context.Context, t escrow.Transfer) error

	// Default error returned when no func is set
	DefaultError error

	// Call tracking
	CollectCalls  []escrow.Collection
	TransferCalls []escrow.Transfer
}

// NewCustodian creates a new mock custodian
func NewCustodian() *Custodian {
	return &Custodian{}
}

// Collect implements escrow.Custodian
func (m *Custodian) Collect(ctx context.Context, c escrow.Collection) error {
	m.mu.Lock()
	m.CollectCalls = append(m.CollectCalls, c)
	fn := m.CollectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, c)
	}
	return m.DefaultError
}

// Transfer implements escrow.Custodian
func (m *Custodian) Transfer(ctx context.Context, t escrow.Transfer) error {
	m.mu.Lock()
	m.TransferCalls = append(m.TransferCalls, t)
	fn := m.TransferFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, t)
	}
	return m.DefaultError
}

// TransferCount returns how many times Transfer was called
func (m *Custodian) TransferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.TransferCalls)
}

// Reset clears all call tracking
func (m *Custodian) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CollectCalls = nil
	m.TransferCalls = nil
}
