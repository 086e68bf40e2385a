package escrow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	admin   Address = "0xadmin"
	oracle  Address = "0xoracle"
	creator Address = "0xcreator"
	usdc    TokenID = "USDC"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeCustodian struct {
	mu          sync.Mutex
	collected   map[Address]Amount
	collections []Collection
	transfers   []Transfer
	collectErr  error
	transferErr error
}

func newFakeCustodian() *fakeCustodian {
	return &fakeCustodian{collected: make(map[Address]Amount)}
}

func (f *fakeCustodian) Collect(_ context.Context, c Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collectErr != nil {
		return f.collectErr
	}
	f.collected[c.From] += c.Amount
	f.collections = append(f.collections, c)
	return nil
}

func (f *fakeCustodian) Collections() []Collection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Collection(nil), f.collections...)
}

func (f *fakeCustodian) Transfer(_ context.Context, t Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transfers = append(f.transfers, t)
	return nil
}

func (f *fakeCustodian) Transfers() []Transfer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transfer(nil), f.transfers...)
}

var errCustodianDown = errors.New("custodian unavailable")

type harness struct {
	engine    *Engine
	sink      *MemorySink
	clock     *fakeClock
	custodian *fakeCustodian
}

func testLimits() GameLimits {
	return GameLimits{
		MinEntryFee:              1,
		MaxEntryFee:              1_000_000_000_000,
		MinPlayers:               2,
		MaxPlayers:               16,
		MaxTimeLimit:             time.Hour,
		MaxCreatorCommissionBps:  5000,
		MaxPlatformCommissionBps: 2000,
	}
}

func newHarness(t *testing.T, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		sink:      &MemorySink{},
		clock:     newFakeClock(),
		custodian: newFakeCustodian(),
	}
	limits := testLimits()
	opts := Options{
		MaxTVL:    1_000_000_000_000_000,
		Limits:    &limits,
		Risk:      RiskPolicy{JoinCooldown: DefaultJoinCooldown, DailyWindow: DefaultDailyWindow},
		Sink:      h.sink,
		Custodian: h.custodian,
		Now:       h.clock.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}
	h.engine = New(admin, oracle, opts)
	require.NoError(t, h.engine.AddAllowedToken(admin, usdc, 1_000_000_000_000_000))
	return h
}

func player(i int) Address {
	return Address(fmt.Sprintf("0xplayer%d", i))
}

func wta(fee Amount, maxPlayers int, creatorBps, platformBps uint32) GameParams {
	return GameParams{
		Token:       usdc,
		Mode:        WinnerTakesAll,
		EntryFee:    fee,
		MaxPlayers:  maxPlayers,
		TimeLimit:   time.Hour,
		CreatorBps:  creatorBps,
		PlatformBps: platformBps,
	}
}

func (h *harness) create(t *testing.T, p GameParams) GameID {
	t.Helper()
	id, err := h.engine.CreateGame(creator, p)
	require.NoError(t, err)
	return id
}

// fill joins players 1..n to game id.
func (h *harness) fill(t *testing.T, id GameID, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, h.engine.JoinGame(context.Background(), player(i), id, 0))
	}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.Truef(t, ok, "expected domain error %s, got %v", kind, err)
	require.Equal(t, kind, got, "error: %v", err)
}
