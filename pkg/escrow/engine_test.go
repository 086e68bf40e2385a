package escrow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrantsBootstrapRoles(t *testing.T) {
	h := newHarness(t)

	assert.True(t, h.engine.HasRole(admin, RoleAdmin))
	assert.True(t, h.engine.HasRole(admin, RoleEmergency))
	assert.False(t, h.engine.HasRole(admin, RoleOracle))
	assert.True(t, h.engine.HasRole(oracle, RoleOracle))
	assert.Equal(t, []Role{RoleOracle}, h.engine.Roles(oracle))
	assert.Equal(t, DefaultGameLimits().MaxPlayers, New(admin, oracle, Options{}).GetGameLimits().MaxPlayers)
}

func TestCreateGameValidation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.AddAllowedToken(admin, "DAI", 1000))
	require.NoError(t, h.engine.RemoveAllowedToken(admin, "DAI"))

	team := func(maxPlayers, numTeams int) GameParams {
		p := wta(100, maxPlayers, 500, 200)
		p.Mode = TeamBattle
		p.NumTeams = numTeams
		return p
	}

	tests := []struct {
		name   string
		params func() GameParams
		kind   Kind
	}{
		{"valid winner takes all", func() GameParams { return wta(100, 4, 500, 200) }, ""},
		{"valid team battle", func() GameParams { return team(4, 2) }, ""},
		{"entry fee below minimum", func() GameParams { return wta(0, 4, 500, 200) }, KindInvalidGameParameters},
		{"entry fee above maximum", func() GameParams { return wta(2_000_000_000_000, 4, 500, 200) }, KindInvalidGameParameters},
		{"too few players", func() GameParams { return wta(100, 1, 500, 200) }, KindInvalidGameParameters},
		{"too many players", func() GameParams { return wta(100, 17, 500, 200) }, KindInvalidGameParameters},
		{"zero time limit", func() GameParams { p := wta(100, 4, 500, 200); p.TimeLimit = 0; return p }, KindInvalidGameParameters},
		{"time limit above maximum", func() GameParams { p := wta(100, 4, 500, 200); p.TimeLimit = 2 * time.Hour; return p }, KindInvalidGameParameters},
		{"commission sum reaches 10000", func() GameParams { return wta(100, 4, 8000, 2000) }, KindInvalidCommission},
		{"creator commission above cap", func() GameParams { return wta(100, 4, 5001, 0) }, KindInvalidCommission},
		{"platform commission above cap", func() GameParams { return wta(100, 4, 0, 2001) }, KindInvalidCommission},
		{"teams do not divide players", func() GameParams { return team(4, 3) }, KindInvalidGameParameters},
		{"single team", func() GameParams { return team(4, 1) }, KindInvalidGameParameters},
		{"unknown token", func() GameParams { p := wta(100, 4, 500, 200); p.Token = "WETH"; return p }, KindInvalidGameParameters},
		{"removed token", func() GameParams { p := wta(100, 4, 500, 200); p.Token = "DAI"; return p }, KindInvalidGameParameters},
		{"unknown mode", func() GameParams { p := wta(100, 4, 500, 200); p.Mode = GameMode(7); return p }, KindInvalidGameParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.engine.GameCount()
			id, err := h.engine.CreateGame(creator, tt.params())
			if tt.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, GameID(before+1), id)
				return
			}
			requireKind(t, err, tt.kind)
			assert.Equal(t, before, h.engine.GameCount())
		})
	}
}

func TestCreateGameIndexesAndEmits(t *testing.T) {
	h := newHarness(t)

	p := wta(100, 4, 1000, 200)
	p.NumTeams = 5
	id := h.create(t, p)

	g, err := h.engine.GetGame(id)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, g.Status)
	assert.Equal(t, 0, g.NumTeams)
	assert.Equal(t, creator, g.Creator)
	assert.Equal(t, h.clock.Now(), g.CreatedAt)

	assert.Len(t, h.engine.GetWaitingGames(), 1)
	assert.Empty(t, h.engine.GetActiveGames())
	assert.Len(t, h.engine.GetCreatorGames(creator), 1)
	assert.Empty(t, h.engine.GetCreatorGames(player(1)))

	created := h.sink.Named(EventGameCreated)
	require.Len(t, created, 1)
	assert.Equal(t, GameCreated{GameID: id, Creator: creator, Token: usdc, Mode: WinnerTakesAll, EntryFee: 100, MaxPlayers: 4, CreatorBps: 1000}, created[0])

	_, err = h.engine.GetGame(99)
	requireKind(t, err, KindGameNotFound)
}

func TestJoinGameAutoStarts(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 4, 1000, 200))

	h.fill(t, id, 3)
	g, _ := h.engine.GetGame(id)
	assert.Equal(t, StatusWaiting, g.Status)
	assert.Equal(t, Amount(300), g.PrizePool)
	assert.True(t, g.StartedAt.IsZero())

	h.clock.Advance(time.Second)
	require.NoError(t, h.engine.JoinGame(context.Background(), player(4), id, 0))

	g, _ = h.engine.GetGame(id)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, Amount(400), g.PrizePool)
	assert.Equal(t, h.clock.Now(), g.StartedAt)
	assert.Equal(t, []Address{player(1), player(2), player(3), player(4)}, g.Players)
	assert.Equal(t, Amount(400), h.engine.TotalValueLocked())
	assert.Equal(t, Amount(400), h.engine.TokenValueLocked(usdc))
	assert.Empty(t, h.engine.GetWaitingGames())
	assert.Len(t, h.engine.GetActiveGames(), 1)
	assert.Equal(t, Amount(100), h.custodian.collected[player(4)])
	assert.Equal(t, uint64(1), h.engine.Reputation(player(4)))

	assert.Len(t, h.sink.Named(EventPlayerJoined), 4)
	started := h.sink.Named(EventGameStarted)
	require.Len(t, started, 1)
	assert.Equal(t, GameStarted{GameID: id, StartedAt: h.clock.Now()}, started[0])
}

func TestJoinGameRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.create(t, wta(100, 2, 0, 0))
	require.NoError(t, h.engine.JoinGame(ctx, player(1), id, 0))

	err := h.engine.JoinGame(ctx, player(1), id, 0)
	requireKind(t, err, KindPlayerAlreadyJoined)

	requireKind(t, h.engine.JoinGame(ctx, player(2), 42, 0), KindGameNotFound)

	require.NoError(t, h.engine.JoinGame(ctx, player(2), id, 0))
	requireKind(t, h.engine.JoinGame(ctx, player(3), id, 0), KindInvalidGameParameters)

	teamGame := GameParams{Token: usdc, Mode: TeamBattle, EntryFee: 100, MaxPlayers: 4, NumTeams: 2, TimeLimit: time.Minute}
	tid := h.create(t, teamGame)
	requireKind(t, h.engine.JoinGame(ctx, player(5), tid, 5), KindInvalidTeam)
	requireKind(t, h.engine.JoinGame(ctx, player(5), tid, -1), KindInvalidTeam)
	require.NoError(t, h.engine.JoinGame(ctx, player(5), tid, 1))

	g, _ := h.engine.GetGame(tid)
	assert.Equal(t, 1, g.PlayerTeam[player(5)])
	assert.Equal(t, Amount(100), g.PrizePool)
}

func TestJoinGameCustodianFailureLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 2, 0, 0))
	h.custodian.collectErr = errCustodianDown

	err := h.engine.JoinGame(context.Background(), player(1), id, 0)
	require.ErrorIs(t, err, errCustodianDown)

	g, _ := h.engine.GetGame(id)
	assert.Empty(t, g.Players)
	assert.Zero(t, h.engine.TotalValueLocked())
	assert.Zero(t, h.engine.Reputation(player(1)))
	assert.Empty(t, h.sink.Named(EventPlayerJoined))
}

func TestJoinGameCollectsWithGameScopedKey(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 2, 0, 0))
	h.fill(t, id, 2)

	collections := h.custodian.Collections()
	require.Len(t, collections, 2)
	created := h.clock.Now().UnixNano()
	for i, c := range collections {
		assert.Equal(t, fmt.Sprintf("collect/%d/%d/%s", id, created, player(i+1)), c.IdempotencyKey)
		assert.Equal(t, id, c.GameID)
		assert.Equal(t, Amount(100), c.Amount)
	}
	assert.NotEqual(t, collections[0].IdempotencyKey, collections[1].IdempotencyKey)
}

func TestJoinCooldown(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.create(t, wta(100, 4, 0, 0))
	second := h.create(t, wta(100, 4, 0, 0))

	require.NoError(t, h.engine.JoinGame(ctx, player(1), first, 0))

	h.clock.Advance(2 * time.Second)
	requireKind(t, h.engine.JoinGame(ctx, player(1), second, 0), KindCooldownActive)
	g, _ := h.engine.GetGame(second)
	assert.Empty(t, g.Players)

	h.clock.Advance(4 * time.Second)
	require.NoError(t, h.engine.JoinGame(ctx, player(1), second, 0))
}

func TestDailyGameCounter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(o *Options) { o.Risk.MaxGamesPerDay = 2 })
	ids := []GameID{
		h.create(t, wta(100, 4, 0, 0)),
		h.create(t, wta(100, 4, 0, 0)),
		h.create(t, wta(100, 4, 0, 0)),
		h.create(t, wta(100, 4, 0, 0)),
	}

	require.NoError(t, h.engine.JoinGame(ctx, player(1), ids[0], 0))
	assert.Equal(t, 1, h.engine.GetRiskState(player(1)).GamesPlayedToday)

	h.clock.Advance(6 * time.Second)
	require.NoError(t, h.engine.JoinGame(ctx, player(1), ids[1], 0))
	assert.Equal(t, 2, h.engine.GetRiskState(player(1)).GamesPlayedToday)

	h.clock.Advance(6 * time.Second)
	requireKind(t, h.engine.JoinGame(ctx, player(1), ids[2], 0), KindExceedsLimit)

	h.clock.Advance(24*time.Hour + time.Second)
	require.NoError(t, h.engine.JoinGame(ctx, player(1), ids[2], 0))
	st := h.engine.GetRiskState(player(1))
	assert.Equal(t, 1, st.GamesPlayedToday)
	assert.Equal(t, h.clock.Now(), st.DayAnchor)
	assert.Equal(t, uint64(3), st.Reputation)
}

func TestTVLCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("global limit", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.UpdateTVLLimits(admin, 50))
		id := h.create(t, wta(100, 4, 500, 200))

		requireKind(t, h.engine.JoinGame(ctx, player(1), id, 0), KindExceedsLimit)
		g, _ := h.engine.GetGame(id)
		assert.Empty(t, g.Players)
		assert.Zero(t, g.PrizePool)
		assert.Zero(t, h.engine.TotalValueLocked())
		assert.Zero(t, h.engine.Reputation(player(1)))
		assert.Empty(t, h.custodian.collected)
	})

	t.Run("token limit", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.UpdateTokenLimit(admin, usdc, 50))
		id := h.create(t, wta(100, 4, 500, 200))

		requireKind(t, h.engine.JoinGame(ctx, player(1), id, 0), KindExceedsLimit)
		assert.Zero(t, h.engine.TokenValueLocked(usdc))
	})

	t.Run("limit reached exactly", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.engine.UpdateTVLLimits(admin, 200))
		id := h.create(t, wta(100, 4, 0, 0))

		h.fill(t, id, 2)
		requireKind(t, h.engine.JoinGame(ctx, player(3), id, 0), KindExceedsLimit)
		assert.Equal(t, Amount(200), h.engine.TotalValueLocked())
	})
}

func TestConcurrentJoinsCannotOvershootTVL(t *testing.T) {
	h := newHarness(t)
	const fee = 100
	require.NoError(t, h.engine.UpdateTokenLimit(admin, usdc, 3*fee))

	ids := make([]GameID, 10)
	for i := range ids {
		ids[i] = h.create(t, wta(fee, 2, 0, 0))
	}

	var wg sync.WaitGroup
	var admitted, rejected int64
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id GameID) {
			defer wg.Done()
			err := h.engine.JoinGame(context.Background(), player(i), id, 0)
			switch {
			case err == nil:
				atomic.AddInt64(&admitted, 1)
			case errors.Is(err, ErrExceedsLimit):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, int64(3), admitted)
	assert.Equal(t, int64(7), rejected)
	assert.Equal(t, Amount(3*fee), h.engine.TokenValueLocked(usdc))
}

func TestConcurrentJoinsSameGame(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 4, 0, 0))

	var wg sync.WaitGroup
	var admitted int64
	for i := 1; i <= 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := h.engine.JoinGame(context.Background(), player(i), id, 0); err == nil {
				atomic.AddInt64(&admitted, 1)
			}
		}(i)
	}
	wg.Wait()

	g, _ := h.engine.GetGame(id)
	assert.Equal(t, int64(4), admitted)
	assert.Len(t, g.Players, 4)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, Amount(400), h.engine.TotalValueLocked())
}

func TestReportGameResultScenarios(t *testing.T) {
	tests := []struct {
		name          string
		winners       []Address
		wantPerWinner Amount
	}{
		{"single winner", []Address{player(1)}, 352},
		{"two winners", []Address{player(1), player(2)}, 176},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			id := h.create(t, wta(100, 4, 1000, 200))
			h.fill(t, id, 4)

			g, _ := h.engine.GetGame(id)
			require.Equal(t, Amount(400), g.PrizePool)
			require.Equal(t, StatusActive, g.Status)

			split, err := h.engine.ReportGameResult(oracle, id, tt.winners)
			require.NoError(t, err)
			assert.Equal(t, Amount(40), split.CreatorCut)
			assert.Equal(t, Amount(8), split.PlatformCut)
			assert.Equal(t, Amount(352), split.WinnerAmount)
			assert.Equal(t, tt.wantPerWinner, split.PerWinner)
			assert.Zero(t, split.Dust)

			for _, w := range tt.winners {
				assert.Equal(t, []Balance{{Token: usdc, Amount: tt.wantPerWinner}}, h.engine.GetPlayerBalances(w))
				assert.Equal(t, uint64(3), h.engine.Reputation(w))
			}
			assert.Empty(t, h.engine.GetPlayerBalances(player(4)))
			assert.Equal(t, []Balance{{Token: usdc, Amount: 40}}, h.engine.GetCreatorEarnings(creator))
			assert.Equal(t, Amount(8), h.engine.GetPlatformRevenue(usdc))
			assert.Zero(t, h.engine.TotalValueLocked())

			g, _ = h.engine.GetGame(id)
			assert.Equal(t, StatusFinished, g.Status)
			assert.Equal(t, tt.winners, g.Winners)
			assert.Empty(t, h.engine.GetActiveGames())

			finished := h.sink.Named(EventGameFinished)
			require.Len(t, finished, 1)
			assert.Equal(t, tt.wantPerWinner, finished[0].(GameFinished).PerWinner)
		})
	}
}

func TestReportGameResultDustGoesToPlatform(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 4, 0, 0))
	h.fill(t, id, 4)

	winners := []Address{player(1), player(2), player(3)}
	split, err := h.engine.ReportGameResult(oracle, id, winners)
	require.NoError(t, err)

	assert.Equal(t, Amount(133), split.PerWinner)
	assert.Equal(t, Amount(1), split.Dust)
	assert.Equal(t, Amount(1), h.engine.GetPlatformRevenue(usdc))
	assert.Equal(t, split.TotalPrize, split.Distributed(len(winners)))
}

func TestReportGameResultRejections(t *testing.T) {
	h := newHarness(t)
	waiting := h.create(t, wta(100, 4, 0, 0))
	active := h.create(t, wta(100, 2, 0, 0))
	h.fill(t, active, 2)

	_, err := h.engine.ReportGameResult(player(1), active, []Address{player(1)})
	assert.True(t, IsUnauthorized(err))
	_, isDomain := KindOf(err)
	assert.False(t, isDomain)

	_, err = h.engine.ReportGameResult(oracle, 77, []Address{player(1)})
	requireKind(t, err, KindGameNotFound)

	_, err = h.engine.ReportGameResult(oracle, waiting, []Address{player(1)})
	requireKind(t, err, KindInvalidGameParameters)

	_, err = h.engine.ReportGameResult(oracle, active, nil)
	requireKind(t, err, KindInvalidGameParameters)

	_, err = h.engine.ReportGameResult(oracle, active, []Address{player(9)})
	requireKind(t, err, KindInvalidGameParameters)

	_, err = h.engine.ReportGameResult(oracle, active, []Address{player(1), player(1)})
	requireKind(t, err, KindInvalidGameParameters)

	assert.Equal(t, Amount(200), h.engine.TotalValueLocked())

	_, err = h.engine.ReportGameResult(oracle, active, []Address{player(2)})
	require.NoError(t, err)

	_, err = h.engine.ReportGameResult(oracle, active, []Address{player(2)})
	requireKind(t, err, KindInvalidGameParameters)
	assert.Equal(t, []Balance{{Token: usdc, Amount: 200}}, h.engine.GetPlayerBalances(player(2)))

	require.NoError(t, h.engine.CancelGame(creator, waiting, "no show"))
	_, err = h.engine.ReportGameResult(oracle, waiting, []Address{player(1)})
	requireKind(t, err, KindInvalidGameParameters)
}

func TestReportGameTimeout(t *testing.T) {
	h := newHarness(t)
	p := wta(100, 2, 0, 0)
	p.TimeLimit = time.Minute
	id := h.create(t, p)

	requireKind(t, h.engine.ReportGameTimeout(oracle, id), KindInvalidGameParameters)

	h.fill(t, id, 2)
	requireKind(t, h.engine.ReportGameTimeout(oracle, id), KindInvalidGameParameters)
	assert.True(t, IsUnauthorized(h.engine.ReportGameTimeout(admin, id)))

	h.clock.Advance(time.Minute)
	require.NoError(t, h.engine.ReportGameTimeout(oracle, id))

	g, _ := h.engine.GetGame(id)
	assert.Equal(t, StatusCancelled, g.Status)
	assert.Equal(t, ReasonTimeout, g.CancelReason)
	assert.Equal(t, []Balance{{Token: usdc, Amount: 100}}, h.engine.GetPlayerBalances(player(1)))
	assert.Zero(t, h.engine.TotalValueLocked())

	cancelled := h.sink.Named(EventGameCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, GameCancelled{GameID: id, Token: usdc, Reason: ReasonTimeout, Refunded: 200}, cancelled[0])

	requireKind(t, h.engine.ReportGameTimeout(oracle, id), KindInvalidGameParameters)
}

func TestCancelGameRefunds(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(10, 4, 0, 0))
	other := h.create(t, wta(10, 4, 0, 0))
	h.fill(t, id, 2)
	h.clock.Advance(10 * time.Second)
	require.NoError(t, h.engine.JoinGame(context.Background(), player(3), other, 0))
	require.Equal(t, Amount(30), h.engine.TotalValueLocked())

	requireKind(t, h.engine.CancelGame(player(1), id, "mine"), KindNotGameCreator)

	require.NoError(t, h.engine.CancelGame(creator, id, "changed my mind"))
	assert.Equal(t, []Balance{{Token: usdc, Amount: 10}}, h.engine.GetPlayerBalances(player(1)))
	assert.Equal(t, []Balance{{Token: usdc, Amount: 10}}, h.engine.GetPlayerBalances(player(2)))
	assert.Equal(t, Amount(10), h.engine.TotalValueLocked())

	g, _ := h.engine.GetGame(id)
	assert.Equal(t, StatusCancelled, g.Status)
	assert.Equal(t, "changed my mind", g.CancelReason)
	assert.Len(t, h.engine.GetWaitingGames(), 1)

	requireKind(t, h.engine.CancelGame(creator, id, "again"), KindInvalidGameParameters)

	// the emergency role may cancel games it did not create
	require.NoError(t, h.engine.CancelGame(admin, other, "ops"))
	assert.Zero(t, h.engine.TotalValueLocked())
}

func TestEmergencyRefund(t *testing.T) {
	h := newHarness(t)
	id := h.create(t, wta(100, 2, 0, 0))
	h.fill(t, id, 2)

	assert.True(t, IsUnauthorized(h.engine.EmergencyRefund(creator, id)))
	require.NoError(t, h.engine.EmergencyRefund(admin, id))

	g, _ := h.engine.GetGame(id)
	assert.Equal(t, StatusCancelled, g.Status)
	assert.Equal(t, ReasonEmergency, g.CancelReason)
	assert.Zero(t, h.engine.TotalValueLocked())

	actions := h.sink.Named(EventEmergencyAction)
	require.Len(t, actions, 1)
	assert.Equal(t, EmergencyAction{GameID: id, Action: "Refund", Caller: admin}, actions[0])

	requireKind(t, h.engine.EmergencyRefund(admin, id), KindInvalidGameParameters)
}

func TestPauseGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	id := h.create(t, wta(100, 2, 0, 0))
	require.NoError(t, h.engine.JoinGame(ctx, player(1), id, 0))

	assert.True(t, IsUnauthorized(h.engine.Pause(player(1))))
	require.NoError(t, h.engine.Pause(admin))
	assert.True(t, h.engine.Paused())

	_, err := h.engine.CreateGame(creator, wta(100, 2, 0, 0))
	requireKind(t, err, KindEnforcedPause)
	requireKind(t, h.engine.JoinGame(ctx, player(2), id, 0), KindEnforcedPause)

	require.NoError(t, h.engine.CancelGame(creator, id, "paused"))
	_, err = h.engine.WithdrawBalance(ctx, player(1), usdc)
	require.NoError(t, err)

	require.NoError(t, h.engine.Unpause(admin))
	assert.False(t, h.engine.Paused())
	_, err = h.engine.CreateGame(creator, wta(100, 2, 0, 0))
	require.NoError(t, err)

	assert.Len(t, h.sink.Named(EventEmergencyAction), 2)
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	checks := map[string]error{
		"addAllowedToken":        h.engine.AddAllowedToken(oracle, "DAI", 1),
		"removeAllowedToken":     h.engine.RemoveAllowedToken(oracle, usdc),
		"updateTokenLimit":       h.engine.UpdateTokenLimit(oracle, usdc, 1),
		"updateTVLLimits":        h.engine.UpdateTVLLimits(oracle, 1),
		"updateGameLimits":       h.engine.UpdateGameLimits(oracle, testLimits()),
		"grantRole":              h.engine.GrantRole(oracle, oracle, RoleAdmin),
		"emergencyTokenRecovery": h.engine.EmergencyTokenRecovery(ctx, oracle, usdc, oracle, 1),
	}
	for name, err := range checks {
		assert.Truef(t, IsUnauthorized(err), "%s: expected authorization error, got %v", name, err)
	}
	_, err := h.engine.WithdrawPlatformRevenue(ctx, oracle, usdc, oracle)
	assert.True(t, IsUnauthorized(err))
}

func TestTokenAdministration(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.AddAllowedToken(admin, "DAI", 500))
	assert.Equal(t, []TokenID{usdc, "DAI"}, h.engine.GetSupportedTokens())

	require.NoError(t, h.engine.UpdateTokenLimit(admin, "DAI", 900))
	cfg, ok := h.engine.GetTokenConfig("DAI")
	require.True(t, ok)
	assert.Equal(t, TokenConfig{Allowed: true, MaxTokenLimit: 900}, cfg)

	require.NoError(t, h.engine.RemoveAllowedToken(admin, "DAI"))
	assert.Equal(t, []TokenID{usdc}, h.engine.GetSupportedTokens())
	requireKind(t, h.engine.RemoveAllowedToken(admin, "DAI"), KindInvalidGameParameters)
	requireKind(t, h.engine.UpdateTokenLimit(admin, "WETH", 1), KindInvalidGameParameters)

	require.NoError(t, h.engine.UpdateTVLLimits(admin, 12345))
	assert.Equal(t, Amount(12345), h.engine.MaxTVLLimit())

	assert.Len(t, h.sink.Named(EventTokenAdded), 2)
	assert.Len(t, h.sink.Named(EventTokenRemoved), 1)
	assert.Len(t, h.sink.Named(EventLimitsUpdated), 2)
}

func TestUpdateGameLimits(t *testing.T) {
	h := newHarness(t)

	limits := GameLimits{
		MinEntryFee:              2_000_000,
		MaxEntryFee:              20_000_000_000,
		MinPlayers:               3,
		MaxPlayers:               20,
		MaxTimeLimit:             2 * time.Hour,
		MaxCreatorCommissionBps:  6000,
		MaxPlatformCommissionBps: 3000,
	}
	require.NoError(t, h.engine.UpdateGameLimits(admin, limits))
	assert.Equal(t, limits, h.engine.GetGameLimits())

	_, err := h.engine.CreateGame(creator, wta(2_000_000, 2, 0, 0))
	requireKind(t, err, KindInvalidGameParameters)

	bad := limits
	bad.MinPlayers = 1
	requireKind(t, h.engine.UpdateGameLimits(admin, bad), KindInvalidGameParameters)
	bad = limits
	bad.MaxCreatorCommissionBps = 8000
	requireKind(t, h.engine.UpdateGameLimits(admin, bad), KindInvalidCommission)
	assert.Equal(t, limits, h.engine.GetGameLimits())
}

func TestRoleManagement(t *testing.T) {
	h := newHarness(t)
	ops := Address("0xops")

	require.NoError(t, h.engine.GrantRole(admin, ops, RoleEmergency))
	assert.True(t, h.engine.HasRole(ops, RoleEmergency))
	require.NoError(t, h.engine.Pause(ops))

	require.NoError(t, h.engine.RevokeRole(admin, ops, RoleEmergency))
	assert.False(t, h.engine.HasRole(ops, RoleEmergency))
	assert.True(t, IsUnauthorized(h.engine.Unpause(ops)))

	require.NoError(t, h.engine.RevokeRole(admin, ops, RoleEmergency))
	assert.Len(t, h.sink.Named(EventRoleGranted), 1)
	assert.Len(t, h.sink.Named(EventRoleRevoked), 1)
}

func TestTVLMatchesOpenStakes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(o *Options) { o.Risk.JoinCooldown = 0 })

	a := h.create(t, wta(100, 2, 1000, 200))
	b := h.create(t, wta(50, 3, 0, 0))
	c := h.create(t, wta(70, 4, 0, 0))

	h.fill(t, a, 2)
	h.fill(t, b, 2)
	h.fill(t, c, 3)
	_, err := h.engine.ReportGameResult(oracle, a, []Address{player(1)})
	require.NoError(t, err)
	require.NoError(t, h.engine.JoinGame(ctx, player(3), b, 0))
	require.NoError(t, h.engine.CancelGame(creator, c, "dropped"))
	d := h.create(t, wta(25, 2, 0, 0))
	require.NoError(t, h.engine.JoinGame(ctx, player(4), d, 0))

	var open Amount
	for _, g := range append(h.engine.GetWaitingGames(), h.engine.GetActiveGames()...) {
		open += g.EntryFee * Amount(len(g.Players))
	}
	assert.Equal(t, open, h.engine.TotalValueLocked())
	assert.Equal(t, Amount(175), h.engine.TotalValueLocked())
}
