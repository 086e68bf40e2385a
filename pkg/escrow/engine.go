// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// platformAccount keys the platform revenue cells.
const platformAccount Address = ""

// Transfer is an instruction to the custodian to move funds out of escrow.
type Transfer struct {
	IdempotencyKey string       `json:"idempotencyKey"`
	Class          BalanceClass `json:"class"`
	From           Address      `json:"from,omitempty"`
	To             Address      `json:"to"`
	Token          TokenID      `json:"token"`
	Amount         Amount       `json:"amount"`
	Reason         string       `json:"reason"`
}

// Collection is one stake pulled from a player into escrow.
type Collection struct {
	IdempotencyKey string  `json:"idempotencyKey"`
	GameID         GameID  `json:"gameId"`
	From           Address `json:"from"`
	Token          TokenID `json:"token"`
	Amount         Amount  `json:"amount"`
}

// collectionKey names the stake of player in g. CreatedAt tells apart games
// that reuse an id after a restore.
func collectionKey(g *Game, player Address) string {
	return fmt.Sprintf("collect/%d/%d/%s", g.ID, g.CreatedAt.UnixNano(), player)
}

// Custodian performs the actual token movement. The ledger is the source of
// truth for entitlement; the custodian is the source of truth for custody.
type Custodian interface {
	// Collect pulls a stake from a player into escrow. Collect runs under
	// the admission lock and must return promptly.
	Collect(ctx context.Context, c Collection) error
	// Transfer pushes funds out of escrow. Implementations of both methods
	// must treat IdempotencyKey as a deduplication key.
	Transfer(ctx context.Context, t Transfer) error
}

type nopCustodian struct{}

func (nopCustodian) Collect(context.Context, Collection) error { return nil }
func (nopCustodian) Transfer(context.Context, Transfer) error  { return nil }

// Options configures an Engine.
type Options struct {
	// MaxTVL is the global value-locked cap across all tokens.
	MaxTVL Amount
	// Limits overrides DefaultGameLimits when non-nil.
	Limits *GameLimits
	Risk   RiskPolicy
	Sink   EventSink
	// Custodian defaults to an accounting-only custodian that moves nothing.
	Custodian Custodian
	// Now defaults to time.Now.
	Now func() time.Time
	// NewKey generates the idempotency keys of emergency recoveries; defaults
	// to random UUIDs. Withdrawals and stake collections derive theirs.
	NewKey func() string
}

// Engine is the escrow and settlement engine.
//
// Locks are always taken in this order: stateMu (read) → game → admission → ledger cell.
// stateMu is only taken for writing by Snapshot and Restore.
type Engine struct {
	stateMu   sync.RWMutex
	admission sync.Mutex

	registry *GameRegistry
	ledger   *TokenLedger
	risk     *RiskControls
	access   *AccessControl
	limits   GameLimits
	paused   atomic.Bool

	sink      EventSink
	custodian Custodian
	now       func() time.Time
	newKey    func() string
}

// New creates an engine. admin receives the Admin and Emergency roles and
// oracle receives the Oracle role.
func New(admin, oracle Address, opts Options) *Engine {
	e := &Engine{
		registry:  newGameRegistry(),
		ledger:    newTokenLedger(opts.MaxTVL),
		risk:      newRiskControls(opts.Risk),
		access:    newAccessControl(),
		limits:    DefaultGameLimits(),
		sink:      opts.Sink,
		custodian: opts.Custodian,
		now:       opts.Now,
		newKey:    opts.NewKey,
	}
	if opts.Limits != nil {
		e.limits = *opts.Limits
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	if e.custodian == nil {
		e.custodian = nopCustodian{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newKey == nil {
		e.newKey = newIdempotencyKey
	}

	if admin != "" {
		e.access.grant(admin, RoleAdmin)
		e.access.grant(admin, RoleEmergency)
	}
	if oracle != "" {
		e.access.grant(oracle, RoleOracle)
	}

	logrus.Infof("escrow engine initialized: admin=%s oracle=%s maxTVL=%d", admin, oracle, opts.MaxTVL)
	return e
}

func (e *Engine) emit(ev Event) {
	e.sink.Emit(ev)
}

func (e *Engine) lookup(op string, id GameID) (*gameRecord, error) {
	rec, ok := e.registry.record(id)
	if !ok {
		return nil, newError(KindGameNotFound, op, "game %d", id)
	}
	return rec, nil
}

// CreateGame validates p against the current limits and opens a Waiting game
// owned by caller.
func (e *Engine) CreateGame(caller Address, p GameParams) (GameID, error) {
	const op = "createGame"
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	if e.paused.Load() {
		return 0, newError(KindEnforcedPause, op, "engine is paused")
	}

	e.admission.Lock()
	defer e.admission.Unlock()

	if err := validateParams(op, p, e.limits); err != nil {
		logrus.Warnf("create game rejected for %s: %v", caller, err)
		return 0, err
	}
	if !e.ledger.allowed(p.Token) {
		return 0, newError(KindInvalidGameParameters, op, "token %s is not allowed", p.Token)
	}

	g := Game{
		Creator:     caller,
		Token:       p.Token,
		Mode:        p.Mode,
		EntryFee:    p.EntryFee,
		MaxPlayers:  p.MaxPlayers,
		NumTeams:    p.NumTeams,
		TimeLimit:   p.TimeLimit,
		CreatorBps:  p.CreatorBps,
		PlatformBps: p.PlatformBps,
		Status:      StatusWaiting,
		Players:     []Address{},
		CreatedAt:   e.now(),
	}
	if p.Mode == TeamBattle {
		g.PlayerTeam = make(map[Address]int)
	} else {
		g.NumTeams = 0
	}
	id := e.registry.insert(g)

	logrus.Infof("game created: gameId=%d creator=%s token=%s mode=%s entryFee=%d maxPlayers=%d",
		id, caller, p.Token, p.Mode, p.EntryFee, p.MaxPlayers)
	e.emit(GameCreated{
		GameID:     id,
		Creator:    caller,
		Token:      p.Token,
		Mode:       p.Mode,
		EntryFee:   p.EntryFee,
		MaxPlayers: p.MaxPlayers,
		CreatorBps: p.CreatorBps,
	})
	return id, nil
}

func validateParams(op string, p GameParams, l GameLimits) error {
	if p.EntryFee < l.MinEntryFee || p.EntryFee > l.MaxEntryFee {
		return newError(KindInvalidGameParameters, op, "entry fee %d outside %d..%d", p.EntryFee, l.MinEntryFee, l.MaxEntryFee)
	}
	if p.MaxPlayers < l.MinPlayers || p.MaxPlayers > l.MaxPlayers {
		return newError(KindInvalidGameParameters, op, "max players %d outside %d..%d", p.MaxPlayers, l.MinPlayers, l.MaxPlayers)
	}
	if p.TimeLimit <= 0 || p.TimeLimit > l.MaxTimeLimit {
		return newError(KindInvalidGameParameters, op, "time limit %v outside (0, %v]", p.TimeLimit, l.MaxTimeLimit)
	}
	if uint64(p.CreatorBps)+uint64(p.PlatformBps) >= BpsDenominator {
		return newError(KindInvalidCommission, op, "commission %d+%d bps", p.CreatorBps, p.PlatformBps)
	}
	if p.CreatorBps > l.MaxCreatorCommissionBps || p.PlatformBps > l.MaxPlatformCommissionBps {
		return newError(KindInvalidCommission, op, "commission %d/%d bps above caps %d/%d",
			p.CreatorBps, p.PlatformBps, l.MaxCreatorCommissionBps, l.MaxPlatformCommissionBps)
	}
	switch p.Mode {
	case WinnerTakesAll:
	case TeamBattle:
		if p.NumTeams < 2 || p.MaxPlayers%p.NumTeams != 0 {
			return newError(KindInvalidGameParameters, op, "%d players cannot form %d teams", p.MaxPlayers, p.NumTeams)
		}
	default:
		return newError(KindInvalidGameParameters, op, "unknown mode %d", p.Mode)
	}
	return nil
}

// JoinGame seats caller in a Waiting game, collecting the entry fee through
// the custodian. The join that fills the roster starts the game.
func (e *Engine) JoinGame(ctx context.Context, caller Address, id GameID, team int) error {
	const op = "joinGame"
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	if e.paused.Load() {
		return newError(KindEnforcedPause, op, "engine is paused")
	}
	rec, err := e.lookup(op, id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	g := &rec.game

	if g.Status != StatusWaiting || g.Full() {
		return newError(KindInvalidGameParameters, op, "game %d is %s", id, g.Status)
	}
	if g.Mode == TeamBattle {
		if team < 0 || team >= g.NumTeams {
			return newError(KindInvalidTeam, op, "team %d of %d", team, g.NumTeams)
		}
	} else {
		team = 0
	}
	if g.HasPlayer(caller) {
		return newError(KindPlayerAlreadyJoined, op, "player %s in game %d", caller, id)
	}

	e.admission.Lock()
	defer e.admission.Unlock()

	now := e.now()
	if err := e.risk.check(op, caller, now); err != nil {
		return err
	}
	if !e.ledger.admit(g.Token, g.EntryFee) {
		logrus.Warnf("join rejected by circuit breaker: gameId=%d token=%s tokenTVL=%d totalTVL=%d fee=%d",
			id, g.Token, e.ledger.tokenTVL[g.Token], e.ledger.totalTVL, g.EntryFee)
		return newError(KindExceedsLimit, op, "locking %d %s exceeds TVL limits", g.EntryFee, g.Token)
	}
	stake := Collection{
		IdempotencyKey: collectionKey(g, caller),
		GameID:         id,
		From:           caller,
		Token:          g.Token,
		Amount:         g.EntryFee,
	}
	if err := e.custodian.Collect(ctx, stake); err != nil {
		logrus.Errorf("failed to collect stake: key=%s gameId=%d player=%s: %v", stake.IdempotencyKey, id, caller, err)
		return err
	}

	g.Players = append(g.Players, caller)
	if g.Mode == TeamBattle {
		g.PlayerTeam[caller] = team
	}
	g.PrizePool += g.EntryFee
	e.ledger.lock(g.Token, g.EntryFee)
	e.risk.recordJoin(caller, now)

	started := false
	if g.Full() {
		g.Status = StatusActive
		g.StartedAt = now
		e.registry.move(id, StatusWaiting, StatusActive)
		started = true
	}

	logrus.Infof("player joined: gameId=%d player=%s team=%d players=%d/%d",
		id, caller, team, len(g.Players), g.MaxPlayers)
	e.emit(PlayerJoined{GameID: id, Player: caller, Team: team})
	if started {
		logrus.Infof("game started: gameId=%d prizePool=%d", id, g.PrizePool)
		e.emit(GameStarted{GameID: id, StartedAt: now})
	}
	return nil
}

// ReportGameResult settles an Active game among winners. Oracle only.
func (e *Engine) ReportGameResult(caller Address, id GameID, winners []Address) (Split, error) {
	const op = "reportGameResult"
	if err := e.access.require(op, caller, RoleOracle); err != nil {
		return Split{}, err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	rec, err := e.lookup(op, id)
	if err != nil {
		return Split{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	g := &rec.game

	if g.Status != StatusActive {
		return Split{}, newError(KindInvalidGameParameters, op, "game %d is %s", id, g.Status)
	}
	if err := validateWinners(op, g, winners); err != nil {
		return Split{}, err
	}

	e.admission.Lock()
	split := e.settle(g, winners)
	e.admission.Unlock()

	g.Winners = append([]Address(nil), winners...)
	g.Status = StatusFinished
	g.EndedAt = e.now()
	e.registry.move(id, StatusActive, StatusFinished)

	logrus.Infof("game finished: gameId=%d winners=%v perWinner=%d creatorCut=%d platformCut=%d dust=%d",
		id, winners, split.PerWinner, split.CreatorCut, split.PlatformCut, split.Dust)
	e.emit(GameFinished{
		GameID:       id,
		Token:        g.Token,
		Winners:      append([]Address(nil), winners...),
		PerWinner:    split.PerWinner,
		WinnerAmount: split.WinnerAmount,
		CreatorCut:   split.CreatorCut,
		PlatformCut:  split.PlatformCut,
		Dust:         split.Dust,
	})
	return split, nil
}

// ReportGameTimeout cancels an Active game whose time limit has elapsed. Oracle only.
func (e *Engine) ReportGameTimeout(caller Address, id GameID) error {
	const op = "reportGameTimeout"
	if err := e.access.require(op, caller, RoleOracle); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	rec, err := e.lookup(op, id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	g := &rec.game

	if g.Status != StatusActive {
		return newError(KindInvalidGameParameters, op, "game %d is %s", id, g.Status)
	}
	if now := e.now(); now.Before(g.Deadline()) {
		return newError(KindInvalidGameParameters, op, "game %d runs until %v", id, g.Deadline())
	}
	e.cancelLocked(g, ReasonTimeout)
	return nil
}

// CancelGame cancels a Waiting or Active game and refunds every player.
// Only the creator or a holder of the Emergency role may cancel.
func (e *Engine) CancelGame(caller Address, id GameID, reason string) error {
	const op = "cancelGame"
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	rec, err := e.lookup(op, id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	g := &rec.game

	if g.Creator != caller && !e.access.HasRole(caller, RoleEmergency) {
		return newError(KindNotGameCreator, op, "%s did not create game %d", caller, id)
	}
	if g.Status.Terminal() {
		return newError(KindInvalidGameParameters, op, "game %d is %s", id, g.Status)
	}
	e.cancelLocked(g, reason)
	return nil
}

// EmergencyRefund cancels any non-terminal game and refunds its players. Emergency only.
func (e *Engine) EmergencyRefund(caller Address, id GameID) error {
	const op = "emergencyRefund"
	if err := e.access.require(op, caller, RoleEmergency); err != nil {
		return err
	}
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	rec, err := e.lookup(op, id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	g := &rec.game

	if g.Status.Terminal() {
		return newError(KindInvalidGameParameters, op, "game %d is %s", id, g.Status)
	}
	e.cancelLocked(g, ReasonEmergency)
	logrus.Warnf("emergency refund: gameId=%d caller=%s", id, caller)
	e.emit(EmergencyAction{GameID: id, Action: "Refund", Caller: caller})
	return nil
}

// cancelLocked refunds and terminates g. The game lock must be held.
func (e *Engine) cancelLocked(g *Game, reason string) {
	from := g.Status

	e.admission.Lock()
	refunded := e.refund(g)
	e.admission.Unlock()

	g.Status = StatusCancelled
	g.CancelReason = reason
	g.EndedAt = e.now()
	e.registry.move(g.ID, from, StatusCancelled)

	logrus.Infof("game cancelled: gameId=%d reason=%q refunded=%d players=%d", g.ID, reason, refunded, len(g.Players))
	e.emit(GameCancelled{GameID: g.ID, Token: g.Token, Reason: reason, Refunded: refunded})
}

// Pause blocks game creation and joins. Admin or Emergency.
func (e *Engine) Pause(caller Address) error {
	if err := e.access.require("pause", caller, RoleEmergency, RoleAdmin); err != nil {
		return err
	}
	if e.paused.CompareAndSwap(false, true) {
		logrus.Warnf("engine paused by %s", caller)
		e.emit(EmergencyAction{Action: "Pause", Caller: caller})
	}
	return nil
}

// Unpause lifts the pause gate. Admin or Emergency.
func (e *Engine) Unpause(caller Address) error {
	if err := e.access.require("unpause", caller, RoleEmergency, RoleAdmin); err != nil {
		return err
	}
	if e.paused.CompareAndSwap(true, false) {
		logrus.Infof("engine unpaused by %s", caller)
		e.emit(EmergencyAction{Action: "Unpause", Caller: caller})
	}
	return nil
}

// Paused reports whether the pause gate is closed.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// GrantRole gives account a role. Admin only.
func (e *Engine) GrantRole(caller, account Address, role Role) error {
	if err := e.access.require("grantRole", caller, RoleAdmin); err != nil {
		return err
	}
	if e.access.grant(account, role) {
		logrus.Infof("role %s granted to %s by %s", role, account, caller)
		e.emit(RoleGranted{Account: account, Role: role, Caller: caller})
	}
	return nil
}

// RevokeRole removes a role from account. Admin only.
func (e *Engine) RevokeRole(caller, account Address, role Role) error {
	if err := e.access.require("revokeRole", caller, RoleAdmin); err != nil {
		return err
	}
	if e.access.revoke(account, role) {
		logrus.Infof("role %s revoked from %s by %s", role, account, caller)
		e.emit(RoleRevoked{Account: account, Role: role, Caller: caller})
	}
	return nil
}

// HasRole reports whether account holds role.
func (e *Engine) HasRole(account Address, role Role) bool {
	return e.access.HasRole(account, role)
}

// Roles lists the roles held by account.
func (e *Engine) Roles(account Address) []Role {
	return e.access.Roles(account)
}
