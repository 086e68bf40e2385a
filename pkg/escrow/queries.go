// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

// GetGame returns a copy of game id.
func (e *Engine) GetGame(id GameID) (Game, error) {
	rec, err := e.lookup("getGame", id)
	if err != nil {
		return Game{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.game.clone(), nil
}

// GetWaitingGames returns the games open for joining, oldest first.
func (e *Engine) GetWaitingGames() []Game {
	return e.registry.view(e.registry.waitingIDs())
}

// GetActiveGames returns the running games, in start order.
func (e *Engine) GetActiveGames() []Game {
	return e.registry.view(e.registry.activeIDs())
}

// GetCreatorGames returns every game created by creator.
func (e *Engine) GetCreatorGames(creator Address) []Game {
	return e.registry.view(e.registry.creatorIDs(creator))
}

// GameCount returns how many games were ever created.
func (e *Engine) GameCount() int {
	return e.registry.count()
}

// GetSupportedTokens returns the currently allowed tokens.
func (e *Engine) GetSupportedTokens() []TokenID {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.ledger.supported()
}

// GetTokenConfig returns the admission policy of token.
func (e *Engine) GetTokenConfig(token TokenID) (TokenConfig, bool) {
	e.admission.Lock()
	defer e.admission.Unlock()
	cfg, ok := e.ledger.tokens[token]
	if !ok {
		return TokenConfig{}, false
	}
	return *cfg, true
}

// GetPlayerBalances returns the non-zero withdrawable player balances of player.
func (e *Engine) GetPlayerBalances(player Address) []Balance {
	return e.ledger.balances(ClassPlayer, player)
}

// GetCreatorEarnings returns the non-zero creator balances of creator.
func (e *Engine) GetCreatorEarnings(creator Address) []Balance {
	return e.ledger.balances(ClassCreator, creator)
}

// GetPlatformRevenue returns the platform revenue held in token.
func (e *Engine) GetPlatformRevenue(token TokenID) Amount {
	return e.ledger.balance(ClassPlatform, platformAccount, token)
}

// TotalValueLocked returns the stake held across all non-terminal games.
func (e *Engine) TotalValueLocked() Amount {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.ledger.totalTVL
}

// TokenValueLocked returns the stake held in token.
func (e *Engine) TokenValueLocked(token TokenID) Amount {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.ledger.tokenTVL[token]
}

// MaxTVLLimit returns the global TVL cap.
func (e *Engine) MaxTVLLimit() Amount {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.ledger.maxTVL
}

// GetGameLimits returns the current game limits.
func (e *Engine) GetGameLimits() GameLimits {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.limits
}

// GetRiskState returns the admission state of player.
func (e *Engine) GetRiskState(player Address) RiskState {
	e.admission.Lock()
	defer e.admission.Unlock()
	return e.risk.get(player)
}

// Reputation returns the monotone reputation counter of player.
func (e *Engine) Reputation(player Address) uint64 {
	return e.GetRiskState(player).Reputation
}
