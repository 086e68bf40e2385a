// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"math"
	"sort"
	"sync"
)

type cellKey struct {
	class   BalanceClass
	account Address
	token   TokenID
}

// cell is one independently locked ledger balance. nonce counts the drains
// that paid something out and names the next withdrawal from the cell.
type cell struct {
	mu     sync.Mutex
	amount Amount
	nonce  uint64
}

// TokenLedger holds token admission policy, TVL counters and the balance cells.
//
// tokens and the TVL counters are guarded by the engine's admission lock,
// not by the ledger itself, so a limit check and the increment that follows
// are one critical section with the rest of the join.
type TokenLedger struct {
	tokens     map[TokenID]*TokenConfig
	known      []TokenID
	tokenTVL   map[TokenID]Amount
	totalTVL   Amount
	maxTVL     Amount
	cellsMu    sync.Mutex
	cells      map[cellKey]*cell
	cellTokens map[Address]map[TokenID]struct{}
}

func newTokenLedger(maxTVL Amount) *TokenLedger {
	return &TokenLedger{
		tokens:     make(map[TokenID]*TokenConfig),
		tokenTVL:   make(map[TokenID]Amount),
		maxTVL:     maxTVL,
		cells:      make(map[cellKey]*cell),
		cellTokens: make(map[Address]map[TokenID]struct{}),
	}
}

func (l *TokenLedger) setToken(token TokenID, maxLimit Amount) {
	cfg, ok := l.tokens[token]
	if !ok {
		cfg = &TokenConfig{}
		l.tokens[token] = cfg
		l.known = append(l.known, token)
	}
	cfg.Allowed = true
	cfg.MaxTokenLimit = maxLimit
}

func (l *TokenLedger) allowed(token TokenID) bool {
	cfg, ok := l.tokens[token]
	return ok && cfg.Allowed
}

// supported returns allowed tokens in insertion order.
func (l *TokenLedger) supported() []TokenID {
	out := make([]TokenID, 0, len(l.known))
	for _, t := range l.known {
		if l.tokens[t].Allowed {
			out = append(out, t)
		}
	}
	return out
}

// admit reports whether fee more of token fits under both caps.
func (l *TokenLedger) admit(token TokenID, fee Amount) bool {
	cfg, ok := l.tokens[token]
	if !ok {
		return false
	}
	tokenTVL := l.tokenTVL[token]
	if tokenTVL > math.MaxUint64-fee || tokenTVL+fee > cfg.MaxTokenLimit {
		return false
	}
	if l.totalTVL > math.MaxUint64-fee || l.totalTVL+fee > l.maxTVL {
		return false
	}
	return true
}

func (l *TokenLedger) lock(token TokenID, amount Amount) {
	l.tokenTVL[token] += amount
	l.totalTVL += amount
}

func (l *TokenLedger) unlock(token TokenID, amount Amount) {
	l.tokenTVL[token] -= amount
	l.totalTVL -= amount
}

func (l *TokenLedger) getCell(class BalanceClass, account Address, token TokenID, create bool) *cell {
	l.cellsMu.Lock()
	defer l.cellsMu.Unlock()
	k := cellKey{class: class, account: account, token: token}
	c, ok := l.cells[k]
	if !ok && create {
		c = &cell{}
		l.cells[k] = c
		toks, ok := l.cellTokens[account]
		if !ok {
			toks = make(map[TokenID]struct{})
			l.cellTokens[account] = toks
		}
		toks[token] = struct{}{}
	}
	return c
}

// credit adds amount to a balance cell.
func (l *TokenLedger) credit(class BalanceClass, account Address, token TokenID, amount Amount) {
	if amount == 0 {
		return
	}
	c := l.getCell(class, account, token, true)
	c.mu.Lock()
	c.amount += amount
	c.mu.Unlock()
}

// drain zeroes a balance cell and returns what it held together with the
// nonce of this drain. The nonce only advances when amount is non-zero.
func (l *TokenLedger) drain(class BalanceClass, account Address, token TokenID) (Amount, uint64) {
	c := l.getCell(class, account, token, false)
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, nonce := c.amount, c.nonce
	if amount > 0 {
		c.amount = 0
		c.nonce++
	}
	return amount, nonce
}

func (l *TokenLedger) balance(class BalanceClass, account Address, token TokenID) Amount {
	c := l.getCell(class, account, token, false)
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amount
}

// balances returns the non-zero balances of one class for account, sorted by token.
func (l *TokenLedger) balances(class BalanceClass, account Address) []Balance {
	l.cellsMu.Lock()
	tokens := make([]TokenID, 0, len(l.cellTokens[account]))
	for t := range l.cellTokens[account] {
		tokens = append(tokens, t)
	}
	l.cellsMu.Unlock()
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })

	var out []Balance
	for _, t := range tokens {
		if amt := l.balance(class, account, t); amt > 0 {
			out = append(out, Balance{Token: t, Amount: amt})
		}
	}
	return out
}

// LedgerEntry is a persisted balance cell.
type LedgerEntry struct {
	Class   BalanceClass `json:"class"`
	Account Address      `json:"account"`
	Token   TokenID      `json:"token"`
	Amount  Amount       `json:"amount"`
	Nonce   uint64       `json:"nonce,omitempty"`
}

// restoreCell installs a persisted cell as is.
func (l *TokenLedger) restoreCell(b LedgerEntry) {
	c := l.getCell(b.Class, b.Account, b.Token, true)
	c.mu.Lock()
	c.amount = b.Amount
	c.nonce = b.Nonce
	c.mu.Unlock()
}

func (l *TokenLedger) exportCells() []LedgerEntry {
	l.cellsMu.Lock()
	defer l.cellsMu.Unlock()
	out := make([]LedgerEntry, 0, len(l.cells))
	for k, c := range l.cells {
		c.mu.Lock()
		amt, nonce := c.amount, c.nonce
		c.mu.Unlock()
		// drained cells are kept for their nonce
		if amt == 0 && nonce == 0 {
			continue
		}
		out = append(out, LedgerEntry{Class: k.class, Account: k.account, Token: k.token, Amount: amt, Nonce: nonce})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Token < out[j].Token
	})
	return out
}
