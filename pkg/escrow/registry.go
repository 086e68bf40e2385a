// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package escrow

import (
	"sync"
)

// gameRecord is a lockable game aggregate.
type gameRecord struct {
	mu   sync.Mutex
	game Game
}

// GameRegistry is the append-only game table with its secondary indices.
// Records are addressed by id; index lists are rewritten on every status change.
type GameRegistry struct {
	mu        sync.RWMutex
	games     []*gameRecord
	byCreator map[Address][]GameID
	waiting   []GameID
	active    []GameID
}

func newGameRegistry() *GameRegistry {
	return &GameRegistry{byCreator: make(map[Address][]GameID)}
}

// insert appends g, assigning the next id.
func (r *GameRegistry) insert(g Game) GameID {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = GameID(len(r.games) + 1)
	r.games = append(r.games, &gameRecord{game: g})
	r.byCreator[g.Creator] = append(r.byCreator[g.Creator], g.ID)
	r.waiting = append(r.waiting, g.ID)
	return g.ID
}

func (r *GameRegistry) record(id GameID) (*gameRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || int(id) > len(r.games) {
		return nil, false
	}
	return r.games[id-1], true
}

// move updates the status indices after a transition from one status to another.
func (r *GameRegistry) move(id GameID, from, to GameStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch from {
	case StatusWaiting:
		r.waiting = removeID(r.waiting, id)
	case StatusActive:
		r.active = removeID(r.active, id)
	}
	if to == StatusActive {
		r.active = append(r.active, id)
	}
}

func removeID(ids []GameID, id GameID) []GameID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *GameRegistry) waitingIDs() []GameID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]GameID(nil), r.waiting...)
}

func (r *GameRegistry) activeIDs() []GameID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]GameID(nil), r.active...)
}

func (r *GameRegistry) creatorIDs(creator Address) []GameID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]GameID(nil), r.byCreator[creator]...)
}

func (r *GameRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// view returns copies of the given games.
func (r *GameRegistry) view(ids []GameID) []Game {
	out := make([]Game, 0, len(ids))
	for _, id := range ids {
		rec, ok := r.record(id)
		if !ok {
			continue
		}
		rec.mu.Lock()
		out = append(out, rec.game.clone())
		rec.mu.Unlock()
	}
	return out
}

// restore rebuilds the table and indices from persisted games ordered by id.
func (r *GameRegistry) restore(games []Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = make([]*gameRecord, 0, len(games))
	r.byCreator = make(map[Address][]GameID)
	r.waiting = nil
	r.active = nil
	for _, g := range games {
		g := g.clone()
		if g.Mode == TeamBattle && g.PlayerTeam == nil {
			g.PlayerTeam = make(map[Address]int)
		}
		if g.Players == nil {
			g.Players = []Address{}
		}
		r.games = append(r.games, &gameRecord{game: g})
		r.byCreator[g.Creator] = append(r.byCreator[g.Creator], g.ID)
		switch g.Status {
		case StatusWaiting:
			r.waiting = append(r.waiting, g.ID)
		case StatusActive:
			r.active = append(r.active, g.ID)
		}
	}
}
