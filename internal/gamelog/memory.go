package gamelog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// GameLog is everything a MemoryStore holds about one game.
type GameLog struct {
	Game    GameRecord
	Turns   []TurnRecord
	Outcome *Outcome
}

// MemoryStore keeps logs in memory. It is used by tests and when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*GameLog
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*GameLog)}
}

func (m *MemoryStore) StartGame(_ context.Context, game GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[game.ID]; exists {
		return fmt.Errorf("game %s already logged", game.ID)
	}
	m.games[game.ID] = &GameLog{Game: game}
	return nil
}

func (m *MemoryStore) LogTurn(_ context.Context, turn TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, ok := m.games[turn.GameID]
	if !ok {
		return fmt.Errorf("game %s not found", turn.GameID)
	}
	log.Turns = append(log.Turns, turn)
	return nil
}

func (m *MemoryStore) EndGame(_ context.Context, gameID string, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	log.Outcome = &outcome
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Get returns a copy of the log of one game.
func (m *MemoryStore) Get(gameID string) (GameLog, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log, ok := m.games[gameID]
	if !ok {
		return GameLog{}, false
	}
	out := GameLog{Game: log.Game, Turns: append([]TurnRecord(nil), log.Turns...)}
	if log.Outcome != nil {
		o := *log.Outcome
		out.Outcome = &o
	}
	return out, true
}

// GameIDs lists logged games in sorted order.
func (m *MemoryStore) GameIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
