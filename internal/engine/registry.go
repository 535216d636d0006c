package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Factory returns a fresh, not yet set up game.
type Factory func() Game

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a game available by name. Games call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("engine: Register factory is nil for " + name)
	}
	if _, dup := registry[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	registry[name] = factory
}

// NewGame returns a fresh instance of a registered game.
func NewGame(name string) (Game, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, name)
	}
	return factory(), nil
}

// GameNames lists registered games in sorted order.
func GameNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
