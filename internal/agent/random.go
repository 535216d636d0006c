package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/turnforge/turnforge/internal/engine"
)

// Random picks uniformly among the legal decisions a game enumerates.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random agent. A zero seed picks one from the clock.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) GetAction(_ context.Context, turn engine.Turn) (engine.Decision, error) {
	lister, ok := turn.Game.(engine.MoveLister)
	if !ok {
		return engine.Decision{}, fmt.Errorf("%s does not enumerate legal moves", turn.Game.Name())
	}
	moves := lister.LegalDecisions(turn.Player)
	if len(moves) == 0 {
		return engine.Decision{}, fmt.Errorf("no legal moves for %s", turn.Player.Name)
	}

	r.mu.Lock()
	i := r.rng.Intn(len(moves))
	r.mu.Unlock()
	return moves[i], nil
}
