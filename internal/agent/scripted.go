package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/turnforge/turnforge/internal/engine"
)

// ErrScriptExhausted is returned once a Scripted agent has no decisions left.
var ErrScriptExhausted = errors.New("scripted agent has no decisions left")

// Scripted replays a fixed list of decisions in order.
type Scripted struct {
	mu        sync.Mutex
	decisions []engine.Decision
	calls     int
}

// NewScripted queues decisions.
func NewScripted(decisions ...engine.Decision) *Scripted {
	return &Scripted{decisions: decisions}
}

func (s *Scripted) GetAction(context.Context, engine.Turn) (engine.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.decisions) {
		s.calls++
		return engine.Decision{}, ErrScriptExhausted
	}
	d := s.decisions[s.calls]
	s.calls++
	return d, nil
}

// Calls returns how many times the agent was asked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
