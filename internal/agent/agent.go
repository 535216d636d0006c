// Package agent provides the decision makers that sit in a game's seats: a person
// at a console, a language model, a uniform random player and a fixed script.
package agent

import (
	"fmt"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
	"go.uber.org/zap"
)

// Kind names an agent implementation in configuration.
type Kind string

const (
	KindHuman  Kind = "human"
	KindLLM    Kind = "llm"
	KindRandom Kind = "random"
)

// ParseKind accepts human, llm or random.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHuman, KindLLM, KindRandom:
		return k, nil
	default:
		return "", fmt.Errorf("unknown agent kind %q", s)
	}
}

// Deps are the shared resources agents are built from.
type Deps struct {
	Logger        *zap.Logger
	Console       *Console
	Generator     Generator
	HistoryRounds int
	// Seed for random agents; each seat gets Seed+seat so seats do not mirror each other.
	Seed int64
}

// New builds the agent of kind for seat.
func New(kind Kind, seat int, deps Deps) (engine.Agent, error) {
	switch kind {
	case KindHuman:
		if deps.Console == nil {
			return nil, fmt.Errorf("human agent requires a console")
		}
		return NewHuman(deps.Console, deps.HistoryRounds), nil
	case KindLLM:
		prompts, err := NewTemplatePrompts(deps.HistoryRounds)
		if err != nil {
			return nil, err
		}
		logger := deps.Logger
		if logger != nil {
			logger = logger.With(zap.Int("seat", seat))
		}
		return NewLLM(deps.Generator, logger, WithPromptBuilder(prompts))
	case KindRandom:
		seed := deps.Seed
		if seed != 0 {
			seed += int64(seat)
		}
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
}
