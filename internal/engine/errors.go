package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrGameOver is returned when an operation requires a game still in progress.
	ErrGameOver = errors.New("game is over")
	// ErrDecisionTimeout marks an agent that did not answer within the decision timeout.
	ErrDecisionTimeout = errors.New("decision timed out")
	// ErrUnknownGame is returned by NewGame for names nobody registered.
	ErrUnknownGame = errors.New("unknown game")
	// ErrNoCurrentPlayer marks a game that is not over, names nobody to decide and
	// has no automatic step to take.
	ErrNoCurrentPlayer = errors.New("no current player")
)

// SchemaError reports a decision whose shape does not match the action's schema.
type SchemaError struct {
	Action string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error for action %q: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("schema error for action %q field %q: %s", e.Action, e.Field, e.Reason)
}

// RuleViolation reports a well-formed decision that Validate rejected.
type RuleViolation struct {
	Action string
	Player string
	Params Params
}

func (e *RuleViolation) Error() string {
	return fmt.Sprintf("illegal %s by %s: %s", e.Action, e.Player, e.Params)
}

// RetryBoundExceededError ends a game after a seat kept producing invalid decisions.
type RetryBoundExceededError struct {
	Player   string
	Attempts int
	Last     error
}

func (e *RetryBoundExceededError) Error() string {
	return fmt.Sprintf("player %s exceeded retry bound after %d invalid decisions: %v", e.Player, e.Attempts, e.Last)
}

func (e *RetryBoundExceededError) Unwrap() error { return e.Last }

// SetupError reports every problem found in a game configuration.
type SetupError struct {
	Game string
	Err  error
}

func (e *SetupError) Error() string {
	problems := multierr.Errors(e.Err)
	msgs := make([]string, 0, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Sprintf("invalid %s setup: %s", e.Game, strings.Join(msgs, "; "))
}

func (e *SetupError) Unwrap() error { return e.Err }

// Problems returns the individual setup problems.
func (e *SetupError) Problems() []error {
	return multierr.Errors(e.Err)
}

// NewSetupError combines problems into a SetupError, or returns nil if there are none.
func NewSetupError(game string, problems ...error) error {
	combined := multierr.Combine(problems...)
	if combined == nil {
		return nil
	}
	return &SetupError{Game: game, Err: combined}
}

// InvariantViolation is a defect in a game implementation. It is raised with panic.
type InvariantViolation struct {
	What string
	// Err optionally classifies the defect, e.g. ErrNoCurrentPlayer.
	Err error
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.What
}

func (e *InvariantViolation) Unwrap() error { return e.Err }

// Invariant panics with an InvariantViolation.
func Invariant(format string, args ...any) {
	panic(&InvariantViolation{What: fmt.Sprintf(format, args...)})
}

// String renders params with sorted keys so log lines and errors are stable.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
