package engine

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ReasoningKey is the optional free-text rationale an agent may attach to a decision.
const ReasoningKey = "reasoning"

// Params are the action-specific values of a decision.
type Params map[string]any

// Int returns an integer param, 0 when absent.
func (p Params) Int(key string) int {
	return cast.ToInt(p[key])
}

// Text returns a string param, "" when absent.
func (p Params) Text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Bool returns a boolean param.
func (p Params) Bool(key string) bool {
	return cast.ToBool(p[key])
}

// Has reports whether key was supplied.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Clone copies the params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Decision is what an agent returns for one turn: an action name, its params and
// an optional rationale. It lives for a single turn.
type Decision struct {
	Action    string `yaml:"action"`
	Params    Params `yaml:"params"`
	Reasoning string `yaml:"reasoning,omitempty"`
}

// Action is one kind of move. Implementations hold no per-game data; everything
// they need comes from the game, the acting player and the params.
type Action interface {
	Name() string
	// Roles lists the roles allowed to take the action. Empty means every role.
	Roles() []string
	Schema() Schema
	// Validate is a side-effect free legality check over schema-checked params.
	Validate(g Game, p *Player, params Params) bool
	// Apply mutates state and appends exactly one history record. The runner only
	// calls it after Validate returned true for the same inputs.
	Apply(g Game, p *Player, params Params)
	// HistoryRecord projects the public facts of the move.
	HistoryRecord(p *Player, params Params) Record
}

// AllowedFor reports whether a role may take the action.
func AllowedFor(a Action, role string) bool {
	roles := a.Roles()
	if len(roles) == 0 || role == "" {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// ValidActions filters the game's actions by the player's role.
func ValidActions(g Game, p *Player) []Action {
	var out []Action
	for _, a := range g.Actions() {
		if AllowedFor(a, p.Role) {
			out = append(out, a)
		}
	}
	return out
}

// FindAction resolves a decision's action name for p. An empty name is accepted
// when exactly one action is open to the player.
func FindAction(g Game, p *Player, name string) (Action, error) {
	valid := ValidActions(g, p)
	name = strings.TrimSpace(name)

	if name == "" {
		if len(valid) == 1 {
			return valid[0], nil
		}
		return nil, &SchemaError{Reason: fmt.Sprintf("decision must name one of %s", actionNames(valid))}
	}
	for _, a := range valid {
		if strings.EqualFold(a.Name(), name) {
			return a, nil
		}
	}
	return nil, &SchemaError{Action: name, Reason: fmt.Sprintf("not available to %s; expected one of %s", p.Name, actionNames(valid))}
}

func actionNames(actions []Action) string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name())
	}
	return strings.Join(names, "|")
}
