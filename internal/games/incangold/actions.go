package incangold

import "github.com/turnforge/turnforge/internal/engine"

// Choices of the decide action.
const (
	Continue = "continue"
	Return   = "return"
)

// Decide commits an explorer to continue deeper or return to camp.
type Decide struct{}

func (Decide) Name() string { return "decide" }

func (Decide) Roles() []string { return nil }

func (Decide) Schema() engine.Schema {
	return engine.NewSchema(engine.EnumField("decision", "continue exploring or return to camp", Continue, Return))
}

// Validate locks the action to the decide phase and to explorers that have not decided.
func (Decide) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok {
		return false
	}
	s := g.state
	if s.IsOver() || s.Phase != PhaseDecide {
		return false
	}
	if !s.InTemple[p.Seat] || !s.Decisions.Eligible(p.Seat) || s.Decisions.Has(p.Seat) {
		return false
	}
	d := params.Text("decision")
	return d == Continue || d == Return
}

// Apply submits the decision and moves to reveal once everyone has committed.
func (d Decide) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	g.state.Decisions.Submit(p.Seat, params.Text("decision"))
	g.history.Add(d, p, params)
	if g.state.Decisions.Complete() {
		g.state.Phase = PhaseReveal
	}
}

// HistoryRecord keeps the choice itself private until the reveal; it only notes
// that the seat committed.
func (Decide) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	return engine.NewRecord("decide", p.Name)
}
