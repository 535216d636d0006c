package codenames

import (
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Clue is a Spymaster's one-word hint and the number of codenames it covers.
type Clue struct{}

func (Clue) Name() string { return "clue" }

func (Clue) Roles() []string { return []string{Spymaster} }

func (Clue) Schema() engine.Schema {
	return engine.NewSchema(
		engine.StringField("clue", "single-word clue that is not a codename on the board"),
		engine.IntField("count", "number of codenames the clue connects").Between(1, 9),
	)
}

// Validate refuses multi-word clues and clues naming or containing a hidden codename.
func (Clue) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok {
		return false
	}
	s := g.state
	if s.IsOver() || p.Team != s.Team || p.Role != Spymaster || s.Guesses > 0 {
		return false
	}
	clue := strings.TrimSpace(params.Text("clue"))
	if clue == "" || strings.ContainsAny(clue, " \t\n") {
		return false
	}
	count := params.Int("count")
	if count < 1 || count > 9 {
		return false
	}
	lower := strings.ToLower(clue)
	for _, c := range s.hidden() {
		if strings.Contains(lower, strings.ToLower(c.Word)) {
			return false
		}
	}
	return true
}

// Apply opens the guessing phase with one guess more than the clue count.
func (a Clue) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	s := g.state
	s.Clue = strings.TrimSpace(params.Text("clue"))
	s.ClueCount = params.Int("count")
	s.Guesses = s.ClueCount + 1
	g.history.Add(a, p, params)
}

func (Clue) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	return engine.NewRecord("clue", p.Name, "team", p.Team, "clue", strings.TrimSpace(params.Text("clue")), "count", params.Int("count"))
}

// Guess reveals a codename.
type Guess struct{}

func (Guess) Name() string { return "guess" }

func (Guess) Roles() []string { return []string{Operatives} }

func (Guess) Schema() engine.Schema {
	return engine.NewSchema(engine.StringField("codename", "hidden codename to reveal"))
}

func (Guess) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok {
		return false
	}
	s := g.state
	if s.IsOver() || p.Team != s.Team || p.Role != Operatives || s.Guesses <= 0 {
		return false
	}
	c := s.find(params.Text("codename"))
	return c != nil && !c.Revealed
}

// Apply reveals the card. The assassin loses the game for the guessing team,
// uncovering a team's last agent wins it for that team, and anything but an own
// agent ends the turn.
func (a Guess) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	s := g.state
	card := s.find(params.Text("codename"))
	card.Revealed = true

	recorded := params.Clone()
	recorded["codename"] = card.Word
	recorded["card_type"] = string(card.Type)
	g.history.Add(a, p, recorded)

	switch card.Type {
	case Assassin:
		s.Guesses = 0
		s.Finish(otherTeam(p.Team))
		return
	case RedAgent, BlueAgent:
		team := string(card.Type)
		s.Remaining[team]--
		if s.Remaining[team] == 0 {
			s.Guesses = 0
			s.Finish(team)
			return
		}
		if team == p.Team {
			s.Guesses--
			if s.Guesses == 0 {
				g.endTeamTurn()
			}
			return
		}
	}
	g.endTeamTurn()
}

func (Guess) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	return engine.NewRecord("guess", p.Name, "team", p.Team, "codename", params.Text("codename"), "card_type", params.Text("card_type"))
}

// Pass ends the team's guessing early.
type Pass struct{}

func (Pass) Name() string { return "pass" }

func (Pass) Roles() []string { return []string{Operatives} }

func (Pass) Schema() engine.Schema { return engine.NewSchema() }

func (Pass) Validate(eg engine.Game, p *engine.Player, _ engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok {
		return false
	}
	s := g.state
	return !s.IsOver() && p.Team == s.Team && p.Role == Operatives && s.Guesses > 0
}

func (a Pass) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	g.history.Add(a, p, params)
	g.endTeamTurn()
}

func (Pass) HistoryRecord(p *engine.Player, _ engine.Params) engine.Record {
	return engine.NewRecord("pass", p.Name, "team", p.Team)
}
