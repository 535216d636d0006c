package codenames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnforge/turnforge/internal/engine"
)

// newGame lays out the first 25 default words in order: nine Red agents, eight Blue
// agents, seven civilians and the assassin last.
func newGame(t *testing.T) *Game {
	t.Helper()
	g := New()
	require.NoError(t, g.Setup(engine.Options{"seed": 5}))
	for i, c := range g.state.Cards {
		c.Word = DefaultWords[i]
		switch {
		case i < 9:
			c.Type = RedAgent
		case i < 17:
			c.Type = BlueAgent
		case i < 24:
			c.Type = Civilian
		default:
			c.Type = Assassin
		}
	}
	return g
}

func apply(t *testing.T, g *Game, a engine.Action, params engine.Params) {
	t.Helper()
	p := g.CurrentPlayer()
	require.NotNil(t, p)
	require.True(t, a.Validate(g, p, params), "%s %s by %s", a.Name(), params, p)
	a.Apply(g, p, params)
}

func TestSetupDealsBoard(t *testing.T) {
	g := New()
	require.NoError(t, g.Setup(engine.Options{"seed": 9}))

	counts := make(map[CardType]int)
	for _, c := range g.state.Cards {
		counts[c.Type]++
	}
	assert.Len(t, g.state.Cards, 25)
	assert.Equal(t, 9, counts[RedAgent])
	assert.Equal(t, 8, counts[BlueAgent])
	assert.Equal(t, 7, counts[Civilian])
	assert.Equal(t, 1, counts[Assassin])
	assert.Equal(t, "Red Spymaster", g.CurrentPlayer().Name)

	err := New().Setup(engine.Options{"words": []string{"a", "b"}})
	var setupErr *engine.SetupError
	assert.ErrorAs(t, err, &setupErr)
}

func TestSpymasterSeesCardTypes(t *testing.T) {
	g := newGame(t)
	spy := engine.FindPlayer(g, Red, Spymaster)
	ops := engine.FindPlayer(g, Red, Operatives)

	spyView := engine.View(g, spy)
	opsView := engine.View(g, ops)

	assert.Contains(t, spyView, "Ace (Red)")
	assert.Contains(t, spyView, "Machine (Assassin)")
	assert.Contains(t, opsView, "Ace")
	assert.NotContains(t, opsView, "(Red)")
	assert.NotContains(t, opsView, "Assassin")
	assert.NotContains(t, engine.PromptView(g.Board(), engine.ViewContext{Player: ops, State: g.State()}), "Civilian")
}

func TestRolesLimitActions(t *testing.T) {
	g := newGame(t)
	spy := engine.FindPlayer(g, Red, Spymaster)
	ops := engine.FindPlayer(g, Red, Operatives)

	names := func(p *engine.Player) []string {
		var out []string
		for _, a := range engine.ValidActions(g, p) {
			out = append(out, a.Name())
		}
		return out
	}
	assert.Equal(t, []string{"clue"}, names(spy))
	assert.Equal(t, []string{"guess", "pass"}, names(ops))
}

func TestClueValidation(t *testing.T) {
	g := newGame(t)
	spy := g.CurrentPlayer()

	assert.True(t, Clue{}.Validate(g, spy, engine.Params{"clue": "animal", "count": 2}))
	assert.False(t, Clue{}.Validate(g, spy, engine.Params{"clue": "two words", "count": 2}))
	assert.False(t, Clue{}.Validate(g, spy, engine.Params{"clue": "Ace", "count": 1}), "codename on board")
	assert.False(t, Clue{}.Validate(g, spy, engine.Params{"clue": "firework", "count": 1}), "contains a codename")
	assert.False(t, Clue{}.Validate(g, spy, engine.Params{"clue": "animal", "count": 0}))
}

func TestGuessesAllowOneMoreThanCount(t *testing.T) {
	g := newGame(t)
	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 1})
	require.Equal(t, 2, g.state.Guesses)
	require.Equal(t, "Red Operatives", g.CurrentPlayer().Name)

	apply(t, g, Guess{}, engine.Params{"codename": "ace"})
	assert.Equal(t, 1, g.state.Guesses)
	assert.Equal(t, 8, g.state.Remaining[Red])
	assert.Equal(t, Red, g.state.Team)

	apply(t, g, Guess{}, engine.Params{"codename": "Bar"})
	assert.Equal(t, Blue, g.state.Team)
	assert.Equal(t, "Blue Spymaster", g.CurrentPlayer().Name)

	rec, _ := g.history.Last()
	assert.Equal(t, "Red Operatives guess team=Red codename=Bar card_type=Red", rec.String())
}

func TestWrongGuessEndsTurn(t *testing.T) {
	g := newGame(t)
	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 3})
	apply(t, g, Guess{}, engine.Params{"codename": "Eagle"})

	assert.Equal(t, Blue, g.state.Team)
	assert.Equal(t, 0, g.state.Guesses)
	assert.Equal(t, 7, g.state.Remaining[Blue])
	assert.False(t, g.state.IsOver())

	apply(t, g, Clue{}, engine.Params{"clue": "metal", "count": 1})
	apply(t, g, Guess{}, engine.Params{"codename": "Jack"})
	assert.Equal(t, Red, g.state.Team)
	assert.Equal(t, 9, g.state.Remaining[Red])
}

func TestAssassinLoses(t *testing.T) {
	g := newGame(t)
	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 1})
	apply(t, g, Guess{}, engine.Params{"codename": "Machine"})

	assert.True(t, g.state.IsOver())
	assert.Equal(t, Blue, g.state.Winner())
	assert.Contains(t, engine.View(g, nil), "[Machine: Assassin]")
}

func TestLastAgentWins(t *testing.T) {
	g := newGame(t)
	for _, c := range g.state.Cards[:8] {
		c.Revealed = true
	}
	g.state.Remaining[Red] = 1

	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 1})
	apply(t, g, Guess{}, engine.Params{"codename": "Cross"})

	assert.True(t, g.state.IsOver())
	assert.Equal(t, Red, g.state.Winner())
}

func TestPassStartsRoundAfterBlue(t *testing.T) {
	g := newGame(t)
	rounds := len(g.history.Rounds())

	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 1})
	apply(t, g, Pass{}, engine.Params{})
	assert.Len(t, g.history.Rounds(), rounds)

	apply(t, g, Clue{}, engine.Params{"clue": "metal", "count": 1})
	apply(t, g, Pass{}, engine.Params{})
	assert.Len(t, g.history.Rounds(), rounds+1)
	assert.Equal(t, Red, g.state.Team)
}

func TestForfeitOtherTeamWins(t *testing.T) {
	g := newGame(t)
	g.Forfeit(engine.FindPlayer(g, Blue, Operatives))
	assert.Equal(t, Red, g.state.Winner())
}

func TestLegalDecisionsByRole(t *testing.T) {
	g := newGame(t)
	spy := engine.FindPlayer(g, Red, Spymaster)
	ops := engine.FindPlayer(g, Red, Operatives)

	assert.NotEmpty(t, g.LegalDecisions(spy))
	assert.Empty(t, g.LegalDecisions(ops))

	apply(t, g, Clue{}, engine.Params{"clue": "animal", "count": 1})
	assert.Len(t, g.LegalDecisions(ops), 26)
	assert.Empty(t, g.LegalDecisions(engine.FindPlayer(g, Blue, Operatives)))
}
