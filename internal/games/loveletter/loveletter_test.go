package loveletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnforge/turnforge/internal/engine"
)

func newGame(t *testing.T, players int) *Game {
	t.Helper()
	g := New()
	require.NoError(t, g.Setup(engine.Options{"players": players, "seed": 3}))
	return g
}

// deal replaces every hand, clears the public piles and stacks the deck with
// Guards so views and draws are predictable.
func deal(g *Game, current int, hands ...[]CardType) {
	s := g.state
	s.Current = current
	s.FaceUp = nil
	s.Deck = nil
	for i := 0; i < 5; i++ {
		s.Deck = append(s.Deck, Card{ID: 200 + i, Type: Guard})
	}
	for seat, types := range hands {
		s.Hands[seat] = nil
		s.Discards[seat] = nil
		for i, ct := range types {
			s.Hands[seat] = append(s.Hands[seat], Card{ID: 100 + seat*10 + i, Type: ct})
		}
	}
}

func play(t *testing.T, g *Game, params engine.Params) {
	t.Helper()
	p := g.CurrentPlayer()
	require.NotNil(t, p)
	require.True(t, PlayCard{}.Validate(g, p, params), "%s plays %s", p, params)
	PlayCard{}.Apply(g, p, params)
}

func TestSetupDealsByPlayerCount(t *testing.T) {
	g := newGame(t, 2)
	s := g.state

	assert.Equal(t, 7, s.Target)
	assert.Len(t, s.FaceUp, 3)
	assert.Len(t, s.SetAside, 1)
	assert.Len(t, s.Deck, 9)
	assert.Len(t, s.Hands[s.Current], 2)
	assert.Len(t, s.Hands[1-s.Current], 1)

	g4 := newGame(t, 4)
	assert.Equal(t, 4, g4.state.Target)
	assert.Empty(t, g4.state.FaceUp)

	err := New().Setup(engine.Options{"players": 5})
	var setupErr *engine.SetupError
	assert.ErrorAs(t, err, &setupErr)
}

func TestOwnHandVisibleOthersHidden(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Guard, Princess}, []CardType{Countess}, []CardType{Baron})

	own := engine.View(g, g.players[0])
	assert.Contains(t, own, "Hand: Guard, Princess")
	assert.Contains(t, own, "Hand: 1 card(s), face down")

	other := engine.View(g, g.players[1])
	assert.Contains(t, other, "Hand: Countess")
	assert.Contains(t, other, "Hand: 2 card(s), face down")
	assert.NotContains(t, other, "Princess")
	assert.NotContains(t, other, "Baron")

	spectator := engine.View(g, nil)
	assert.NotContains(t, spectator, "Countess")
}

func TestGuardCorrectGuessEliminates(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Guard, Baron}, []CardType{Countess}, []CardType{Priest})

	play(t, g, engine.Params{"card": "Guard", "target": 2, "guess": "Countess"})

	assert.True(t, g.state.Eliminated[1])
	assert.Equal(t, 2, g.state.Current, "turn skips the eliminated seat")

	rec, ok := g.history.Last()
	require.True(t, ok)
	assert.Equal(t, "Player 1 play_card card=Guard target=2 guess=Countess correct=true eliminated=Player 2", rec.String())
}

func TestGuardRequiresTargetAndGuess(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Guard, Baron}, []CardType{Countess}, []CardType{Priest})
	p := g.players[0]

	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Guard"}))
	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Guard", "target": 2}))
	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Guard", "target": 1, "guess": "Baron"}), "self target")
	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Princess"}), "not in hand")
}

func TestCountessRule(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Countess, King}, []CardType{Guard}, []CardType{Priest})
	p := g.players[0]

	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "King", "target": 2}))
	assert.True(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Countess"}))
}

func TestPriestKnowledgeIsPrivate(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Priest, Guard}, []CardType{Handmaid}, []CardType{Baron})

	play(t, g, engine.Params{"card": "Priest", "target": 3})

	assert.Contains(t, engine.View(g, g.players[0]), "You know they hold: Baron")
	assert.NotContains(t, engine.View(g, g.players[1]), "Baron")

	rec, _ := g.history.Last()
	assert.NotContains(t, rec.String(), "Baron")
}

func TestHandmaidProtects(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Handmaid, Guard}, []CardType{Priest}, []CardType{Baron})

	play(t, g, engine.Params{"card": "Handmaid"})
	require.True(t, g.state.Protected[0])
	assert.Equal(t, []int{2}, g.state.Targetable(1))

	p := g.CurrentPlayer()
	require.Equal(t, 1, p.Seat)
	assert.False(t, PlayCard{}.Validate(g, p, engine.Params{"card": "Guard", "target": 1, "guess": "Baron"}))
}

func TestPrinceOnPrincessEliminates(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Prince, Guard}, []CardType{Princess}, []CardType{Baron})

	play(t, g, engine.Params{"card": "Prince", "target": 2})
	assert.True(t, g.state.Eliminated[1])

	rec, _ := g.history.Last()
	assert.Equal(t, "Player 1 play_card card=Prince target=2 discarded=Princess eliminated=Player 2", rec.String())
}

func TestBaronComparesHands(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Baron, King}, []CardType{Priest}, []CardType{Guard})

	play(t, g, engine.Params{"card": "Baron", "target": 2})
	assert.True(t, g.state.Eliminated[1])
	assert.False(t, g.state.Eliminated[0])
}

func TestKingTradesAndBothKnow(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{King, Guard}, []CardType{Countess}, []CardType{Priest})

	play(t, g, engine.Params{"card": "King", "target": 2})

	assert.Equal(t, Countess, g.state.Hands[0][0].Type)
	assert.Equal(t, Guard, g.state.Hands[1][0].Type)
	assert.Equal(t, Guard, g.state.Known[0][1])
	assert.Equal(t, Countess, g.state.Known[1][0])
}

func TestRoundWinnerStartsNextRound(t *testing.T) {
	g := newGame(t, 2)
	deal(g, 1, []CardType{Priest}, []CardType{Guard, Baron})

	play(t, g, engine.Params{"card": "Guard", "target": 1, "guess": "Priest"})

	s := g.state
	require.True(t, s.RoundOver)
	assert.Equal(t, 1, s.RoundWinner)
	assert.Equal(t, 1, s.Tokens[1])
	assert.Nil(t, g.CurrentPlayer())

	rec, _ := g.history.Last()
	v, ok := rec.Get("round_winner")
	require.True(t, ok)
	assert.Equal(t, "Player 2", v)

	rounds := len(g.history.Rounds())
	g.Step()
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, 1, s.Current)
	assert.False(t, s.RoundOver)
	assert.Len(t, g.history.Rounds(), rounds+1)
}

func TestEmptyDeckHighestCardWins(t *testing.T) {
	g := newGame(t, 3)
	deal(g, 0, []CardType{Handmaid, Guard}, []CardType{King}, []CardType{Priest})
	g.state.Deck = nil

	play(t, g, engine.Params{"card": "Handmaid"})

	assert.True(t, g.state.RoundOver)
	assert.Equal(t, 1, g.state.RoundWinner)
	assert.Equal(t, 1, g.state.Tokens[1])
}

func TestForfeitMostTokensWins(t *testing.T) {
	g := newGame(t, 3)
	g.state.Tokens[1] = 2
	g.state.Tokens[2] = 1

	g.Forfeit(g.players[0])
	assert.True(t, g.state.IsOver())
	assert.Equal(t, "Player 2", g.state.Winner())
}

func TestLegalDecisionsAreValid(t *testing.T) {
	g := newGame(t, 4)
	p := g.CurrentPlayer()
	moves := g.LegalDecisions(p)
	require.NotEmpty(t, moves)
	for _, d := range moves {
		params, err := PlayCard{}.Schema().Coerce("play_card", d.Params)
		require.NoError(t, err)
		assert.True(t, PlayCard{}.Validate(g, p, params))
	}
}
