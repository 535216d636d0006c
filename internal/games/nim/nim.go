// Package nim is normal-play Nim: players alternately take objects from one pile,
// and whoever takes the last object wins.
package nim

import (
	"fmt"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Name is the registry name of the game.
const Name = "nim"

// DefaultPiles is the opening position when no "piles" option is given.
var DefaultPiles = []int{3, 5, 7}

func init() {
	engine.Register(Name, func() engine.Game { return New() })
}

// State holds the pile sizes and the seat to move.
type State struct {
	engine.Status
	Piles   []int
	Current int
}

func (s *State) empty() bool {
	for _, n := range s.Piles {
		if n > 0 {
			return false
		}
	}
	return true
}

// Board renders the piles.
type Board struct {
	state *State
}

func (b *Board) View(engine.ViewContext) string {
	var sb strings.Builder
	for i, n := range b.state.Piles {
		fmt.Fprintf(&sb, "Pile %d: %s (%d)\n", i+1, strings.Repeat("|", n), n)
	}
	return sb.String()
}

// Game is a two-player Nim match.
type Game struct {
	state   *State
	board   *Board
	history *engine.History
	players []*engine.Player
	actions []engine.Action
}

// New returns a game ready for Setup.
func New() *Game {
	return &Game{}
}

func (g *Game) Name() string { return Name }

// Setup accepts an optional "piles" list of positive sizes.
func (g *Game) Setup(opts engine.Options) error {
	r := engine.ReadOptions(Name, opts, "piles")
	piles := r.IntSlice("piles", DefaultPiles)
	if len(piles) == 0 {
		r.Fail("piles", "at least one pile is required")
	}
	for i, n := range piles {
		if n < 1 {
			r.Fail("piles", fmt.Sprintf("pile %d must hold at least one object, got %d", i+1, n))
		}
	}
	if err := r.Err(); err != nil {
		return err
	}

	g.state = &State{Piles: append([]int(nil), piles...)}
	g.board = &Board{state: g.state}
	g.history = engine.NewHistory()
	g.history.StartRound()
	g.players = []*engine.Player{
		{Name: "Player 1", Team: "Player 1", Role: "player", Seat: 0},
		{Name: "Player 2", Team: "Player 2", Role: "player", Seat: 1},
	}
	g.actions = []engine.Action{Remove{}}
	return nil
}

func (g *Game) State() engine.State { return g.state }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) History() *engine.History { return g.history }

func (g *Game) Players() []*engine.Player { return g.players }

func (g *Game) Actions() []engine.Action { return g.actions }

func (g *Game) NextTurn() {}

func (g *Game) CurrentPlayer() *engine.Player {
	if g.state.IsOver() {
		return nil
	}
	return g.players[g.state.Current]
}

// Forfeit awards the game to the opponent.
func (g *Game) Forfeit(p *engine.Player) {
	g.history.Append(engine.NewRecord("forfeit", p.Name))
	g.state.Finish(g.players[1-p.Seat].Name)
}

// LegalDecisions lists every (pile, count) pair open to p.
func (g *Game) LegalDecisions(p *engine.Player) []engine.Decision {
	if g.state.IsOver() || p.Seat != g.state.Current {
		return nil
	}
	var out []engine.Decision
	for i, n := range g.state.Piles {
		for c := 1; c <= n; c++ {
			out = append(out, engine.Decision{Action: "remove", Params: engine.Params{"pile": i + 1, "count": c}})
		}
	}
	return out
}

// Remove takes objects from a single pile.
type Remove struct{}

func (Remove) Name() string { return "remove" }

func (Remove) Roles() []string { return nil }

func (Remove) Schema() engine.Schema {
	return engine.NewSchema(
		engine.IntField("pile", "pile number, starting at 1").AtLeast(1),
		engine.IntField("count", "number of objects to take").AtLeast(1),
	)
}

func (Remove) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok || g.state.IsOver() || p.Seat != g.state.Current {
		return false
	}
	pile, count := params.Int("pile"), params.Int("count")
	if pile < 1 || pile > len(g.state.Piles) {
		return false
	}
	return count >= 1 && count <= g.state.Piles[pile-1]
}

func (r Remove) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	g.state.Piles[params.Int("pile")-1] -= params.Int("count")
	g.history.Add(r, p, params)

	if g.state.empty() {
		g.state.Finish(p.Name)
		return
	}
	g.state.Current = 1 - g.state.Current
}

func (Remove) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	return engine.NewRecord("remove", p.Name, "pile", params.Int("pile"), "count", params.Int("count"))
}
