// Package tictactoe is classic 3x3 noughts and crosses on the engine contract.
package tictactoe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Name is the registry name of the game.
const Name = "tictactoe"

const (
	MarkX = "X"
	MarkO = "O"
)

func init() {
	engine.Register(Name, func() engine.Game { return New() })
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// State holds the nine cells, indexed by position 1-9, and whose mark goes next.
type State struct {
	engine.Status
	Cells   [9]string
	Current string
}

// Cell returns the mark at position 1-9, "" if empty.
func (s *State) Cell(pos int) string {
	if pos < 1 || pos > 9 {
		return ""
	}
	return s.Cells[pos-1]
}

func (s *State) empty(pos int) bool {
	return pos >= 1 && pos <= 9 && s.Cells[pos-1] == ""
}

func (s *State) winner() string {
	for _, l := range lines {
		m := s.Cells[l[0]]
		if m != "" && m == s.Cells[l[1]] && m == s.Cells[l[2]] {
			return m
		}
	}
	return ""
}

func (s *State) full() bool {
	for _, c := range s.Cells {
		if c == "" {
			return false
		}
	}
	return true
}

func (s *State) openPositions() []int {
	var out []int
	for i, c := range s.Cells {
		if c == "" {
			out = append(out, i+1)
		}
	}
	return out
}

// Board renders the grid.
type Board struct {
	state *State
}

// View shows marks, with free cells numbered. Nothing is hidden in this game.
func (b *Board) View(engine.ViewContext) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			cells[col] = b.state.Cells[i]
			if cells[col] == "" {
				cells[col] = strconv.Itoa(i + 1)
			}
		}
		sb.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
	return sb.String()
}

// PromptView adds the mark the viewer plays and the open positions.
func (b *Board) PromptView(ctx engine.ViewContext) string {
	open := make([]string, 0, 9)
	for _, p := range b.state.openPositions() {
		open = append(open, strconv.Itoa(p))
	}
	mark := ""
	if ctx.Player != nil {
		mark = ctx.Player.Team
	}
	return fmt.Sprintf("%s\nYou play %s.\nOpen positions: %s\n", b.View(ctx), mark, strings.Join(open, ", "))
}

// Game is one match between X and O.
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

// Setup starts an empty board with X to move. The game takes no options.
func (g *Game) Setup(opts engine.Options) error {
	r := engine.ReadOptions(Name, opts)
	if err := r.Err(); err != nil {
		return err
	}

	g.state = &State{Current: MarkX}
	g.board = &Board{state: g.state}
	g.history = engine.NewHistory()
	g.history.StartRound()
	g.players = []*engine.Player{
		{Name: MarkX, Team: MarkX, Role: "player", Seat: 0},
		{Name: MarkO, Team: MarkO, Role: "player", Seat: 1},
	}
	g.actions = []engine.Action{Move{}}
	return nil
}

func (g *Game) State() engine.State { return g.state }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) History() *engine.History { return g.history }

func (g *Game) Players() []*engine.Player { return g.players }

func (g *Game) Actions() []engine.Action { return g.actions }

// NextTurn is a no-op: Apply switches marks itself.
func (g *Game) NextTurn() {}

func (g *Game) CurrentPlayer() *engine.Player {
	if g.state.IsOver() {
		return nil
	}
	return engine.FindPlayer(g, g.state.Current, "")
}

// Forfeit hands the win to the other mark.
func (g *Game) Forfeit(p *engine.Player) {
	g.history.Append(engine.NewRecord("forfeit", p.Team))
	g.state.Finish(other(p.Team))
}

// LegalDecisions lists a move for every open position.
func (g *Game) LegalDecisions(p *engine.Player) []engine.Decision {
	if g.state.IsOver() || p.Team != g.state.Current {
		return nil
	}
	var out []engine.Decision
	for _, pos := range g.state.openPositions() {
		out = append(out, engine.Decision{Action: "move", Params: engine.Params{"position": pos}})
	}
	return out
}

func other(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}

// Move places the player's mark.
type Move struct{}

func (Move) Name() string    { return "move" }
func (Move) Roles() []string { return nil }
func (Move) Schema() engine.Schema {
	return engine.NewSchema(engine.IntField("position", "cell to mark, numbered left to right, top to bottom").Between(1, 9))
}

func (Move) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok || g.state.IsOver() {
		return false
	}
	if p.Team != g.state.Current {
		return false
	}
	return g.state.empty(params.Int("position"))
}

// Apply checks for a winner before switching turns, so a winning move keeps the turn.
func (m Move) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	mark := g.state.Current
	g.state.Cells[params.Int("position")-1] = mark
	g.history.Add(m, p, params)

	if w := g.state.winner(); w != "" {
		g.state.Finish(w)
		return
	}
	if g.state.full() {
		g.state.Finish("")
		return
	}
	g.state.Current = other(mark)
}

func (Move) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	return engine.NewRecord("move", p.Team, "position", params.Int("position"))
}
