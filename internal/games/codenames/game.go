// Package codenames is the team word game: each Spymaster sees which of the 25
// codenames belong to their team and gives one-word clues; their Operatives guess.
package codenames

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/turnforge/turnforge/internal/engine"
)

// Name is the registry name of the game.
const Name = "codenames"

// Teams and roles.
const (
	Red        = "Red"
	Blue       = "Blue"
	Spymaster  = "Spymaster"
	Operatives = "Operatives"
)

// CardType is the hidden identity of a codename.
type CardType string

const (
	RedAgent  CardType = "Red"
	BlueAgent CardType = "Blue"
	Civilian  CardType = "Civilian"
	Assassin  CardType = "Assassin"
)

const boardSize = 25

// DefaultWords is the built-in codename pool.
var DefaultWords = []string{
	"Ace", "Bar", "Berry", "Bow", "Cap",
	"Chair", "Circle", "Conductor", "Cross", "Dinosaur",
	"Eagle", "Europe", "Extension", "Face", "Fire",
	"Gas", "Grain", "Hammer", "Horn", "Ice",
	"Jack", "Kangaroo", "Lab", "Letter", "Machine",
	"Message", "Motor", "Nail", "Oil", "Pad",
	"Patch", "Pie", "Plot", "Press", "Quartz",
	"Rabbit", "Ring", "Saddle", "Scroll", "Sign",
	"Snake", "Spring", "Stream", "Table", "Temple",
	"Toast", "Triangle", "Umbrella", "Vacuum", "Voice",
	"Wall", "Wind", "Xray", "Yoghurt", "Zebra",
}

// Card is one codename on the grid.
type Card struct {
	Word     string
	Type     CardType
	Revealed bool
}

// State is the complete truth of a game. Card types of hidden cards are known to
// the Spymasters only.
type State struct {
	engine.Status

	Cards     []*Card
	Team      string
	Clue      string
	ClueCount int
	// Guesses left this turn; zero means the Spymaster is to give a clue.
	Guesses   int
	Remaining map[string]int
}

func (s *State) find(word string) *Card {
	for _, c := range s.Cards {
		if strings.EqualFold(c.Word, strings.TrimSpace(word)) {
			return c
		}
	}
	return nil
}

func (s *State) hidden() []*Card {
	var out []*Card
	for _, c := range s.Cards {
		if !c.Revealed {
			out = append(out, c)
		}
	}
	return out
}

// Game is a Codenames match between two teams of Spymaster and Operatives.
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

// Setup deals 25 codenames: 9 for Red, who starts, 8 for Blue, 7 civilians and the
// assassin. Options are "seed" and "words", a pool of at least 25 codenames.
func (g *Game) Setup(opts engine.Options) error {
	r := engine.ReadOptions(Name, opts, "seed", "words")
	seed := r.Int64("seed", 0)
	words := r.StringSlice("words", DefaultWords)
	if unique(words) < boardSize {
		r.Fail("words", fmt.Sprintf("need at least %d distinct codenames, got %d", boardSize, unique(words)))
	}
	if err := r.Err(); err != nil {
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	pool := dedupe(words)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	types := make([]CardType, 0, boardSize)
	for _, spec := range []struct {
		t CardType
		n int
	}{{RedAgent, 9}, {BlueAgent, 8}, {Civilian, 7}, {Assassin, 1}} {
		for i := 0; i < spec.n; i++ {
			types = append(types, spec.t)
		}
	}
	rng.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })

	cards := make([]*Card, boardSize)
	for i := range cards {
		cards[i] = &Card{Word: pool[i], Type: types[i]}
	}

	g.state = &State{
		Cards:     cards,
		Team:      Red,
		Remaining: map[string]int{Red: 9, Blue: 8},
	}
	g.board = &Board{state: g.state}
	g.history = engine.NewHistory()
	g.history.StartRound()
	g.players = []*engine.Player{
		{Name: "Red Spymaster", Team: Red, Role: Spymaster, Seat: 0},
		{Name: "Red Operatives", Team: Red, Role: Operatives, Seat: 1},
		{Name: "Blue Spymaster", Team: Blue, Role: Spymaster, Seat: 2},
		{Name: "Blue Operatives", Team: Blue, Role: Operatives, Seat: 3},
	}
	g.actions = []engine.Action{Clue{}, Guess{}, Pass{}}
	return nil
}

func (g *Game) State() engine.State { return g.state }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) History() *engine.History { return g.history }

func (g *Game) Players() []*engine.Player { return g.players }

func (g *Game) Actions() []engine.Action { return g.actions }

func (g *Game) NextTurn() {}

// CurrentPlayer is the current team's Spymaster until a clue is given, then its Operatives.
func (g *Game) CurrentPlayer() *engine.Player {
	if g.state.IsOver() {
		return nil
	}
	role := Spymaster
	if g.state.Guesses > 0 {
		role = Operatives
	}
	return engine.FindPlayer(g, g.state.Team, role)
}

// Forfeit hands the win to the other team.
func (g *Game) Forfeit(p *engine.Player) {
	g.history.Append(engine.NewRecord("forfeit", p.Name))
	g.state.Guesses = 0
	g.state.Finish(otherTeam(p.Team))
}

// clueWords are candidate clues for automated Spymasters.
var clueWords = []string{"animal", "metal", "water", "travel", "music", "kitchen", "sport", "light", "paper", "history"}

// LegalDecisions lists every hidden codename plus pass for Operatives, and for a
// Spymaster a handful of one-word clues that are not on the board.
func (g *Game) LegalDecisions(p *engine.Player) []engine.Decision {
	s := g.state
	if s.IsOver() || p.Team != s.Team {
		return nil
	}
	var out []engine.Decision
	if p.Role == Spymaster {
		for _, w := range clueWords {
			params := engine.Params{"clue": w, "count": 1}
			if (Clue{}).Validate(g, p, params) {
				out = append(out, engine.Decision{Action: "clue", Params: params})
			}
		}
		return out
	}
	if s.Guesses == 0 {
		return nil
	}
	for _, c := range s.hidden() {
		out = append(out, engine.Decision{Action: "guess", Params: engine.Params{"codename": c.Word}})
	}
	return append(out, engine.Decision{Action: "pass", Params: engine.Params{}})
}

// endTeamTurn passes play to the other team. A history round is one Red turn
// followed by one Blue turn.
func (g *Game) endTeamTurn() {
	s := g.state
	s.Guesses = 0
	s.Clue = ""
	s.ClueCount = 0
	if s.Team == Blue {
		s.Team = Red
		g.history.StartRound()
		return
	}
	s.Team = Blue
}

func otherTeam(team string) string {
	if team == Red {
		return Blue
	}
	return Red
}

func unique(words []string) int {
	return len(dedupe(words))
}

func dedupe(words []string) []string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		key := strings.ToLower(w)
		if w == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}
