// Package incangold is the push-your-luck temple game. Every explorer still in the
// temple decides at once whether to continue or return to camp; the next path card
// is revealed only after all of them have decided.
package incangold

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/turnforge/turnforge/internal/engine"
)

// Name is the registry name of the game.
const Name = "incangold"

const (
	MinPlayers     = 3
	MaxPlayers     = 8
	DefaultPlayers = 4
	DefaultRounds  = 5

	// Temple is the record author for automatic transitions.
	Temple = "Temple"
)

// Phase orders the steps of one turn inside the temple.
type Phase string

const (
	PhaseDecide  Phase = "decide"
	PhaseReveal  Phase = "reveal"
	PhaseResolve Phase = "resolve"
)

func init() {
	engine.Register(Name, func() engine.Game { return New() })
}

// State is the complete truth of a game. Carried gems and camp collections are
// private to their owner; everything else is public.
type State struct {
	engine.Status

	Seats       int
	Round       int
	TotalRounds int
	Phase       Phase
	Decisions   *engine.DecisionSet

	Deck        []Card
	Path        []Card
	GemsOnPath  int
	HazardsSeen map[Hazard]int
	InTemple    map[int]bool
	Carried     map[int]int
	Gems        map[int]int
	Artifacts   map[int][]Card
	Out         map[int]bool

	// Claimed artifacts and collapse hazards leave the deck for good.
	Removed map[int]bool
}

// Explorers returns the seats still in the temple, in seat order.
func (s *State) Explorers() []int {
	var out []int
	for seat := 0; seat < s.Seats; seat++ {
		if s.InTemple[seat] {
			out = append(out, seat)
		}
	}
	return out
}

// Score is a seat's banked gems plus artifact points.
func (s *State) Score(seat int) int {
	total := s.Gems[seat]
	for _, a := range s.Artifacts[seat] {
		total += a.Value
	}
	return total
}

// Game is an Incan Gold expedition for 3 to 8 players.
type Game struct {
	state   *State
	board   *Board
	history *engine.History
	players []*engine.Player
	actions []engine.Action
	rng     *rand.Rand
}

// New returns a game ready for Setup.
func New() *Game {
	return &Game{}
}

func (g *Game) Name() string { return Name }

// Setup reads "players", "rounds" and "seed". A zero seed picks one from the clock.
func (g *Game) Setup(opts engine.Options) error {
	r := engine.ReadOptions(Name, opts, "players", "rounds", "seed")
	n := r.Int("players", DefaultPlayers)
	rounds := r.Int("rounds", DefaultRounds)
	seed := r.Int64("seed", 0)
	if n < MinPlayers || n > MaxPlayers {
		r.Fail("players", fmt.Sprintf("requires %d-%d players, got %d", MinPlayers, MaxPlayers, n))
	}
	if rounds < 1 {
		r.Fail("rounds", fmt.Sprintf("must be at least 1, got %d", rounds))
	}
	if err := r.Err(); err != nil {
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g.rng = rand.New(rand.NewSource(seed))
	g.history = engine.NewHistory()
	g.players = make([]*engine.Player, n)
	g.state = &State{
		Seats:       n,
		TotalRounds: rounds,
		Decisions:   engine.NewDecisionSet(),
		InTemple:    make(map[int]bool, n),
		Carried:     make(map[int]int, n),
		Gems:        make(map[int]int, n),
		Artifacts:   make(map[int][]Card, n),
		Out:         make(map[int]bool, n),
		Removed:     make(map[int]bool),
	}
	for i := range g.players {
		name := fmt.Sprintf("Player %d", i+1)
		g.players[i] = &engine.Player{Name: name, Team: name, Role: "player", Seat: i}
	}
	g.board = &Board{state: g.state, players: g.players}
	g.actions = []engine.Action{Decide{}}
	g.startRound(1)
	return nil
}

func (g *Game) State() engine.State { return g.state }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) History() *engine.History { return g.history }

func (g *Game) Players() []*engine.Player { return g.players }

func (g *Game) Actions() []engine.Action { return g.actions }

func (g *Game) NextTurn() {}

// CurrentPlayer is the lowest seat still owing a decision, or nil during reveal and resolve.
func (g *Game) CurrentPlayer() *engine.Player {
	if g.state.IsOver() || g.state.Phase != PhaseDecide {
		return nil
	}
	pending := g.state.Decisions.Pending()
	if len(pending) == 0 {
		return nil
	}
	return g.players[pending[0]]
}

// PendingPlayers lists explorers that have not decided this turn.
func (g *Game) PendingPlayers() []*engine.Player {
	if g.state.IsOver() || g.state.Phase != PhaseDecide {
		return nil
	}
	var out []*engine.Player
	for _, seat := range g.state.Decisions.Pending() {
		out = append(out, g.players[seat])
	}
	return out
}

// DefaultDecision heads back to camp.
func (g *Game) DefaultDecision(p *engine.Player) (engine.Decision, bool) {
	if !g.state.InTemple[p.Seat] {
		return engine.Decision{}, false
	}
	return engine.Decision{Action: "decide", Params: engine.Params{"decision": Return}}, true
}

// LegalDecisions offers both choices to an undecided explorer.
func (g *Game) LegalDecisions(p *engine.Player) []engine.Decision {
	if !(Decide{}).Validate(g, p, engine.Params{"decision": Continue}) {
		return nil
	}
	return []engine.Decision{
		{Action: "decide", Params: engine.Params{"decision": Continue}},
		{Action: "decide", Params: engine.Params{"decision": Return}},
	}
}

// Forfeit drops the seat from the expedition, loses what it carries and ends the game
// with the best score among the others.
func (g *Game) Forfeit(p *engine.Player) {
	s := g.state
	s.Out[p.Seat] = true
	s.InTemple[p.Seat] = false
	s.Carried[p.Seat] = 0
	g.history.Append(engine.NewRecord("forfeit", p.Name))
	g.finish()
}

// Step advances the automatic part of a turn: reveal draws the next card once every
// explorer has decided, resolve applies its effect.
func (g *Game) Step() {
	switch g.state.Phase {
	case PhaseReveal:
		g.reveal()
	case PhaseResolve:
		g.resolve()
	default:
		engine.Invariant("incangold: step called in phase %s", g.state.Phase)
	}
}

func (g *Game) startRound(round int) {
	s := g.state
	s.Round = round
	s.Phase = PhaseDecide
	s.Path = nil
	s.GemsOnPath = 0
	s.HazardsSeen = make(map[Hazard]int)

	var deck []Card
	for _, c := range NewDeck() {
		if !s.Removed[c.ID] {
			deck = append(deck, c)
		}
	}
	s.Deck = shuffle(g.rng, deck)

	var explorers []int
	for seat := range g.players {
		s.Carried[seat] = 0
		s.InTemple[seat] = !s.Out[seat]
		if s.InTemple[seat] {
			explorers = append(explorers, seat)
		}
	}
	s.Decisions.Reset(explorers...)
	g.history.StartRound()
}

// reveal sends returners back to camp, then turns over the next card.
func (g *Game) reveal() {
	s := g.state
	returners := s.Decisions.Seats(Return)
	if len(returners) > 0 {
		g.campReturn(returners)
	}

	explorers := s.Explorers()
	if len(explorers) == 0 {
		g.endRound("temple empty")
		return
	}
	if len(s.Deck) == 0 {
		for _, seat := range explorers {
			s.Gems[seat] += s.Carried[seat]
			s.Carried[seat] = 0
			s.InTemple[seat] = false
		}
		g.endRound("path exhausted")
		return
	}

	card := s.Deck[0]
	s.Deck = s.Deck[1:]
	s.Path = append(s.Path, card)
	s.Phase = PhaseResolve
	g.history.Append(engine.NewRecord("reveal", Temple, "card", card.String(), "explorers", len(explorers)))
}

// campReturn splits the gems on the path among returners and banks what they carry.
// Artifacts only go to a lone returner.
func (g *Game) campReturn(returners []int) {
	s := g.state
	share := s.GemsOnPath / len(returners)
	s.GemsOnPath %= len(returners)

	var claimed []string
	if len(returners) == 1 {
		var path []Card
		for _, c := range s.Path {
			if c.Kind == Artifact {
				s.Artifacts[returners[0]] = append(s.Artifacts[returners[0]], c)
				s.Removed[c.ID] = true
				claimed = append(claimed, c.String())
				continue
			}
			path = append(path, c)
		}
		s.Path = path
	}

	names := make([]string, 0, len(returners))
	for _, seat := range returners {
		s.Gems[seat] += s.Carried[seat] + share
		s.Carried[seat] = 0
		s.InTemple[seat] = false
		names = append(names, g.players[seat].Name)
	}

	kv := []any{"players", strings.Join(names, ", "), "share", share}
	if len(claimed) > 0 {
		kv = append(kv, "artifacts", strings.Join(claimed, ", "))
	}
	g.history.Append(engine.NewRecord("return", Temple, kv...))
}

// resolve applies the last revealed card.
func (g *Game) resolve() {
	s := g.state
	card := s.Path[len(s.Path)-1]
	explorers := s.Explorers()

	switch card.Kind {
	case HazardCard:
		s.HazardsSeen[card.Hazard]++
		if s.HazardsSeen[card.Hazard] >= 2 {
			for _, seat := range explorers {
				s.Carried[seat] = 0
				s.InTemple[seat] = false
			}
			s.Removed[card.ID] = true
			g.history.Append(engine.NewRecord("collapse", Temple, "hazard", string(card.Hazard), "lost", len(explorers)))
			g.endRound("collapse")
			return
		}
		g.history.Append(engine.NewRecord("hazard", Temple, "hazard", string(card.Hazard)))
	case Treasure:
		each := card.Value / len(explorers)
		for _, seat := range explorers {
			s.Carried[seat] += each
		}
		s.GemsOnPath += card.Value % len(explorers)
		g.history.Append(engine.NewRecord("treasure", Temple, "gems", card.Value, "each", each, "left", s.GemsOnPath))
	case Artifact:
		g.history.Append(engine.NewRecord("artifact", Temple, "value", card.Value))
	}

	s.Phase = PhaseDecide
	s.Decisions.Reset(explorers...)
}

func (g *Game) endRound(reason string) {
	g.history.Append(engine.NewRecord("round_end", Temple, "round", g.state.Round, "reason", reason))
	if g.state.Round >= g.state.TotalRounds {
		g.finish()
		return
	}
	g.startRound(g.state.Round + 1)
}

// finish awards the game to the single highest score; a tie has no winner.
func (g *Game) finish() {
	s := g.state
	best, winners := -1, []string(nil)
	for seat, p := range g.players {
		if s.Out[seat] {
			continue
		}
		switch score := s.Score(seat); {
		case score > best:
			best, winners = score, []string{p.Name}
		case score == best:
			winners = append(winners, p.Name)
		}
	}
	winner := ""
	if len(winners) == 1 {
		winner = winners[0]
	}
	s.Phase = PhaseDecide
	s.Decisions.Reset()
	s.Finish(winner)
}
