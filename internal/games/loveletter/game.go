// Package loveletter is the 16 card deduction game for 2 to 4 players. Each player
// holds one card, draws a second on their turn and plays one of the two. A round
// ends when one player is left or the deck runs out; the first player to win
// enough rounds wins the game.
package loveletter

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/turnforge/turnforge/internal/engine"
)

// Name is the registry name of the game.
const Name = "loveletter"

const (
	MinPlayers     = 2
	MaxPlayers     = 4
	DefaultPlayers = 2

	// Dealer is the record author for round transitions.
	Dealer = "Dealer"
)

// tokensToWin is the number of round wins needed, by player count.
var tokensToWin = map[int]int{2: 7, 3: 5, 4: 4}

func init() {
	engine.Register(Name, func() engine.Game { return New() })
}

// State is the complete truth of a game. Hands and Known are private to their
// owning seat; everything else is public.
type State struct {
	engine.Status

	Seats       int
	Round       int
	Current     int
	Target      int
	Tokens      map[int]int
	RoundOver   bool
	RoundWinner int

	Deck     []Card
	SetAside []Card
	FaceUp   []Card
	Hands    map[int][]Card
	Discards map[int][]Card

	Eliminated map[int]bool
	Protected  map[int]bool
	Forfeited  map[int]bool
	// Known maps viewer -> seat -> card type the viewer knows that seat holds.
	Known map[int]map[int]CardType
}

// Active returns the seats still in the round, in seat order.
func (s *State) Active() []int {
	var out []int
	for seat := 0; seat < s.Seats; seat++ {
		if !s.Eliminated[seat] {
			out = append(out, seat)
		}
	}
	return out
}

// Targetable returns the other active seats that are not protected.
func (s *State) Targetable(seat int) []int {
	var out []int
	for _, t := range s.Active() {
		if t != seat && !s.Protected[t] {
			out = append(out, t)
		}
	}
	return out
}

func (s *State) holds(seat int, t CardType) bool {
	for _, c := range s.Hands[seat] {
		if c.Type == t {
			return true
		}
	}
	return false
}

func (s *State) takeFromHand(seat int, t CardType) Card {
	hand := s.Hands[seat]
	for i, c := range hand {
		if c.Type == t {
			s.Hands[seat] = append(hand[:i:i], hand[i+1:]...)
			return c
		}
	}
	engine.Invariant("loveletter: seat %d does not hold %s", seat, t)
	return Card{}
}

func (s *State) draw(seat int) bool {
	switch {
	case len(s.Deck) > 0:
		s.Hands[seat] = append(s.Hands[seat], s.Deck[0])
		s.Deck = s.Deck[1:]
	case len(s.SetAside) > 0:
		s.Hands[seat] = append(s.Hands[seat], s.SetAside[0])
		s.SetAside = s.SetAside[1:]
	default:
		return false
	}
	return true
}

func (s *State) eliminate(seat int) {
	s.Eliminated[seat] = true
	s.Protected[seat] = false
	s.Discards[seat] = append(s.Discards[seat], s.Hands[seat]...)
	s.Hands[seat] = nil
}

func (s *State) learn(viewer, seat int, t CardType) {
	if s.Known[viewer] == nil {
		s.Known[viewer] = make(map[int]CardType)
	}
	s.Known[viewer][seat] = t
}

// forgetStale drops knowledge that no longer matches a hand.
func (s *State) forgetStale() {
	for viewer, known := range s.Known {
		for seat, t := range known {
			if seat == viewer || s.Eliminated[seat] || !s.holds(seat, t) {
				delete(known, seat)
			}
		}
	}
}

func (s *State) roundEnded() bool {
	return len(s.Active()) <= 1 || len(s.Deck) == 0
}

// roundWinner picks the sole survivor, else the highest card, then the highest
// discard total. A tie on both has no winner.
func (s *State) roundWinner() int {
	active := s.Active()
	if len(active) == 1 {
		return active[0]
	}
	best, bestCard, bestDiscards, tied := -1, -1, -1, false
	for _, seat := range active {
		card := 0
		if len(s.Hands[seat]) > 0 {
			card = s.Hands[seat][0].Type.Value()
		}
		discards := 0
		for _, c := range s.Discards[seat] {
			discards += c.Type.Value()
		}
		switch {
		case card > bestCard || (card == bestCard && discards > bestDiscards):
			best, bestCard, bestDiscards, tied = seat, card, discards, false
		case card == bestCard && discards == bestDiscards:
			tied = true
		}
	}
	if tied {
		return -1
	}
	return best
}

// Game is a Love Letter match.
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

// Setup reads "players", "target_tokens" and "seed". A zero seed picks one from the clock.
func (g *Game) Setup(opts engine.Options) error {
	r := engine.ReadOptions(Name, opts, "players", "target_tokens", "seed")
	n := r.Int("players", DefaultPlayers)
	target := r.Int("target_tokens", tokensToWin[n])
	seed := r.Int64("seed", 0)
	if n < MinPlayers || n > MaxPlayers {
		r.Fail("players", fmt.Sprintf("requires %d-%d players, got %d", MinPlayers, MaxPlayers, n))
	}
	if target < 1 {
		r.Fail("target_tokens", fmt.Sprintf("must be at least 1, got %d", target))
	}
	if err := r.Err(); err != nil {
		return err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g.rng = rand.New(rand.NewSource(seed))
	g.history = engine.NewHistory()
	g.state = &State{
		Seats:       n,
		Target:      target,
		Tokens:      make(map[int]int, n),
		RoundWinner: -1,
		Forfeited:   make(map[int]bool),
	}
	g.players = make([]*engine.Player, n)
	for i := range g.players {
		name := fmt.Sprintf("Player %d", i+1)
		g.players[i] = &engine.Player{Name: name, Team: name, Role: "player", Seat: i}
	}
	g.board = &Board{state: g.state, players: g.players}
	g.actions = []engine.Action{PlayCard{}}
	g.startRound(0)
	return nil
}

func (g *Game) State() engine.State { return g.state }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) History() *engine.History { return g.history }

func (g *Game) Players() []*engine.Player { return g.players }

func (g *Game) Actions() []engine.Action { return g.actions }

func (g *Game) NextTurn() {}

// CurrentPlayer is nil between rounds; Step deals the next one.
func (g *Game) CurrentPlayer() *engine.Player {
	if g.state.IsOver() || g.state.RoundOver {
		return nil
	}
	return g.players[g.state.Current]
}

// Step closes a finished round and deals the next, led by the round winner.
func (g *Game) Step() {
	s := g.state
	if !s.RoundOver {
		engine.Invariant("loveletter: step called during round %d", s.Round)
	}
	winner := "none"
	first := (s.Current + 1) % s.Seats
	if s.RoundWinner >= 0 {
		winner = g.players[s.RoundWinner].Name
		first = s.RoundWinner
	}
	g.history.Append(engine.NewRecord("round_end", Dealer, "round", s.Round, "winner", winner))
	g.startRound(first)
}

// Forfeit knocks the seat out and ends the game in favour of the most tokens
// among the others; a tie has no winner.
func (g *Game) Forfeit(p *engine.Player) {
	s := g.state
	s.Forfeited[p.Seat] = true
	if !s.Eliminated[p.Seat] {
		s.eliminate(p.Seat)
	}
	g.history.Append(engine.NewRecord("forfeit", p.Name))

	best, winners := -1, []string(nil)
	for seat, pl := range g.players {
		if s.Forfeited[seat] {
			continue
		}
		switch t := s.Tokens[seat]; {
		case t > best:
			best, winners = t, []string{pl.Name}
		case t == best:
			winners = append(winners, pl.Name)
		}
	}
	winner := ""
	if len(winners) == 1 {
		winner = winners[0]
	}
	s.Finish(winner)
}

// LegalDecisions enumerates every play Validate accepts for p.
func (g *Game) LegalDecisions(p *engine.Player) []engine.Decision {
	s := g.state
	seen := make(map[CardType]bool)
	var out []engine.Decision
	try := func(params engine.Params) {
		if (PlayCard{}).Validate(g, p, params) {
			out = append(out, engine.Decision{Action: "play_card", Params: params})
		}
	}
	for _, c := range s.Hands[p.Seat] {
		if seen[c.Type] {
			continue
		}
		seen[c.Type] = true
		name := c.Type.String()
		try(engine.Params{"card": name})
		if !c.Type.Targeted() && c.Type != Prince {
			continue
		}
		for t := 1; t <= s.Seats; t++ {
			if c.Type != Guard {
				try(engine.Params{"card": name, "target": t})
				continue
			}
			for _, guess := range cardTypeNames(Guard) {
				try(engine.Params{"card": name, "target": t, "guess": guess})
			}
		}
	}
	return out
}

// startRound deals a fresh deck and gives first their turn card.
func (g *Game) startRound(first int) {
	s := g.state
	s.Round++
	s.RoundOver = false
	s.RoundWinner = -1
	s.Deck = NewDeck(g.rng)
	s.Hands = make(map[int][]Card, s.Seats)
	s.Discards = make(map[int][]Card, s.Seats)
	s.Eliminated = make(map[int]bool, s.Seats)
	s.Protected = make(map[int]bool, s.Seats)
	s.Known = make(map[int]map[int]CardType, s.Seats)

	s.SetAside = []Card{s.Deck[0]}
	s.Deck = s.Deck[1:]
	s.FaceUp = nil
	if s.Seats == 2 {
		s.FaceUp = append([]Card(nil), s.Deck[:3]...)
		s.Deck = s.Deck[3:]
	}

	for seat := 0; seat < s.Seats; seat++ {
		s.draw(seat)
	}
	s.Current = first
	s.draw(first)
	g.history.StartRound()
}

// endTurn finishes the round when it is decided, otherwise passes the turn to the
// next active seat, which loses its protection and draws.
func (g *Game) endTurn() {
	s := g.state
	if s.roundEnded() {
		s.RoundOver = true
		s.RoundWinner = s.roundWinner()
		if s.RoundWinner >= 0 {
			s.Tokens[s.RoundWinner]++
			if s.Tokens[s.RoundWinner] >= s.Target {
				s.Finish(g.players[s.RoundWinner].Name)
			}
		}
		return
	}

	next := s.Current
	for {
		next = (next + 1) % s.Seats
		if !s.Eliminated[next] {
			break
		}
	}
	s.Current = next
	s.Protected[next] = false
	s.draw(next)
}
