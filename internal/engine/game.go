package engine

// Game composes state, board, history, players and actions into one playable unit.
// A Game instance belongs to a single runner; concurrent games use separate instances.
type Game interface {
	Name() string
	// Setup validates options and prepares a fresh game. Invalid options fail with
	// a *SetupError before any turn.
	Setup(opts Options) error
	State() State
	Board() Board
	History() *History
	Players() []*Player
	Actions() []Action
	// CurrentPlayer is the seat expected to decide next. It returns nil when the next
	// transition needs no decision (see Stepper) or the game is over.
	CurrentPlayer() *Player
	// NextTurn is a hook for hosts. Turn order is advanced by Action.Apply, so the
	// runner never calls it.
	NextTurn()
}

// Stepper is implemented by games with transitions that need no decision,
// such as revealing a card once every seat has committed.
type Stepper interface {
	Step()
}

// Simultaneous is implemented by games with phases where several seats decide at once.
// PendingPlayers lists the seats that still owe a decision in the current phase.
type Simultaneous interface {
	PendingPlayers() []*Player
}

// Forfeiter applies a forced outcome when a seat exceeds the retry bound.
// After Forfeit the game must be over.
type Forfeiter interface {
	Forfeit(p *Player)
}

// Defaulter supplies the decision applied when a seat runs out of time.
type Defaulter interface {
	DefaultDecision(p *Player) (Decision, bool)
}

// MoveLister enumerates the legal decisions for a seat.
type MoveLister interface {
	LegalDecisions(p *Player) []Decision
}

// View is a shorthand for g.Board().View for player p.
func View(g Game, p *Player) string {
	return g.Board().View(ViewContext{Player: p, State: g.State()})
}
