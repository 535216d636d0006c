package engine

import "context"

// Player is a seat: a stable identity, a role used for view filtering and the
// agent that decides for it. Players are created by Setup and live as long as the game.
type Player struct {
	Name string
	Team string
	Role string
	Seat int

	Agent Agent
}

func (p *Player) String() string {
	if p == nil {
		return "<nobody>"
	}
	return p.Name
}

// Turn is what an agent is asked to decide on.
type Turn struct {
	Game   Game
	Player *Player
	// Attempt counts from 1 and grows with each rejected decision of this seat.
	Attempt int
	// Rejection explains why the previous decision was refused, nil on a first attempt.
	Rejection error
}

// Agent is the single capability of a decision-making strategy. Implementations may
// only read the game; the call may block for as long as it needs to.
type Agent interface {
	GetAction(ctx context.Context, turn Turn) (Decision, error)
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc func(ctx context.Context, turn Turn) (Decision, error)

func (f AgentFunc) GetAction(ctx context.Context, turn Turn) (Decision, error) {
	return f(ctx, turn)
}

// PlayerBySeat returns the player in seat, or nil.
func PlayerBySeat(g Game, seat int) *Player {
	for _, p := range g.Players() {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// FindPlayer returns the first player matching team and role. Empty criteria match anything.
func FindPlayer(g Game, team, role string) *Player {
	for _, p := range g.Players() {
		if (team == "" || p.Team == team) && (role == "" || p.Role == role) {
			return p
		}
	}
	return nil
}

// Transcriber is implemented by agents that can report the exchange behind their
// most recent decision, such as a prompt and the model's reply.
type Transcriber interface {
	LastExchange() (prompt, response string)
}
