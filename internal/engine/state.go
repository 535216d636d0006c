package engine

// State is the part of a game's record of truth the engine relies on.
// Games keep their own fields next to it and mutate them only inside Action.Apply
// or Stepper.Step.
type State interface {
	IsOver() bool
	// Winner returns the winning identifier, or "" while playing and on a draw.
	Winner() string
}

// Status is an embeddable State. Once finished it never reverts.
type Status struct {
	over   bool
	winner string
}

// IsOver reports whether the game reached a terminal state.
func (s *Status) IsOver() bool { return s.over }

// Winner returns the winner, "" for a draw or an unfinished game.
func (s *Status) Winner() string { return s.winner }

// Finish marks the game terminal. Pass "" for a draw.
// Finishing twice is an invariant violation: the winner is set at most once.
func (s *Status) Finish(winner string) {
	if s.over {
		Invariant("game finished twice (winner %q, then %q)", s.winner, winner)
	}
	s.over = true
	s.winner = winner
}
