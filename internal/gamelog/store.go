// Package gamelog persists what happens in a game: who sat where, every applied
// action and automatic step with the views it produced, rejected decisions and the
// outcome. A Recorder feeds a Store from the runner's event bus.
package gamelog

import (
	"context"
	"time"

	"github.com/turnforge/turnforge/internal/events"
)

// TurnKind classifies a logged entry.
type TurnKind string

const (
	TurnAction    TurnKind = "action"
	TurnStep      TurnKind = "step"
	TurnRejection TurnKind = "rejection"
	TurnForfeit   TurnKind = "forfeit"
)

// GameRecord is written when a game starts.
type GameRecord struct {
	ID        string
	Game      string
	Seats     []events.Seat
	Config    map[string]any
	StartedAt time.Time
}

// TurnRecord is one logged entry of a game, numbered from 1 in publish order.
type TurnRecord struct {
	GameID    string
	Index     int
	Kind      TurnKind
	Player    string
	Seat      int
	Action    string
	Params    map[string]any
	Records   []map[string]any
	Views     map[string]string
	Reasoning string
	Prompt    string
	Response  string
	Reason    string
	At        time.Time
}

// Outcome is written when a game ends.
type Outcome struct {
	Winner  string
	Draw    bool
	Aborted bool
	Turns   int
	Reason  string
	EndedAt time.Time
}

// Store is a game log backend.
type Store interface {
	StartGame(ctx context.Context, game GameRecord) error
	LogTurn(ctx context.Context, turn TurnRecord) error
	EndGame(ctx context.Context, gameID string, outcome Outcome) error
	Close() error
}

// NopStore discards everything.
type NopStore struct{}

func (NopStore) StartGame(context.Context, GameRecord) error { return nil }

func (NopStore) LogTurn(context.Context, TurnRecord) error { return nil }

func (NopStore) EndGame(context.Context, string, Outcome) error { return nil }

func (NopStore) Close() error { return nil }
