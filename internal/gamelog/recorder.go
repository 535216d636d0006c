package gamelog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turnforge/turnforge/internal/events"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

// Recorder writes runner events to a Store and keeps a replay per game.
// Store failures never interrupt a game; they are logged and kept for Err.
type Recorder struct {
	logger  *zap.Logger
	store   Store
	saveDir string
	timeout time.Duration

	mu      sync.RWMutex
	replays map[string]*Replay
	turns   map[string]int
	errs    error
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithReplayDir saves each replay to dir when its game ends.
func WithReplayDir(dir string) RecorderOption {
	return func(r *Recorder) { r.saveDir = dir }
}

// WithWriteTimeout bounds each store call.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.timeout = d }
}

// NewRecorder creates a recorder writing to store. A nil store discards entries.
func NewRecorder(logger *zap.Logger, store Store, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NopStore{}
	}
	r := &Recorder{
		logger:  logger,
		store:   store,
		timeout: defaultWriteTimeout,
		replays: make(map[string]*Replay),
		turns:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the recorder to bus and returns the subscription handle.
func (r *Recorder) Attach(bus *events.Bus) int {
	return bus.Subscribe(r.Handle)
}

// Handle records one event.
func (r *Recorder) Handle(evt events.Event) {
	switch evt.Type {
	case events.GameStarted:
		r.started(evt)
	case events.ActionApplied:
		r.turn(evt, TurnAction)
	case events.StepResolved:
		r.turn(evt, TurnStep)
	case events.DecisionRejected:
		r.turn(evt, TurnRejection)
	case events.PlayerForfeited:
		r.turn(evt, TurnForfeit)
	case events.GameEnded:
		r.ended(evt)
	}
}

func (r *Recorder) started(evt events.Event) {
	r.mu.Lock()
	replay := NewReplay(evt.GameID, evt.Game)
	r.replays[evt.GameID] = replay
	r.turns[evt.GameID] = 0
	r.mu.Unlock()

	if len(evt.Views) > 0 {
		replay.Record(&Frame{Kind: "start", Views: evt.Views, At: evt.Timestamp})
	}

	r.logger.Info("started game log",
		zap.String("game_id", evt.GameID),
		zap.String("game", evt.Game),
		zap.Int("seats", len(evt.Seats)),
	)

	r.write(evt.GameID, func(ctx context.Context) error {
		return r.store.StartGame(ctx, GameRecord{
			ID:        evt.GameID,
			Game:      evt.Game,
			Seats:     evt.Seats,
			Config:    evt.Config,
			StartedAt: evt.Timestamp,
		})
	})
}

func (r *Recorder) turn(evt events.Event, kind TurnKind) {
	r.mu.Lock()
	r.turns[evt.GameID]++
	index := r.turns[evt.GameID]
	replay := r.replays[evt.GameID]
	r.mu.Unlock()

	rec := TurnRecord{
		GameID:    evt.GameID,
		Index:     index,
		Kind:      kind,
		Player:    evt.Player,
		Seat:      evt.Seat,
		Action:    evt.Action,
		Params:    evt.Params,
		Records:   evt.Records,
		Views:     evt.Views,
		Reasoning: evt.Metadata["reasoning"],
		Prompt:    evt.Metadata["prompt"],
		Response:  evt.Metadata["response"],
		Reason:    evt.Reason,
		At:        evt.Timestamp,
	}

	if replay != nil && (kind == TurnAction || kind == TurnStep) {
		replay.Record(frameFromTurn(rec))
	}

	r.write(evt.GameID, func(ctx context.Context) error {
		return r.store.LogTurn(ctx, rec)
	})
}

func (r *Recorder) ended(evt events.Event) {
	r.write(evt.GameID, func(ctx context.Context) error {
		return r.store.EndGame(ctx, evt.GameID, Outcome{
			Winner:  evt.Winner,
			Draw:    !evt.Aborted && evt.Winner == "",
			Aborted: evt.Aborted,
			Turns:   evt.Turns,
			Reason:  evt.Reason,
			EndedAt: evt.Timestamp,
		})
	})

	if r.saveDir == "" {
		r.forget(evt.GameID)
		return
	}
	if err := r.SaveReplay(evt.GameID); err != nil {
		r.fail(evt.GameID, err)
	}
}

// forget drops the per-game state kept while a game runs.
func (r *Recorder) forget(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.replays, gameID)
	delete(r.turns, gameID)
}

// Replay returns the in-memory replay of a running game. Replays are dropped once
// the game ends.
func (r *Recorder) Replay(gameID string) (*Replay, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	replay, ok := r.replays[gameID]
	return replay, ok
}

// SaveReplay writes a replay to the replay directory and drops it from memory.
func (r *Recorder) SaveReplay(gameID string) error {
	r.mu.Lock()
	replay, exists := r.replays[gameID]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(r.replays, gameID)
	delete(r.turns, gameID)
	r.mu.Unlock()

	if err := replay.SaveToFile(r.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	r.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("frame_count", replay.Size()),
		zap.String("directory", r.saveDir),
	)
	return nil
}

// Err returns every store or replay failure seen so far.
func (r *Recorder) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errs
}

func (r *Recorder) write(gameID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		r.fail(gameID, err)
	}
}

func (r *Recorder) fail(gameID string, err error) {
	r.logger.Error("game log write failed",
		zap.String("game_id", gameID),
		zap.Error(err),
	)
	r.mu.Lock()
	r.errs = multierr.Append(r.errs, err)
	r.mu.Unlock()
}
