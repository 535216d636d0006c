package gamelog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnforge/turnforge/internal/agent"
	"github.com/turnforge/turnforge/internal/engine"
	"github.com/turnforge/turnforge/internal/events"
	"github.com/turnforge/turnforge/internal/games/tictactoe"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
)

func move(pos int) engine.Decision {
	return engine.Decision{Action: "move", Params: engine.Params{"position": pos}}
}

// playTicTacToe runs X to a top-row win while O makes one illegal decision.
func playTicTacToe(t *testing.T, gameID string, rec *Recorder, before ...events.Listener) engine.Result {
	t.Helper()
	g := tictactoe.New()
	require.NoError(t, g.Setup(nil))
	g.Players()[0].Agent = agent.NewScripted(move(1), move(2), move(3))
	g.Players()[1].Agent = agent.NewScripted(move(4), engine.Decision{Action: "jump"}, move(5))

	bus := events.NewBus()
	for _, l := range before {
		bus.Subscribe(l)
	}
	rec.Attach(bus)
	runner := engine.NewRunner(zaptest.NewLogger(t), engine.WithEventBus(bus), engine.WithGameID(gameID))
	res, err := runner.Run(context.Background(), g)
	require.NoError(t, err)
	return res
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.StartGame(ctx, GameRecord{ID: "b", Game: "nim"}))
	require.NoError(t, s.StartGame(ctx, GameRecord{ID: "a", Game: "nim"}))
	assert.Error(t, s.StartGame(ctx, GameRecord{ID: "a"}), "duplicate id")
	assert.Error(t, s.LogTurn(ctx, TurnRecord{GameID: "zzz"}))
	assert.Error(t, s.EndGame(ctx, "zzz", Outcome{}))

	require.NoError(t, s.LogTurn(ctx, TurnRecord{GameID: "a", Index: 1, Kind: TurnAction}))
	require.NoError(t, s.EndGame(ctx, "a", Outcome{Winner: "Player 1", Turns: 1}))

	log, ok := s.Get("a")
	require.True(t, ok)
	assert.Len(t, log.Turns, 1)
	require.NotNil(t, log.Outcome)
	assert.Equal(t, "Player 1", log.Outcome.Winner)
	assert.Equal(t, []string{"a", "b"}, s.GameIDs())

	log.Turns[0].Index = 99
	again, _ := s.Get("a")
	assert.Equal(t, 1, again.Turns[0].Index)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestRecorderLogsGame(t *testing.T) {
	store := NewMemoryStore()
	dir := t.TempDir()
	rec := NewRecorder(zaptest.NewLogger(t), store, WithReplayDir(dir))

	res := playTicTacToe(t, "game-1", rec)
	require.NoError(t, rec.Err())
	assert.Equal(t, tictactoe.MarkX, res.Winner)

	log, ok := store.Get("game-1")
	require.True(t, ok)
	assert.Equal(t, "tictactoe", log.Game.Game)
	require.Len(t, log.Game.Seats, 2)
	assert.Equal(t, "*agent.Scripted", log.Game.Seats[0].Agent)

	var kinds []TurnKind
	for i, turn := range log.Turns {
		assert.Equal(t, i+1, turn.Index)
		kinds = append(kinds, turn.Kind)
	}
	assert.Equal(t, []TurnKind{TurnAction, TurnAction, TurnAction, TurnRejection, TurnAction, TurnAction}, kinds)

	rejected := log.Turns[3]
	assert.Equal(t, tictactoe.MarkO, rejected.Player)
	assert.NotEmpty(t, rejected.Reason)

	first := log.Turns[0]
	assert.Equal(t, "move", first.Action)
	assert.Equal(t, 1, first.Params["position"])
	require.Len(t, first.Records, 1)
	assert.Equal(t, "X", first.Records[0]["player"])
	assert.Contains(t, first.Views, tictactoe.MarkO)

	require.NotNil(t, log.Outcome)
	assert.Equal(t, Outcome{Winner: tictactoe.MarkX, Turns: 5, EndedAt: log.Outcome.EndedAt}, *log.Outcome)

	_, inMemory := rec.Replay("game-1")
	assert.False(t, inMemory, "saved replays are dropped from memory")

	replay, err := LoadReplayFromFile(dir, "game-1")
	require.NoError(t, err)
	assert.Equal(t, "tictactoe", replay.Game)
	require.Equal(t, 6, replay.Size())
	assert.Equal(t, "start", string(replay.FrameAt(0).Kind))
	last := replay.FrameAt(5)
	assert.Equal(t, 6, last.Index)
	assert.Equal(t, map[string]string{"position": "3"}, last.Params)
	assert.Equal(t, []string{"X move position=3"}, last.Records)
}

type failingStore struct{ NopStore }

func (failingStore) LogTurn(context.Context, TurnRecord) error {
	return errors.New("disk full")
}

func TestRecorderKeepsStoreFailures(t *testing.T) {
	rec := NewRecorder(zaptest.NewLogger(t), failingStore{}, WithWriteTimeout(time.Second))

	frames := -1
	res := playTicTacToe(t, "game-2", rec, func(evt events.Event) {
		if evt.Type != events.GameEnded {
			return
		}
		if replay, ok := rec.Replay(evt.GameID); ok {
			frames = replay.Size()
		}
	})
	assert.True(t, res.Over, "store failures must not stop the game")

	err := rec.Err()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 6)
	assert.Equal(t, 6, frames)

	_, ok := rec.Replay("game-2")
	assert.False(t, ok, "replay must be dropped once the game ends")
}

func TestReplayNavigation(t *testing.T) {
	r := NewReplay("g", "nim")
	for i := 1; i <= 3; i++ {
		r.Record(&Frame{Index: i})
	}

	assert.Nil(t, r.Previous())
	assert.Equal(t, 1, r.Next().Index)
	assert.Equal(t, 2, r.Next().Index)
	assert.Equal(t, 2, r.Previous().Index)
	assert.Equal(t, 3, r.Skip(10).Index)
	assert.Equal(t, 1, r.Skip(-10).Index)

	r.Start()
	assert.Equal(t, 1, r.Next().Index)
	assert.Nil(t, r.FrameAt(3))
	assert.Nil(t, NewReplay("empty", "nim").Skip(1))
}

func TestReplayFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewReplay("g-7", "codenames")
	r.Record(&Frame{Index: 1, Kind: TurnAction, Player: "Red Spymaster", Action: "clue", Views: map[string]string{"Red Spymaster": "grid"}})

	require.NoError(t, r.SaveToFile(dir))
	loaded, err := LoadReplayFromFile(dir, "g-7")
	require.NoError(t, err)
	assert.Equal(t, "codenames", loaded.Game)
	require.Equal(t, 1, loaded.Size())
	assert.Equal(t, "clue", loaded.FrameAt(0).Action)
	assert.Equal(t, "grid", loaded.FrameAt(0).Views["Red Spymaster"])

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestFormatRecord(t *testing.T) {
	got := formatRecord(map[string]any{"type": "remove", "player": "Player 1", "pile": 2, "count": 1})
	assert.Equal(t, "Player 1 remove count=1 pile=2", got)
}
