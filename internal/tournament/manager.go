package tournament

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turnforge/turnforge/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State represents the state of a tournament
type State int

const (
	StateWaiting State = iota
	StateInProgress
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// AgentFactory builds the agent for seat p of game instance index. It is called once
// per seat per game, so agents are never shared between games.
type AgentFactory func(index int, p *engine.Player) (engine.Agent, error)

// Spec describes a batch of independent games of one kind.
type Spec struct {
	Name        string
	Game        string
	Options     engine.Options
	Games       int
	Parallelism int
	Agents      AgentFactory
	// RunnerOptions are applied to every game's runner. WithGameID must not be used here.
	RunnerOptions []engine.Option
}

func (s Spec) check() error {
	if s.Game == "" {
		return fmt.Errorf("tournament game is required")
	}
	if s.Games < 1 {
		return fmt.Errorf("tournament needs at least one game, got %d", s.Games)
	}
	if s.Agents == nil {
		return fmt.Errorf("tournament agent factory is required")
	}
	if _, err := engine.NewGame(s.Game); err != nil {
		return err
	}
	return nil
}

// Standing is the record of one seat name across the tournament.
type Standing struct {
	Name   string
	Wins   int
	Losses int
	Draws  int
	Aborts int
}

// Played returns the number of games the seat took part in.
func (s Standing) Played() int {
	return s.Wins + s.Losses + s.Draws + s.Aborts
}

// GameResult is the outcome of one game instance.
type GameResult struct {
	Index  int
	Result engine.Result
	// Err is the runner error, such as a forfeit past the retry bound.
	Err error
}

// Snapshot captures a consistent view of a tournament.
type Snapshot struct {
	ID         string
	Name       string
	Game       string
	State      State
	Games      int
	Completed  int
	Standings  []Standing
	Results    []GameResult
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time
}

// Tournament is one batch of games and its running standings.
type Tournament struct {
	ID         string
	Name       string
	Game       string
	Games      int
	State      State
	CreateTime time.Time
	StartTime  *time.Time
	EndTime    *time.Time

	standings map[string]*Standing
	order     []string
	results   []GameResult
	mu        sync.RWMutex
}

// NewTournament creates a tournament in the WAITING state.
func NewTournament(name, game string, games int) *Tournament {
	return &Tournament{
		ID:         uuid.New().String(),
		Name:       name,
		Game:       game,
		Games:      games,
		State:      StateWaiting,
		CreateTime: time.Now(),
		standings:  make(map[string]*Standing),
	}
}

// SetState updates the tournament state
func (t *Tournament) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	switch state {
	case StateInProgress:
		t.StartTime = &now
	case StateFinished:
		t.EndTime = &now
	}
	t.State = state
}

// GetState returns the current tournament state
func (t *Tournament) GetState() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.State
}

// RecordResult tallies a finished or aborted game for every seat in players.
// A seat wins when the winner names it or its team.
func (t *Tournament) RecordResult(index int, players []*engine.Player, res engine.Result, runErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = append(t.results, GameResult{Index: index, Result: res, Err: runErr})
	for _, p := range players {
		s := t.standing(p.Name)
		switch {
		case !res.Over:
			s.Aborts++
		case res.Winner == "":
			s.Draws++
		case res.Winner == p.Name || (p.Team != "" && res.Winner == p.Team):
			s.Wins++
		default:
			s.Losses++
		}
	}
}

func (t *Tournament) standing(name string) *Standing {
	s, ok := t.standings[name]
	if !ok {
		s = &Standing{Name: name}
		t.standings[name] = s
		t.order = append(t.order, name)
	}
	return s
}

// Standings returns seat records ordered by wins, then draws, then first appearance.
func (t *Tournament) Standings() []Standing {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedStandings()
}

func (t *Tournament) sortedStandings() []Standing {
	out := make([]Standing, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.standings[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Draws > out[j].Draws
	})
	return out
}

// Snapshot returns a consistent copy of the tournament state.
func (t *Tournament) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	results := append([]GameResult(nil), t.results...)
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })

	return Snapshot{
		ID:         t.ID,
		Name:       t.Name,
		Game:       t.Game,
		State:      t.State,
		Games:      t.Games,
		Completed:  len(t.results),
		Standings:  t.sortedStandings(),
		Results:    results,
		CreateTime: t.CreateTime,
		StartTime:  cloneTime(t.StartTime),
		EndTime:    cloneTime(t.EndTime),
	}
}

func cloneTime(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// Manager runs tournaments.
type Manager struct {
	logger *zap.Logger
}

// NewManager creates a new tournament manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Run plays spec.Games independent games, at most spec.Parallelism at a time. Every
// game gets its own game instance, agents and runner. Forfeits and aborted games are
// tallied, not returned; Run fails on bad setup, agent construction or cancellation.
func (m *Manager) Run(ctx context.Context, spec Spec) (*Tournament, error) {
	if err := spec.check(); err != nil {
		return nil, fmt.Errorf("failed to start tournament: %w", err)
	}
	parallelism := spec.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	t := NewTournament(spec.Name, spec.Game, spec.Games)

	log := m.logger.With(zap.String("tournament_id", t.ID), zap.String("game", spec.Game))
	log.Info("tournament started",
		zap.String("name", spec.Name),
		zap.Int("games", spec.Games),
		zap.Int("parallelism", parallelism),
	)
	t.SetState(StateInProgress)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(parallelism)
	for i := 0; i < spec.Games; i++ {
		if gctx.Err() != nil {
			break
		}
		grp.Go(func() error {
			return m.play(gctx, log, t, spec, i)
		})
	}
	err := grp.Wait()
	if err == nil {
		err = ctx.Err()
	}

	t.SetState(StateFinished)
	snap := t.Snapshot()
	if err != nil {
		log.Warn("tournament stopped",
			zap.Int("completed", snap.Completed),
			zap.Error(err),
		)
		return t, err
	}

	log.Info("tournament finished", zap.Int("completed", snap.Completed))
	for _, s := range snap.Standings {
		log.Info("standing",
			zap.String("player", s.Name),
			zap.Int("wins", s.Wins),
			zap.Int("losses", s.Losses),
			zap.Int("draws", s.Draws),
			zap.Int("aborts", s.Aborts),
		)
	}
	return t, nil
}

func (m *Manager) play(ctx context.Context, log *zap.Logger, t *Tournament, spec Spec, index int) error {
	g, err := engine.NewGame(spec.Game)
	if err != nil {
		return err
	}
	opts := spec.Options.Clone()
	if err := g.Setup(opts); err != nil {
		return fmt.Errorf("failed to set up game %d: %w", index, err)
	}
	for _, p := range g.Players() {
		a, err := spec.Agents(index, p)
		if err != nil {
			return fmt.Errorf("failed to create agent for %s in game %d: %w", p.Name, index, err)
		}
		p.Agent = a
	}

	runnerOpts := append([]engine.Option{engine.WithSetupOptions(opts)}, spec.RunnerOptions...)
	res, runErr := engine.NewRunner(log.With(zap.Int("index", index)), runnerOpts...).Run(ctx, g)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exceeded *engine.RetryBoundExceededError
	if runErr != nil && !errors.As(runErr, &exceeded) {
		log.Warn("game failed", zap.Int("index", index), zap.Error(runErr))
	}
	t.RecordResult(index, g.Players(), res, runErr)
	return nil
}
