package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/turnforge/turnforge/internal/events"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxInvalidDecisions is the retry bound used when none is configured.
const DefaultMaxInvalidDecisions = 3

// maxConsecutiveSteps caps automatic steps between two decisions.
const maxConsecutiveSteps = 1 << 16

// TimeoutPolicy decides what an expired decision turns into.
type TimeoutPolicy int

const (
	// TimeoutCountsInvalid counts an expired decision against the retry bound.
	TimeoutCountsInvalid TimeoutPolicy = iota
	// TimeoutForcesDefault applies the game's default decision, if it has one.
	TimeoutForcesDefault
)

func (p TimeoutPolicy) String() string {
	switch p {
	case TimeoutCountsInvalid:
		return "invalid"
	case TimeoutForcesDefault:
		return "default"
	default:
		return "unknown"
	}
}

// ParseTimeoutPolicy maps "invalid" or "default" to a policy.
func ParseTimeoutPolicy(s string) (TimeoutPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "invalid":
		return TimeoutCountsInvalid, nil
	case "default":
		return TimeoutForcesDefault, nil
	default:
		return TimeoutCountsInvalid, fmt.Errorf("unknown timeout policy %q", s)
	}
}

// Result summarizes a finished or aborted game.
type Result struct {
	GameID    string
	Game      string
	Winner    string
	Draw      bool
	Over      bool
	Aborted   bool
	Turns     int // applied actions
	Steps     int // automatic steps
	Rejected  int // invalid decisions across all seats
	Forfeited string
	Duration  time.Duration
}

// Runner drives games: ask the current seat, check the decision, apply it, repeat.
// A Runner may drive several games, one Run call per game instance.
type Runner struct {
	logger        *zap.Logger
	bus           *events.Bus
	maxInvalid    int
	timeout       time.Duration
	timeoutPolicy TimeoutPolicy
	gameID        string
	setup         Options
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxInvalidDecisions sets how many consecutive invalid decisions a seat may make.
// One more ends the game.
func WithMaxInvalidDecisions(n int) Option {
	return func(r *Runner) {
		if n < 0 {
			n = 0
		}
		r.maxInvalid = n
	}
}

// WithDecisionTimeout bounds each agent call. Zero disables the timeout.
func WithDecisionTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithTimeoutPolicy selects how expired decisions are handled.
func WithTimeoutPolicy(p TimeoutPolicy) Option {
	return func(r *Runner) { r.timeoutPolicy = p }
}

// WithEventBus publishes lifecycle events to bus.
func WithEventBus(bus *events.Bus) Option {
	return func(r *Runner) { r.bus = bus }
}

// WithGameID fixes the id of the next game instead of generating one.
func WithGameID(id string) Option {
	return func(r *Runner) { r.gameID = id }
}

// WithSetupOptions records the options the game was set up with on GAME_STARTED.
func WithSetupOptions(opts Options) Option {
	return func(r *Runner) { r.setup = opts }
}

// NewRunner creates a runner.
func NewRunner(logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		logger:     logger,
		maxInvalid: DefaultMaxInvalidDecisions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run is the bookkeeping of one game.
type run struct {
	game       Game
	result     Result
	strikes    map[int]int
	rejections map[int]error
	started    time.Time
	log        *zap.Logger
}

// Run plays g until it is over, the context is cancelled or a seat exceeds the
// retry bound. g must already be set up and every player must have an agent.
func (r *Runner) Run(ctx context.Context, g Game) (Result, error) {
	gameID := r.gameID
	if gameID == "" {
		gameID = uuid.New().String()
	}

	st := &run{
		game:       g,
		result:     Result{GameID: gameID, Game: g.Name()},
		strikes:    make(map[int]int),
		rejections: make(map[int]error),
		started:    time.Now(),
		log:        r.logger.With(zap.String("game_id", gameID), zap.String("game", g.Name())),
	}

	for _, p := range g.Players() {
		if p.Agent == nil {
			return st.result, fmt.Errorf("player %s has no agent", p.Name)
		}
	}

	r.started(st)

	steps := 0
	for {
		if g.State().IsOver() {
			return r.finish(st), nil
		}
		if err := ctx.Err(); err != nil {
			return r.abort(st, err), err
		}

		if sim, ok := g.(Simultaneous); ok {
			if pending := sim.PendingPlayers(); len(pending) > 1 {
				steps = 0
				if err := r.collect(ctx, st, pending); err != nil {
					return r.conclude(st, err), err
				}
				continue
			}
		}

		p := g.CurrentPlayer()
		if p == nil {
			stepper, ok := g.(Stepper)
			if !ok {
				panic(&InvariantViolation{
					What: fmt.Sprintf("%s has no current player and no automatic step", g.Name()),
					Err:  ErrNoCurrentPlayer,
				})
			}
			if steps++; steps > maxConsecutiveSteps {
				Invariant("%s stepped %d times without asking anyone", g.Name(), steps)
			}
			r.step(st, stepper)
			continue
		}
		steps = 0

		turn := r.turn(st, p)
		decision, err := r.ask(ctx, p, turn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The pending decision is dropped; state was never touched.
			return r.abort(st, ctxErr), ctxErr
		}
		if err := r.settle(st, p, decision, err); err != nil {
			return r.conclude(st, err), err
		}
	}
}

// collect asks every pending seat at once against the same state, then settles the
// decisions in seat order. Nothing is applied until every agent has answered.
func (r *Runner) collect(ctx context.Context, st *run, pending []*Player) error {
	pending = append([]*Player(nil), pending...)
	sort.Slice(pending, func(i, j int) bool { return pending[i].Seat < pending[j].Seat })

	turns := make([]Turn, len(pending))
	for i, p := range pending {
		turns[i] = r.turn(st, p)
	}

	decisions := make([]Decision, len(pending))
	errs := make([]error, len(pending))

	var grp errgroup.Group
	for i, p := range pending {
		grp.Go(func() error {
			decisions[i], errs[i] = r.ask(ctx, p, turns[i])
			return nil
		})
	}
	_ = grp.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, p := range pending {
		if err := r.settle(st, p, decisions[i], errs[i]); err != nil {
			return err
		}
	}
	return nil
}

// turn builds the request for p and announces it.
func (r *Runner) turn(st *run, p *Player) Turn {
	attempt := st.strikes[p.Seat] + 1
	st.log.Debug("requesting decision",
		zap.String("player", p.Name),
		zap.Int("seat", p.Seat),
		zap.Int("attempt", attempt),
	)

	evt := events.New(events.DecisionRequested, st.result.GameID)
	evt.Game = st.game.Name()
	evt.Player = p.Name
	evt.Seat = p.Seat
	evt.Attempt = attempt
	r.bus.Publish(evt)

	return Turn{Game: st.game, Player: p, Attempt: attempt, Rejection: st.rejections[p.Seat]}
}

// ask calls the agent, bounded by the decision timeout. An agent that ignores its
// context is abandoned; its late answer is discarded.
func (r *Runner) ask(ctx context.Context, p *Player, turn Turn) (Decision, error) {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if r.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
	}
	defer cancel()

	type reply struct {
		decision Decision
		err      error
	}
	replies := make(chan reply, 1)
	go func() {
		d, err := p.Agent.GetAction(callCtx, turn)
		replies <- reply{decision: d, err: err}
	}()

	select {
	case rep := <-replies:
		if rep.err != nil {
			if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return Decision{}, ErrDecisionTimeout
			}
			return Decision{}, fmt.Errorf("agent for %s failed: %w", p.Name, rep.err)
		}
		return rep.decision, nil
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}
		return Decision{}, ErrDecisionTimeout
	}
}

// settle applies a decision or counts it against the seat. A non-nil error ends the game.
func (r *Runner) settle(st *run, p *Player, d Decision, askErr error) error {
	err := askErr
	if err == nil {
		err = r.play(st, p, d)
	}
	if errors.Is(err, ErrGameOver) {
		return nil
	}

	if errors.Is(err, ErrDecisionTimeout) && r.timeoutPolicy == TimeoutForcesDefault {
		if def, ok := defaultDecision(st.game, p); ok {
			st.log.Warn("decision timed out, applying default",
				zap.String("player", p.Name),
				zap.String("action", def.Action),
			)
			if derr := r.play(st, p, def); derr == nil {
				err = nil
			} else {
				err = fmt.Errorf("%w: default refused: %v", ErrDecisionTimeout, derr)
			}
		}
	}

	if err == nil {
		delete(st.strikes, p.Seat)
		delete(st.rejections, p.Seat)
		return nil
	}
	return r.reject(st, p, err)
}

func defaultDecision(g Game, p *Player) (Decision, bool) {
	d, ok := g.(Defaulter)
	if !ok {
		return Decision{}, false
	}
	return d.DefaultDecision(p)
}

// play checks d against the schema and the rules, then applies it.
func (r *Runner) play(st *run, p *Player, d Decision) error {
	g := st.game
	if g.State().IsOver() {
		return ErrGameOver
	}

	action, err := FindAction(g, p, d.Action)
	if err != nil {
		return err
	}
	params, err := action.Schema().Coerce(action.Name(), d.Params)
	if err != nil {
		return err
	}
	if !action.Validate(g, p, params) {
		return &RuleViolation{Action: action.Name(), Player: p.Name, Params: params}
	}

	before := g.History().Len()
	action.Apply(g, p, params)
	if appended := g.History().Len() - before; appended != 1 {
		Invariant("%s %s appended %d history records, want 1", g.Name(), action.Name(), appended)
	}
	st.result.Turns++
	if g.State().IsOver() {
		g.History().Close()
	}

	rec, _ := g.History().Last()
	st.log.Info("action applied",
		zap.String("player", p.Name),
		zap.String("action", action.Name()),
		zap.Stringer("params", params),
		zap.Stringer("record", rec),
	)

	evt := events.New(events.ActionApplied, st.result.GameID)
	evt.Game = g.Name()
	evt.Player = p.Name
	evt.Seat = p.Seat
	evt.Action = action.Name()
	evt.Params = params.Clone()
	evt.Records = []map[string]any{rec.Map()}
	evt.Views = r.views(g)
	evt.Metadata["reasoning"] = d.Reasoning
	if t, ok := p.Agent.(Transcriber); ok {
		evt.Metadata["prompt"], evt.Metadata["response"] = t.LastExchange()
	}
	r.bus.Publish(evt)
	return nil
}

func (r *Runner) step(st *run, stepper Stepper) {
	g := st.game
	before := g.History().Len()
	stepper.Step()
	st.result.Steps++
	if g.State().IsOver() {
		g.History().Close()
	}

	all := g.History().Records()
	var records []map[string]any
	if before < len(all) {
		for _, rec := range all[before:] {
			records = append(records, rec.Map())
		}
	}
	st.log.Debug("automatic step resolved", zap.Int("records", len(records)))

	evt := events.New(events.StepResolved, st.result.GameID)
	evt.Game = g.Name()
	evt.Records = records
	evt.Views = r.views(g)
	r.bus.Publish(evt)
}

// reject counts an invalid decision against p and forfeits the seat past the bound.
func (r *Runner) reject(st *run, p *Player, err error) error {
	st.strikes[p.Seat]++
	st.rejections[p.Seat] = err
	st.result.Rejected++
	n := st.strikes[p.Seat]

	st.log.Warn("decision rejected",
		zap.String("player", p.Name),
		zap.Int("strike", n),
		zap.Int("max_invalid", r.maxInvalid),
		zap.String("class", errorClass(err)),
		zap.Error(err),
	)

	evt := events.New(events.DecisionRejected, st.result.GameID)
	evt.Game = st.game.Name()
	evt.Player = p.Name
	evt.Seat = p.Seat
	evt.Attempt = n
	evt.Reason = err.Error()
	evt.Metadata["class"] = errorClass(err)
	r.bus.Publish(evt)

	if n <= r.maxInvalid {
		return nil
	}
	return r.forfeit(st, p, n, err)
}

func (r *Runner) forfeit(st *run, p *Player, attempts int, last error) error {
	exceeded := &RetryBoundExceededError{Player: p.Name, Attempts: attempts, Last: last}
	st.result.Forfeited = p.Name

	if f, ok := st.game.(Forfeiter); ok && !st.game.State().IsOver() {
		f.Forfeit(p)
	}

	st.log.Error("retry bound exceeded",
		zap.String("player", p.Name),
		zap.Int("attempts", attempts),
		zap.Bool("forced_outcome", st.game.State().IsOver()),
		zap.Error(last),
	)

	evt := events.New(events.PlayerForfeited, st.result.GameID)
	evt.Game = st.game.Name()
	evt.Player = p.Name
	evt.Seat = p.Seat
	evt.Attempt = attempts
	evt.Reason = exceeded.Error()
	r.bus.Publish(evt)

	return exceeded
}

func (r *Runner) started(st *run) {
	g := st.game
	names := make([]string, 0, len(g.Players()))
	seats := make([]events.Seat, 0, len(g.Players()))
	for _, p := range g.Players() {
		names = append(names, p.Name)
		seats = append(seats, events.Seat{
			Name:  p.Name,
			Team:  p.Team,
			Role:  p.Role,
			Seat:  p.Seat,
			Agent: fmt.Sprintf("%T", p.Agent),
		})
	}

	st.log.Info("game started",
		zap.Strings("players", names),
		zap.Int("max_invalid", r.maxInvalid),
		zap.Duration("decision_timeout", r.timeout),
	)

	evt := events.New(events.GameStarted, st.result.GameID)
	evt.Game = g.Name()
	evt.Seats = seats
	evt.Config = r.setup
	evt.Views = r.views(g)
	r.bus.Publish(evt)
}

// conclude reports a game that stopped on err: a forced outcome counts as finished.
func (r *Runner) conclude(st *run, err error) Result {
	if st.game.State().IsOver() {
		return r.finish(st)
	}
	return r.abort(st, err)
}

func (r *Runner) finish(st *run) Result {
	g := st.game
	if !g.History().Closed() {
		g.History().Close()
	}
	st.result.Over = true
	st.result.Winner = g.State().Winner()
	st.result.Draw = st.result.Winner == ""
	st.result.Duration = time.Since(st.started)

	st.log.Info("game over",
		zap.String("winner", st.result.Winner),
		zap.Bool("draw", st.result.Draw),
		zap.Int("turns", st.result.Turns),
		zap.Int("rejected", st.result.Rejected),
		zap.Duration("duration", st.result.Duration),
	)
	r.ended(st, "")
	return st.result
}

func (r *Runner) abort(st *run, err error) Result {
	st.result.Aborted = true
	st.result.Duration = time.Since(st.started)

	st.log.Warn("game aborted",
		zap.Int("turns", st.result.Turns),
		zap.Error(err),
	)
	r.ended(st, err.Error())
	return st.result
}

func (r *Runner) ended(st *run, reason string) {
	evt := events.New(events.GameEnded, st.result.GameID)
	evt.Game = st.game.Name()
	evt.Winner = st.result.Winner
	evt.Turns = st.result.Turns
	evt.Aborted = st.result.Aborted
	evt.Reason = reason
	evt.Views = r.views(st.game)
	r.bus.Publish(evt)
}

// views renders every seat's board only when someone listens.
func (r *Runner) views(g Game) map[string]string {
	if r.bus.Len() == 0 {
		return nil
	}
	out := make(map[string]string, len(g.Players()))
	for _, p := range g.Players() {
		out[p.Name] = View(g, p)
	}
	return out
}

func errorClass(err error) string {
	var schemaErr *SchemaError
	var ruleErr *RuleViolation
	switch {
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &ruleErr):
		return "rule"
	case errors.Is(err, ErrDecisionTimeout):
		return "timeout"
	default:
		return "agent"
	}
}
