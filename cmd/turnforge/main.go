package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/turnforge/turnforge/internal/agent"
	"github.com/turnforge/turnforge/internal/config"
	"github.com/turnforge/turnforge/internal/engine"
	"github.com/turnforge/turnforge/internal/events"
	"github.com/turnforge/turnforge/internal/gamelog"
	_ "github.com/turnforge/turnforge/internal/games/all" // Import to register games
	"github.com/turnforge/turnforge/internal/tournament"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	gameName   = flag.String("game", "", "game to play, overrides game.name")
	games      = flag.Int("games", 0, "number of games to play as a tournament, overrides tournament.games")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *gameName != "" {
		cfg.Game.Name = *gameName
	}
	if *games > 0 {
		cfg.Tournament.Games = *games
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting turnforge",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("game", cfg.Game.Name),
		zap.Strings("available_games", engine.GameNames()),
	)

	// Create context that is cancelled on termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("turnforge stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if _, err := engine.NewGame(cfg.Game.Name); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	var recOpts []gamelog.RecorderOption
	if cfg.Replay.Enabled {
		recOpts = append(recOpts, gamelog.WithReplayDir(cfg.Replay.Directory))
	}
	recorder := gamelog.NewRecorder(logger.Named("gamelog"), store, recOpts...)
	recorder.Attach(bus)

	kinds, err := seatKinds(cfg.Game.Seats)
	if err != nil {
		return err
	}

	deps := agent.Deps{
		Logger:        logger.Named("agent"),
		Console:       agent.NewConsole(os.Stdin, os.Stdout),
		HistoryRounds: cfg.Runner.HistoryPromptRounds,
		Seed:          cfg.Game.Seed,
	}
	if slices.Contains(kinds, agent.KindLLM) {
		gen, err := agent.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature)
		if err != nil {
			return fmt.Errorf("failed to initialize llm agent: %w", err)
		}
		defer gen.Close()
		deps.Generator = gen
		logger.Info("llm generator initialized", zap.String("model", cfg.LLM.Model))
	}

	policy, err := engine.ParseTimeoutPolicy(cfg.Runner.TimeoutPolicy)
	if err != nil {
		return err
	}
	runnerOpts := []engine.Option{
		engine.WithMaxInvalidDecisions(cfg.Runner.MaxInvalidDecisions),
		engine.WithDecisionTimeout(cfg.Runner.DecisionTimeout),
		engine.WithTimeoutPolicy(policy),
		engine.WithEventBus(bus),
	}

	agents := func(index int, p *engine.Player) (engine.Agent, error) {
		kind := agent.KindRandom
		if p.Seat < len(kinds) {
			kind = kinds[p.Seat]
		}
		d := deps
		if d.Seed != 0 {
			d.Seed += int64(index) * 1000
		}
		return agent.New(kind, p.Seat, d)
	}

	if cfg.Tournament.Games > 1 {
		err = runTournament(ctx, cfg, logger, agents, runnerOpts)
	} else {
		err = runSingle(ctx, cfg, logger, agents, runnerOpts)
	}

	if recErr := recorder.Err(); recErr != nil {
		logger.Warn("game log incomplete", zap.Error(recErr))
	}
	return err
}

func runSingle(ctx context.Context, cfg *config.Config, logger *zap.Logger, agents tournament.AgentFactory, runnerOpts []engine.Option) error {
	g, err := engine.NewGame(cfg.Game.Name)
	if err != nil {
		return err
	}
	opts := engine.Options(cfg.Game.Options)
	if err := g.Setup(opts); err != nil {
		return fmt.Errorf("failed to set up %s: %w", cfg.Game.Name, err)
	}
	for _, p := range g.Players() {
		a, err := agents(0, p)
		if err != nil {
			return fmt.Errorf("failed to create agent for %s: %w", p.Name, err)
		}
		p.Agent = a
	}

	runner := engine.NewRunner(logger.Named("runner"), append(runnerOpts, engine.WithSetupOptions(opts))...)
	res, err := runner.Run(ctx, g)

	logger.Info("game result",
		zap.String("game_id", res.GameID),
		zap.String("winner", res.Winner),
		zap.Bool("draw", res.Over && res.Draw),
		zap.Bool("aborted", res.Aborted),
		zap.String("forfeited", res.Forfeited),
		zap.Int("turns", res.Turns),
		zap.Int("rejected", res.Rejected),
		zap.Duration("duration", res.Duration),
	)

	var exceeded *engine.RetryBoundExceededError
	if errors.As(err, &exceeded) && res.Over {
		return nil
	}
	return err
}

func runTournament(ctx context.Context, cfg *config.Config, logger *zap.Logger, agents tournament.AgentFactory, runnerOpts []engine.Option) error {
	mgr := tournament.NewManager(logger.Named("tournament"))
	t, err := mgr.Run(ctx, tournament.Spec{
		Name:          fmt.Sprintf("%s x%d", cfg.Game.Name, cfg.Tournament.Games),
		Game:          cfg.Game.Name,
		Options:       engine.Options(cfg.Game.Options),
		Games:         cfg.Tournament.Games,
		Parallelism:   cfg.Tournament.Parallelism,
		Agents:        agents,
		RunnerOptions: runnerOpts,
	})
	if t != nil {
		snap := t.Snapshot()
		logger.Info("tournament result",
			zap.String("tournament_id", snap.ID),
			zap.Stringer("state", snap.State),
			zap.Int("completed", snap.Completed),
			zap.Int("games", snap.Games),
		)
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (gamelog.Store, error) {
	if !cfg.Database.Enabled {
		logger.Info("database disabled, keeping game logs in memory")
		return gamelog.NewMemoryStore(), nil
	}

	store, err := gamelog.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.MaxConns, logger.Named("db"))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func seatKinds(seats []string) ([]agent.Kind, error) {
	kinds := make([]agent.Kind, 0, len(seats))
	for i, s := range seats {
		k, err := agent.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("seat %d: %w", i, err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
