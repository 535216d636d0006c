package gamelog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	game       TEXT NOT NULL,
	seats      JSONB NOT NULL DEFAULT '[]',
	config     JSONB NOT NULL DEFAULT '{}',
	started_at TIMESTAMPTZ NOT NULL,
	ended_at   TIMESTAMPTZ,
	winner     TEXT,
	draw       BOOLEAN,
	aborted    BOOLEAN,
	turns      INTEGER,
	end_reason TEXT
);

CREATE TABLE IF NOT EXISTS turns (
	game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	player     TEXT NOT NULL DEFAULT '',
	seat       INTEGER NOT NULL DEFAULT -1,
	action     TEXT NOT NULL DEFAULT '',
	params     JSONB NOT NULL DEFAULT '{}',
	records    JSONB NOT NULL DEFAULT '[]',
	views      JSONB NOT NULL DEFAULT '{}',
	reasoning  TEXT NOT NULL DEFAULT '',
	prompt     TEXT NOT NULL DEFAULT '',
	response   TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, idx)
);

CREATE INDEX IF NOT EXISTS games_game_idx ON games (game, started_at);
`

// PostgresStore writes game logs to PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to url and verifies the connection. maxConns <= 0 keeps
// the pool default.
func NewPostgresStore(ctx context.Context, url string, maxConns int32, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", zap.Int32("max_conns", cfg.MaxConns))
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Migrate creates the games and turns tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate game log schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) StartGame(ctx context.Context, game GameRecord) error {
	seats := any(game.Seats)
	if game.Seats == nil {
		seats = []any{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, game, seats, config, started_at) VALUES ($1, $2, $3, $4, $5)`,
		game.ID, game.Game, seats, orEmpty(game.Config), game.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", game.ID, err)
	}
	return nil
}

func (s *PostgresStore) LogTurn(ctx context.Context, turn TurnRecord) error {
	records := turn.Records
	if records == nil {
		records = []map[string]any{}
	}
	views := turn.Views
	if views == nil {
		views = map[string]string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO turns (game_id, idx, kind, player, seat, action, params, records, views,
			reasoning, prompt, response, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		turn.GameID, turn.Index, string(turn.Kind), turn.Player, turn.Seat, turn.Action,
		orEmpty(turn.Params), records, views,
		turn.Reasoning, turn.Prompt, turn.Response, turn.Reason, turn.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn %d of game %s: %w", turn.Index, turn.GameID, err)
	}
	return nil
}

func (s *PostgresStore) EndGame(ctx context.Context, gameID string, outcome Outcome) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET ended_at = $2, winner = $3, draw = $4, aborted = $5, turns = $6, end_reason = $7
		WHERE id = $1`,
		gameID, outcome.EndedAt, outcome.Winner, outcome.Draw, outcome.Aborted, outcome.Turns, outcome.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to update game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
