package all

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnforge/turnforge/internal/agent"
	"github.com/turnforge/turnforge/internal/engine"
	"go.uber.org/zap/zaptest"
)

var seeded = map[string]engine.Options{
	"codenames":  {"seed": 11},
	"incangold":  {"seed": 11, "players": 4},
	"loveletter": {"seed": 11, "players": 3},
	"nim":        {},
	"tictactoe":  {},
}

func TestEveryGameIsRegistered(t *testing.T) {
	names := engine.GameNames()
	for name := range seeded {
		assert.Contains(t, names, name)
	}
}

func TestRandomAgentsFinishEveryGame(t *testing.T) {
	for _, name := range engine.GameNames() {
		t.Run(name, func(t *testing.T) {
			g, err := engine.NewGame(name)
			require.NoError(t, err)
			require.NoError(t, g.Setup(seeded[name]))
			for _, p := range g.Players() {
				p.Agent = agent.NewRandom(int64(100 + p.Seat))
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			res, err := engine.NewRunner(zaptest.NewLogger(t)).Run(ctx, g)
			require.NoError(t, err)
			assert.True(t, res.Over)
			assert.Equal(t, 0, res.Rejected, "legal decisions must always validate")
			assert.True(t, g.History().Closed())
			assert.Nil(t, g.CurrentPlayer())
		})
	}
}
