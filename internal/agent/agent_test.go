package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turnforge/turnforge/internal/engine"
	"github.com/turnforge/turnforge/internal/games/tictactoe"
	"go.uber.org/zap/zaptest"
)

func newTurn(t *testing.T) engine.Turn {
	t.Helper()
	g := tictactoe.New()
	require.NoError(t, g.Setup(nil))
	return engine.Turn{Game: g, Player: g.CurrentPlayer(), Attempt: 1}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"human": KindHuman, " LLM ": KindLLM, "Random": KindRandom} {
		k, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, k)
	}
	_, err := ParseKind("oracle")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	a, err := New(KindRandom, 1, Deps{Seed: 3})
	require.NoError(t, err)
	assert.IsType(t, &Random{}, a)

	_, err = New(KindHuman, 0, Deps{})
	assert.Error(t, err, "human needs a console")

	_, err = New(KindLLM, 0, Deps{})
	assert.Error(t, err, "llm needs a generator")

	gen := GeneratorFunc(func(context.Context, string, string) (string, error) { return "", nil })
	a, err = New(KindLLM, 0, Deps{Generator: gen, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	assert.IsType(t, &LLM{}, a)
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		text string
		want engine.Decision
	}{
		{
			name: "plain yaml",
			text: "action: move\nparams:\n  position: 5\nreasoning: take the center",
			want: engine.Decision{Action: "move", Params: engine.Params{"position": 5}, Reasoning: "take the center"},
		},
		{
			name: "fenced",
			text: "Here is my move:\n```yaml\naction: remove\nparams:\n  pile: 2\n  count: 1\n```\nGood luck!",
			want: engine.Decision{Action: "remove", Params: engine.Params{"pile": 2, "count": 1}},
		},
		{
			name: "json",
			text: `{"action": "guess", "params": {"codename": "Ace"}}`,
			want: engine.Decision{Action: "guess", Params: engine.Params{"codename": "Ace"}},
		},
		{
			name: "top-level params",
			text: "action: move\nposition: 7",
			want: engine.Decision{Action: "move", Params: engine.Params{"position": 7}},
		},
		{
			name: "null action",
			text: "action: null\nparams:\n  position: 1",
			want: engine.Decision{Params: engine.Params{"position": 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestParseDecisionErrors(t *testing.T) {
	for _, text := range []string{"", "   ", "just some prose", "action: move\nparams: [1, 2]"} {
		_, err := ParseDecision(text)
		var schemaErr *engine.SchemaError
		assert.ErrorAs(t, err, &schemaErr, "%q", text)
	}
}

func TestParseLine(t *testing.T) {
	d, err := ParseLine("remove pile=2 count=1\n")
	require.NoError(t, err)
	assert.Equal(t, engine.Decision{Action: "remove", Params: engine.Params{"pile": "2", "count": "1"}}, d)

	d, err = ParseLine("position=5")
	require.NoError(t, err)
	assert.Equal(t, "", d.Action)
	assert.Equal(t, "5", d.Params["position"])

	d, err = ParseLine("action=decide choice=return")
	require.NoError(t, err)
	assert.Equal(t, "decide", d.Action)

	for _, bad := range []string{"", "move 5", "move =5"} {
		_, err := ParseLine(bad)
		var schemaErr *engine.SchemaError
		assert.ErrorAs(t, err, &schemaErr, "%q", bad)
	}
}

func TestScriptedReplaysInOrder(t *testing.T) {
	first := engine.Decision{Action: "move", Params: engine.Params{"position": 1}}
	second := engine.Decision{Action: "move", Params: engine.Params{"position": 2}}
	s := NewScripted(first, second)
	turn := newTurn(t)

	d, err := s.GetAction(context.Background(), turn)
	require.NoError(t, err)
	assert.Equal(t, first, d)
	d, err = s.GetAction(context.Background(), turn)
	require.NoError(t, err)
	assert.Equal(t, second, d)

	_, err = s.GetAction(context.Background(), turn)
	assert.ErrorIs(t, err, ErrScriptExhausted)
	assert.Equal(t, 3, s.Calls())
}

func TestRandomPicksLegalMoves(t *testing.T) {
	turn := newTurn(t)
	r := NewRandom(42)
	g := turn.Game.(*tictactoe.Game)

	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		d, err := r.GetAction(context.Background(), turn)
		require.NoError(t, err)
		assert.Equal(t, "move", d.Action)
		pos := d.Params.Int("position")
		assert.True(t, tictactoe.Move{}.Validate(g, turn.Player, d.Params), "position %d", pos)
		seen[pos] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestRandomNeedsMoveLister(t *testing.T) {
	turn := newTurn(t)
	turn.Game = struct{ engine.Game }{turn.Game}
	_, err := NewRandom(1).GetAction(context.Background(), turn)
	assert.Error(t, err)
}

func TestTemplatePrompts(t *testing.T) {
	prompts, err := NewTemplatePrompts(3)
	require.NoError(t, err)

	turn := newTurn(t)
	system, user, err := prompts.Build(turn)
	require.NoError(t, err)
	assert.Contains(t, system, "You are playing tictactoe as X")
	assert.Contains(t, system, "action: <action name>")
	assert.Contains(t, user, "Current board:")
	assert.Contains(t, user, "No previous rounds have been played yet.")
	assert.Contains(t, user, "- move")
	assert.NotContains(t, user, "rejected")

	turn.Attempt = 2
	turn.Rejection = errors.New("position 5 is taken")
	_, user, err = prompts.Build(turn)
	require.NoError(t, err)
	assert.Contains(t, user, "Your previous decision was rejected: position 5 is taken")
	assert.Contains(t, user, "This is attempt 2.")
}

func TestLLMAsksGenerator(t *testing.T) {
	var gotSystem, gotUser string
	gen := GeneratorFunc(func(_ context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "```yaml\naction: move\nparams:\n  position: 5\nreasoning: center\n```", nil
	})
	llm, err := NewLLM(gen, zaptest.NewLogger(t))
	require.NoError(t, err)

	d, err := llm.GetAction(context.Background(), newTurn(t))
	require.NoError(t, err)
	assert.Equal(t, "move", d.Action)
	assert.Equal(t, 5, d.Params.Int("position"))
	assert.Equal(t, "center", d.Reasoning)
	assert.NotEmpty(t, gotSystem)

	prompt, response := llm.LastExchange()
	assert.Equal(t, gotUser, prompt)
	assert.Contains(t, response, "reasoning: center")
}

func TestLLMErrors(t *testing.T) {
	failing := GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	llm, err := NewLLM(failing, nil)
	require.NoError(t, err)
	_, err = llm.GetAction(context.Background(), newTurn(t))
	assert.ErrorContains(t, err, "quota exceeded")

	rambling := GeneratorFunc(func(context.Context, string, string) (string, error) {
		return "I think the center is best.", nil
	})
	llm, err = NewLLM(rambling, nil)
	require.NoError(t, err)
	_, err = llm.GetAction(context.Background(), newTurn(t))
	var schemaErr *engine.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	_, response := llm.LastExchange()
	assert.Equal(t, "I think the center is best.", response)
}

func TestHumanReadsConsole(t *testing.T) {
	var out bytes.Buffer
	h := NewHuman(NewConsole(strings.NewReader("move position=5\n"), &out), 3)

	turn := newTurn(t)
	turn.Rejection = errors.New("position 10 is out of range")
	d, err := h.GetAction(context.Background(), turn)
	require.NoError(t, err)
	assert.Equal(t, "move", d.Action)
	assert.Equal(t, "5", d.Params["position"])

	shown := out.String()
	assert.Contains(t, shown, "=== X ===")
	assert.Contains(t, shown, "Actions:")
	assert.Contains(t, shown, "Rejected: position 10 is out of range")
	assert.True(t, strings.HasSuffix(shown, "> "))
}

func TestHumanLastLineWithoutNewline(t *testing.T) {
	h := NewHuman(NewConsole(strings.NewReader("position=3"), io.Discard), 0)
	d, err := h.GetAction(context.Background(), newTurn(t))
	require.NoError(t, err)
	assert.Equal(t, "3", d.Params["position"])

	_, err = h.GetAction(context.Background(), newTurn(t))
	assert.ErrorIs(t, err, io.EOF)
}

func TestHumanHonoursCancellation(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	h := NewHuman(NewConsole(r, io.Discard), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.GetAction(ctx, newTurn(t))
	assert.ErrorIs(t, err, context.Canceled)
}
