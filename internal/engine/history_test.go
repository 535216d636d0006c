package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryToPromptEmpty(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, "No previous rounds have been played yet.", h.ToPrompt(3))

	h.StartRound()
	assert.Equal(t, "No previous rounds have been played yet.", h.ToPrompt(3))
}

func TestHistoryToPromptKeepsLastRounds(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 4; i++ {
		h.StartRound()
		h.Append(NewRecord("move", "X", "position", i))
	}

	prompt := h.ToPrompt(3)
	assert.NotContains(t, prompt, "Round 1:")
	assert.Contains(t, prompt, "Round 2:")
	assert.Contains(t, prompt, "Round 4:")
	assert.Contains(t, prompt, "- X move position=4")

	all := h.ToPrompt(0)
	assert.Contains(t, all, "Round 1:")
}

func TestHistoryAppendOrder(t *testing.T) {
	h := NewHistory()
	h.Append(NewRecord("a", "p1"))
	h.StartRound()
	h.Append(NewRecord("b", "p2"))
	h.Append(NewRecord("c", "p1"))

	require.Equal(t, 3, h.Len())
	require.Len(t, h.Rounds(), 2)

	var types []string
	for _, r := range h.Records() {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{"a", "b", "c"}, types)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last.Type)
}

func TestHistoryClosed(t *testing.T) {
	h := NewHistory()
	h.Append(NewRecord("move", "X"))
	h.Close()

	assert.True(t, h.Closed())
	assert.Panics(t, func() { h.Append(NewRecord("move", "O")) })
	assert.Equal(t, 1, h.Len())
}

func TestRecordFormatting(t *testing.T) {
	r := NewRecord("remove", "Player 1", "pile", 2, "count", 1)
	assert.Equal(t, "Player 1 remove pile=2 count=1", r.String())

	v, ok := r.Get("pile")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	m := r.Map()
	assert.Equal(t, "remove", m["type"])
	assert.Equal(t, "Player 1", m["player"])
	assert.Equal(t, 1, m["count"])

	assert.Equal(t, "Unknown unknown", Record{}.String())
}

func TestStatusFinishOnce(t *testing.T) {
	var s Status
	assert.False(t, s.IsOver())

	s.Finish("")
	assert.True(t, s.IsOver())
	assert.Equal(t, "", s.Winner())

	assert.Panics(t, func() { s.Finish("X") })
	assert.Equal(t, "", s.Winner())
}
