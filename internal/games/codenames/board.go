package codenames

import (
	"fmt"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Board renders the 5x5 grid. Revealed cards show their type to everyone; hidden
// card types are shown to Spymasters only.
type Board struct {
	state *State
}

var spymasterOnly = engine.RoleEntity(Spymaster)

func (b *Board) View(ctx engine.ViewContext) string {
	s := b.state
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== CODENAMES: %s team's turn ===\n", s.Team)
	fmt.Fprintf(&sb, "Agents left: Red %d, Blue %d\n", s.Remaining[Red], s.Remaining[Blue])
	if s.Clue != "" {
		fmt.Fprintf(&sb, "Clue: %q for %d, %d guesses left\n", s.Clue, s.ClueCount, s.Guesses)
	}
	sb.WriteString("\n")

	for i, c := range s.Cards {
		fmt.Fprintf(&sb, "%-24s", b.cell(c, ctx.Player))
		if i%5 == 4 {
			sb.WriteString("\n")
		}
	}

	if s.IsOver() {
		fmt.Fprintf(&sb, "\nGame over. Winner: %s\n", s.Winner())
	}
	return sb.String()
}

func (b *Board) cell(c *Card, viewer *engine.Player) string {
	if c.Revealed {
		return fmt.Sprintf("[%s: %s]", c.Word, c.Type)
	}
	return engine.Reveal(spymasterOnly, viewer, func() string {
		return fmt.Sprintf("%s (%s)", c.Word, c.Type)
	}, c.Word)
}

// PromptView appends the hidden codenames as a plain list.
func (b *Board) PromptView(ctx engine.ViewContext) string {
	words := make([]string, 0, boardSize)
	for _, c := range b.state.hidden() {
		words = append(words, b.cell(c, ctx.Player))
	}
	return b.View(ctx) + "\nHidden codenames: " + strings.Join(words, ", ") + "\n"
}
