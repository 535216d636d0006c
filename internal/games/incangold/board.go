package incangold

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Board renders the temple. Each explorer sees the public path plus their own
// carried gems and camp collection; other seats show only whether they are inside.
type Board struct {
	state   *State
	players []*engine.Player
}

func (b *Board) View(ctx engine.ViewContext) string {
	s := b.state
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== INCAN GOLD: round %d/%d, phase %s ===\n", s.Round, s.TotalRounds, s.Phase)
	if s.IsOver() {
		winner := s.Winner()
		if winner == "" {
			winner = "none (tie)"
		}
		fmt.Fprintf(&sb, "Game over. Winner: %s\n", winner)
	}

	sb.WriteString("\nTemple path:\n")
	if len(s.Path) == 0 {
		sb.WriteString("  (nothing revealed yet)\n")
	}
	for i, c := range s.Path {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, c)
	}
	fmt.Fprintf(&sb, "Gems left on path: %d\n", s.GemsOnPath)
	fmt.Fprintf(&sb, "Cards left in deck: %d\n", len(s.Deck))
	if seen := b.hazards(); seen != "" {
		fmt.Fprintf(&sb, "Hazards seen: %s (a second one collapses the temple)\n", seen)
	}

	sb.WriteString("\nExplorers:\n")
	for _, p := range b.players {
		status := "at camp"
		switch {
		case s.Out[p.Seat]:
			status = "out of the game"
		case s.InTemple[p.Seat]:
			status = "in temple"
		}
		private := engine.Reveal(engine.OwnedEntity(p.Seat), ctx.Player, func() string {
			return fmt.Sprintf(", carrying %d gems, camp %d gems, %d artifacts, total %d",
				s.Carried[p.Seat], s.Gems[p.Seat], len(s.Artifacts[p.Seat]), s.Score(p.Seat))
		}, "")
		marker := ""
		if ctx.Player != nil && ctx.Player.Seat == p.Seat {
			marker = " (you)"
		}
		fmt.Fprintf(&sb, "  %s%s: %s%s\n", p.Name, marker, status, private)
	}
	return sb.String()
}

// PromptView adds what the viewer must decide, if anything.
func (b *Board) PromptView(ctx engine.ViewContext) string {
	view := b.View(ctx)
	s := b.state
	if ctx.Player == nil || s.Phase != PhaseDecide || !s.InTemple[ctx.Player.Seat] {
		return view
	}
	return view + fmt.Sprintf("\nYou are in the temple with %d gems at risk. Decide: continue or return.\n",
		s.Carried[ctx.Player.Seat])
}

func (b *Board) hazards() string {
	var names []string
	for h, n := range b.state.HazardsSeen {
		if n > 0 {
			names = append(names, string(h))
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
