package loveletter

import (
	"fmt"
	"strings"

	"github.com/turnforge/turnforge/internal/engine"
)

// Board renders the table. A hand is shown to its owner only; opponents see a
// card count, and a viewer additionally sees what their Priest or King revealed.
type Board struct {
	state   *State
	players []*engine.Player
}

func (b *Board) View(ctx engine.ViewContext) string {
	s := b.state
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== LOVE LETTER: round %d, first to %d tokens ===\n", s.Round, s.Target)
	fmt.Fprintf(&sb, "Deck: %d cards, %d set aside face down\n", len(s.Deck), len(s.SetAside))
	if len(s.FaceUp) > 0 {
		fmt.Fprintf(&sb, "Removed face up: %s\n", joinCards(s.FaceUp))
	}

	sb.WriteString("\nPlayers:\n")
	for _, p := range b.players {
		marker := ""
		if ctx.Player != nil && ctx.Player.Seat == p.Seat {
			marker = " (you)"
		}
		status := "active"
		switch {
		case s.Eliminated[p.Seat]:
			status = "out"
		case s.Protected[p.Seat]:
			status = "protected"
		}
		turn := ""
		if !s.IsOver() && !s.RoundOver && s.Current == p.Seat {
			turn = ", to play"
		}
		fmt.Fprintf(&sb, "  %s%s: %d tokens, %s%s\n", p.Name, marker, s.Tokens[p.Seat], status, turn)

		hand := s.Hands[p.Seat]
		fmt.Fprintf(&sb, "    Hand: %s\n", engine.Reveal(engine.OwnedEntity(p.Seat), ctx.Player, func() string {
			if len(hand) == 0 {
				return "(empty)"
			}
			return joinCards(hand)
		}, fmt.Sprintf("%d card(s), face down", len(hand))))

		if ctx.Player != nil {
			if t, ok := s.Known[ctx.Player.Seat][p.Seat]; ok {
				fmt.Fprintf(&sb, "    You know they hold: %s\n", t)
			}
		}
		if d := s.Discards[p.Seat]; len(d) > 0 {
			fmt.Fprintf(&sb, "    Discards: %s\n", joinCards(d))
		}
	}

	if s.IsOver() {
		winner := s.Winner()
		if winner == "" {
			winner = "none"
		}
		fmt.Fprintf(&sb, "\nGame over. Winner: %s\n", winner)
	}
	return sb.String()
}

// PromptView adds the effects of the cards in the viewer's own hand and who can be targeted.
func (b *Board) PromptView(ctx engine.ViewContext) string {
	view := b.View(ctx)
	if ctx.Player == nil {
		return view
	}
	s := b.state
	var sb strings.Builder
	sb.WriteString(view)
	sb.WriteString("\nYour cards:\n")
	for _, c := range s.Hands[ctx.Player.Seat] {
		fmt.Fprintf(&sb, "  %s (%d): %s\n", c, c.Type.Value(), c.Type.Effect())
	}
	var targets []string
	for _, t := range s.Targetable(ctx.Player.Seat) {
		targets = append(targets, fmt.Sprintf("%d (%s)", t+1, b.players[t].Name))
	}
	if len(targets) == 0 {
		sb.WriteString("No opponent can be targeted; targeted cards have no effect.\n")
	} else {
		fmt.Fprintf(&sb, "Targetable players: %s\n", strings.Join(targets, ", "))
	}
	return sb.String()
}

func joinCards(cards []Card) string {
	names := make([]string, 0, len(cards))
	for _, c := range cards {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}
