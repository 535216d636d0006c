package loveletter

import (
	"github.com/turnforge/turnforge/internal/engine"
)

// PlayCard discards a card from hand and resolves its effect.
type PlayCard struct{}

func (PlayCard) Name() string { return "play_card" }

func (PlayCard) Roles() []string { return nil }

func (PlayCard) Schema() engine.Schema {
	return engine.NewSchema(
		engine.EnumField("card", "card from your hand to play", cardTypeNames(0)...),
		engine.IntField("target", "target player number, for Guard, Priest, Baron, King and Prince").Between(1, MaxPlayers).AsOptional(),
		engine.EnumField("guess", "card type to name with the Guard (not Guard)", cardTypeNames(Guard)...).AsOptional(),
	)
}

func (PlayCard) Validate(eg engine.Game, p *engine.Player, params engine.Params) bool {
	g, ok := eg.(*Game)
	if !ok {
		return false
	}
	s := g.state
	if s.IsOver() || s.RoundOver || p.Seat != s.Current || s.Eliminated[p.Seat] {
		return false
	}
	card, ok := ParseCardType(params.Text("card"))
	if !ok || !s.holds(p.Seat, card) {
		return false
	}
	if card != Countess && s.holds(p.Seat, Countess) && (s.holds(p.Seat, King) || s.holds(p.Seat, Prince)) {
		return false
	}

	hasTarget := params.Has("target")
	target := params.Int("target") - 1

	switch {
	case card.Targeted():
		targetable := s.Targetable(p.Seat)
		if len(targetable) == 0 {
			// Nobody can be chosen: the card is played without effect.
			return true
		}
		if !hasTarget || !contains(targetable, target) {
			return false
		}
		if card == Guard {
			guess, ok := ParseCardType(params.Text("guess"))
			return ok && guess != Guard
		}
		return true
	case card == Prince:
		if !hasTarget {
			return true
		}
		return target >= 0 && target < s.Seats && !s.Eliminated[target]
	default:
		return true
	}
}

// Apply discards the card, resolves its effect, then ends the turn. The history
// record carries the public outcome; what a Priest sees stays private.
func (a PlayCard) Apply(eg engine.Game, p *engine.Player, params engine.Params) {
	g := eg.(*Game)
	s := g.state
	seat := p.Seat
	card, _ := ParseCardType(params.Text("card"))

	played := s.takeFromHand(seat, card)
	s.Discards[seat] = append(s.Discards[seat], played)

	rec := a.HistoryRecord(p, params)
	rec.Facts = append(rec.Facts, g.resolve(seat, card, params)...)

	s.forgetStale()
	g.endTurn()
	if s.RoundOver {
		winner := "none"
		if s.RoundWinner >= 0 {
			winner = g.players[s.RoundWinner].Name
		}
		rec.Facts = append(rec.Facts, engine.Fact{Key: "round_winner", Value: winner})
	}
	g.history.Append(rec)
}

func (PlayCard) HistoryRecord(p *engine.Player, params engine.Params) engine.Record {
	kv := []any{"card", params.Text("card")}
	if params.Has("target") {
		kv = append(kv, "target", params.Int("target"))
	}
	if params.Has("guess") {
		kv = append(kv, "guess", params.Text("guess"))
	}
	return engine.NewRecord("play_card", p.Name, kv...)
}

// resolve applies the effect of card played by seat and returns the public outcome.
func (g *Game) resolve(seat int, card CardType, params engine.Params) []engine.Fact {
	s := g.state
	target := params.Int("target") - 1
	hasTarget := params.Has("target") && contains(s.Targetable(seat), target)

	eliminated := func(t int) []engine.Fact {
		s.eliminate(t)
		return []engine.Fact{{Key: "eliminated", Value: g.players[t].Name}}
	}

	switch card {
	case Guard:
		if !hasTarget {
			return noEffect()
		}
		guess, _ := ParseCardType(params.Text("guess"))
		if s.holds(target, guess) {
			return append([]engine.Fact{{Key: "correct", Value: true}}, eliminated(target)...)
		}
		return []engine.Fact{{Key: "correct", Value: false}}
	case Priest:
		if !hasTarget {
			return noEffect()
		}
		s.learn(seat, target, s.Hands[target][0].Type)
		return nil
	case Baron:
		if !hasTarget {
			return noEffect()
		}
		mine, theirs := s.Hands[seat][0].Type, s.Hands[target][0].Type
		switch {
		case mine < theirs:
			return eliminated(seat)
		case theirs < mine:
			return eliminated(target)
		default:
			return []engine.Fact{{Key: "result", Value: "tie"}}
		}
	case Handmaid:
		s.Protected[seat] = true
		return nil
	case Prince:
		t := seat
		if params.Has("target") {
			t = target
		}
		discarded := s.Hands[t][0]
		s.Hands[t] = nil
		s.Discards[t] = append(s.Discards[t], discarded)
		facts := []engine.Fact{{Key: "discarded", Value: discarded.String()}}
		if discarded.Type == Princess {
			return append(facts, eliminated(t)...)
		}
		s.draw(t)
		return facts
	case King:
		if !hasTarget {
			return noEffect()
		}
		s.Hands[seat], s.Hands[target] = s.Hands[target], s.Hands[seat]
		s.learn(seat, target, s.Hands[target][0].Type)
		s.learn(target, seat, s.Hands[seat][0].Type)
		return nil
	case Princess:
		return eliminated(seat)
	default:
		return nil
	}
}

func noEffect() []engine.Fact {
	return []engine.Fact{{Key: "effect", Value: "none"}}
}

func contains(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
