package loveletter

import (
	"math/rand"
	"strings"
)

// CardType is a character card; its value is the card's strength.
type CardType int

const (
	Guard CardType = iota + 1
	Priest
	Baron
	Handmaid
	Prince
	King
	Countess
	Princess
)

var cardNames = map[CardType]string{
	Guard:    "Guard",
	Priest:   "Priest",
	Baron:    "Baron",
	Handmaid: "Handmaid",
	Prince:   "Prince",
	King:     "King",
	Countess: "Countess",
	Princess: "Princess",
}

var cardCounts = map[CardType]int{
	Guard:    5,
	Priest:   2,
	Baron:    2,
	Handmaid: 2,
	Prince:   2,
	King:     1,
	Countess: 1,
	Princess: 1,
}

var cardEffects = map[CardType]string{
	Guard:    "name a non-Guard card; if the target holds it, they are out",
	Priest:   "look at another player's hand",
	Baron:    "compare hands with another player; the lower card is out",
	Handmaid: "you cannot be targeted until your next turn",
	Prince:   "choose any player (yourself included) to discard their hand and draw",
	King:     "trade hands with another player",
	Countess: "must be played if you also hold the King or a Prince",
	Princess: "you are out if you discard her",
}

func (c CardType) String() string {
	if n, ok := cardNames[c]; ok {
		return n
	}
	return "Unknown"
}

// Value is the card's strength, 1 for the Guard up to 8 for the Princess.
func (c CardType) Value() int { return int(c) }

// Effect describes what playing the card does.
func (c CardType) Effect() string { return cardEffects[c] }

// Targeted reports whether the card names another player.
func (c CardType) Targeted() bool {
	return c == Guard || c == Priest || c == Baron || c == King
}

// ParseCardType matches a card name case-insensitively.
func ParseCardType(name string) (CardType, bool) {
	for t, n := range cardNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return 0, false
}

// CardTypes lists the card types from weakest to strongest.
func CardTypes() []CardType {
	return []CardType{Guard, Priest, Baron, Handmaid, Prince, King, Countess, Princess}
}

func cardTypeNames(skip CardType) []string {
	var out []string
	for _, t := range CardTypes() {
		if t != skip {
			out = append(out, t.String())
		}
	}
	return out
}

// Card is one physical card.
type Card struct {
	ID   int
	Type CardType
}

func (c Card) String() string {
	return c.Type.String()
}

// NewDeck returns the 16 card deck shuffled with rng.
func NewDeck(rng *rand.Rand) []Card {
	var deck []Card
	for _, t := range CardTypes() {
		for i := 0; i < cardCounts[t]; i++ {
			deck = append(deck, Card{ID: len(deck) + 1, Type: t})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}
