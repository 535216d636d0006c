package incangold

import (
	"fmt"
	"math/rand"
)

// CardKind is the category of a path card.
type CardKind int

const (
	Treasure CardKind = iota
	Artifact
	HazardCard
)

func (k CardKind) String() string {
	switch k {
	case Treasure:
		return "Treasure"
	case Artifact:
		return "Artifact"
	case HazardCard:
		return "Hazard"
	default:
		return "Unknown"
	}
}

// Hazard is one of the five dangers of the temple.
type Hazard string

const (
	Snake     Hazard = "Snake"
	Spider    Hazard = "Spider"
	Fire      Hazard = "Fire"
	Rockslide Hazard = "Rockslide"
	Mummy     Hazard = "Mummy"
)

var hazards = []Hazard{Snake, Spider, Fire, Rockslide, Mummy}

var (
	treasureValues = []int{1, 2, 3, 4, 5, 5, 7, 7, 9, 11, 11, 13, 14, 15, 17}
	artifactValues = []int{5, 5, 10, 10, 15}
)

// Card is a path card. ID is stable across rounds so claimed artifacts and
// removed hazards can be left out of later decks.
type Card struct {
	ID     int
	Kind   CardKind
	Value  int
	Hazard Hazard
}

func (c Card) String() string {
	switch c.Kind {
	case Treasure:
		return fmt.Sprintf("%d gems", c.Value)
	case Artifact:
		return fmt.Sprintf("Artifact (%d pts)", c.Value)
	case HazardCard:
		return string(c.Hazard)
	default:
		return "Unknown"
	}
}

// NewDeck returns the full 35 card deck in a fixed order.
func NewDeck() []Card {
	deck := make([]Card, 0, len(treasureValues)+len(artifactValues)+3*len(hazards))
	id := 0
	next := func(c Card) {
		id++
		c.ID = id
		deck = append(deck, c)
	}
	for _, v := range treasureValues {
		next(Card{Kind: Treasure, Value: v})
	}
	for _, v := range artifactValues {
		next(Card{Kind: Artifact, Value: v})
	}
	for _, h := range hazards {
		for i := 0; i < 3; i++ {
			next(Card{Kind: HazardCard, Hazard: h})
		}
	}
	return deck
}

func shuffle(rng *rand.Rand, deck []Card) []Card {
	out := append([]Card(nil), deck...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
