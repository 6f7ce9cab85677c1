package blackjack

import (
	"errors"
	rand "math/rand/v2"
)

// ErrShoeExhausted is returned when drawing from an empty shoe
var ErrShoeExhausted = errors.New("shoe exhausted")

// CutCardRatio is the fraction of the shoe at which the cut card is placed
const CutCardRatio = 0.5

// Shoe is the pooled multi-deck draw pile. Cards are consumed from the
// front and never returned until the shoe is reshuffled.
type Shoe struct {
	cards   []Card
	next    int
	decks   int
	cutCard int
	rng     *rand.Rand
	stacked bool
}

// NewShoe builds deckCount standard 52-card decks and shuffles them with rng
func NewShoe(rng *rand.Rand, deckCount int) *Shoe {
	if rng == nil {
		panic("rng is required for shoe creation")
	}
	if deckCount < 1 {
		deckCount = 1
	}
	s := &Shoe{
		cards: make([]Card, 0, deckCount*52),
		decks: deckCount,
		rng:   rng,
	}
	s.Reshuffle()
	return s
}

// NewStackedShoe creates a shoe that deals exactly the given cards in order.
// Its cut card sits at 0 so it never asks for a reshuffle while cards remain.
func NewStackedShoe(cards ...Card) *Shoe {
	stack := make([]Card, len(cards))
	copy(stack, cards)
	return &Shoe{cards: stack, decks: 0, stacked: true}
}

// WithCutCard overrides the cut-card position and returns the shoe
func (s *Shoe) WithCutCard(pos int) *Shoe {
	s.cutCard = pos
	return s
}

// Reshuffle restores every card to the shoe and shuffles with Fisher-Yates.
// Stacked shoes are rewound instead.
func (s *Shoe) Reshuffle() {
	s.next = 0
	if s.stacked {
		return
	}

	s.cards = s.cards[:0]
	for range s.decks {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Ace; rank <= King; rank++ {
				s.cards = append(s.cards, NewCard(rank, suit))
			}
		}
	}

	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
	s.cutCard = int(float64(len(s.cards)) * CutCardRatio)
}

// Draw removes and returns the next card
func (s *Shoe) Draw() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrShoeExhausted
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Remaining returns the number of undealt cards
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Size returns the number of cards in a full shoe
func (s *Shoe) Size() int {
	return len(s.cards)
}

// CutCard returns the reshuffle threshold fixed at shuffle time
func (s *Shoe) CutCard() int {
	return s.cutCard
}

// NeedsReshuffle reports whether the remaining cards have reached the cut card
func (s *Shoe) NeedsReshuffle() bool {
	return s.Remaining() <= s.cutCard
}

// Decks returns the number of decks in the shoe
func (s *Shoe) Decks() int {
	return s.decks
}
