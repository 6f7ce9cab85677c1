package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  int
		soft  bool
	}{
		{name: "empty hand", cards: "", want: 0},
		{name: "simple hard total", cards: "10s 5h", want: 15},
		{name: "faces count ten", cards: "Ks Qh", want: 20},
		{name: "ace as eleven", cards: "As 9h", want: 20, soft: true},
		{name: "ace demoted", cards: "As 9h 2d", want: 12},
		{name: "two aces and six", cards: "As 6h Ad", want: 18, soft: true},
		{name: "two aces", cards: "As Ah", want: 12, soft: true},
		{name: "three aces and eight", cards: "As Ah Ad 8c", want: 21, soft: true},
		{name: "four aces", cards: "As Ah Ad Ac", want: 14, soft: true},
		{name: "bust with ace", cards: "As Kh Qd 5c", want: 26},
		{name: "blackjack", cards: "As Jh", want: 21, soft: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := MustParseCards(tt.cards)
			assert.Equal(t, tt.want, HandValue(cards))
			assert.Equal(t, tt.soft, IsSoft(cards))
		})
	}
}

func TestHandValueNeverOverDemotes(t *testing.T) {
	t.Parallel()
	// Every combination of up to three aces with every other rank must land
	// on the best total: no ace left at 11 when demoting would avoid a bust,
	// and no ace demoted when it would not.
	for aces := 0; aces <= 3; aces++ {
		for r := Two; r <= King; r++ {
			for r2 := Two; r2 <= King; r2++ {
				cards := []Card{NewCard(r, Spades), NewCard(r2, Hearts)}
				for range aces {
					cards = append(cards, NewCard(Ace, Clubs))
				}
				hard := r.Value() + r2.Value() + aces
				want := hard
				if aces > 0 && hard+10 <= BustThreshold {
					want = hard + 10
				}
				assert.Equal(t, want, HandValue(cards), "cards %v", cards)
			}
		}
	}
}

func TestIsPair(t *testing.T) {
	t.Parallel()
	assert.True(t, IsPair(MustParseCards("8s 8h")))
	assert.True(t, IsPair(MustParseCards("Ks Qh")), "equal value counts as a pair")
	assert.True(t, IsPair(MustParseCards("As Ad")))
	assert.False(t, IsPair(MustParseCards("8s 9h")))
	assert.False(t, IsPair(MustParseCards("8s 8h 8d")))
}

func TestIsBlackjack(t *testing.T) {
	t.Parallel()
	assert.True(t, IsBlackjack(MustParseCards("As Kd")))
	assert.False(t, IsBlackjack(MustParseCards("7s 7d 7h")))
	assert.True(t, IsBust(MustParseCards("Ks Qd 2h")))
	assert.False(t, IsBust(MustParseCards("Ks Ad Ah")))
}
