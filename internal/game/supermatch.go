package game

import (
	"fmt"
	"slices"

	"github.com/lox/blackjackstats/blackjack"
)

// MatchKind is the best rank match among a player's four dealt cards
type MatchKind int

const (
	NoMatch MatchKind = iota
	OnePair
	TwoPair
	ThreeOfAKind
	FourOfAKind
)

var matchNames = [...]string{"none", "pair", "twoPair", "threeOfAKind", "fourOfAKind"}

// matchPays is the X:1 payout per kind. Two pair pays more than trips.
var matchPays = [...]int{0, 1, 7, 5, 50}

func (k MatchKind) String() string {
	if k < 0 || int(k) >= len(matchNames) {
		return "unknown"
	}
	return matchNames[k]
}

// Multiplier returns the X in the X:1 payout
func (k MatchKind) Multiplier() int {
	if k < 0 || int(k) >= len(matchPays) {
		return 0
	}
	return matchPays[k]
}

// MarshalText encodes the kind by name
func (k MatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *MatchKind) UnmarshalText(text []byte) error {
	for i, name := range matchNames {
		if name == string(text) {
			*k = MatchKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match kind %q", text)
}

// ScoreSuperMatch classifies cards by face rank. Jacks, queens and kings are
// distinct ranks here even though they share a blackjack value.
func ScoreSuperMatch(cards []blackjack.Card) MatchKind {
	counts := make(map[blackjack.Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}

	groups := make([]int, 0, len(counts))
	for _, n := range counts {
		if n > 1 {
			groups = append(groups, n)
		}
	}
	slices.Sort(groups)
	slices.Reverse(groups)

	switch {
	case len(groups) == 0:
		return NoMatch
	case groups[0] >= 4:
		return FourOfAKind
	case groups[0] == 3:
		return ThreeOfAKind
	case len(groups) >= 2:
		return TwoPair
	default:
		return OnePair
	}
}

// SuperMatchReturn is what a stake pays back for kind, stake included
func SuperMatchReturn(stake int, kind MatchKind) int {
	if kind == NoMatch {
		return 0
	}
	return stake * (1 + kind.Multiplier())
}
