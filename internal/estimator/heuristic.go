// Package estimator produces the advisory win percentages shown next to each
// action. The numbers are a display aid with no correctness contract; any
// type with the same Estimate method can replace Heuristic.
package estimator

import (
	"math"
	rand "math/rand/v2"

	"github.com/lox/blackjackstats/blackjack"
)

// Display bounds for ordinary estimates. A 21 total is special-cased to 0/100.
const (
	minPercent = 5
	maxPercent = 95
)

// dealerBust is the chance the dealer busts from each up-card value when
// standing on all 17s, indexed by card value (2..11).
var dealerBust = [12]float64{
	2:  0.354,
	3:  0.376,
	4:  0.403,
	5:  0.429,
	6:  0.420,
	7:  0.260,
	8:  0.239,
	9:  0.233,
	10: 0.214,
	11: 0.117,
}

// beatMadeHand is the chance a made total beats a dealer who does not bust
var beatMadeHand = map[int]float64{
	17: 0.12,
	18: 0.40,
	19: 0.60,
	20: 0.80,
	21: 0.93,
}

// pairBias nudges split estimates the same way the original table did:
// aces and eights are the strongest splits, tens the weakest.
var pairBias = map[int]float64{
	11: 0.10,
	8:  0.05,
	9:  0.02,
	10: -0.10,
}

// Option configures a Heuristic
type Option func(*Heuristic)

// WithJitter adds uniform noise of +/- spread/2 to every estimate, mimicking
// the wobble of a sampled estimate. Heuristics with jitter are not safe for
// concurrent use.
func WithJitter(rng *rand.Rand, spread float64) Option {
	return func(h *Heuristic) {
		h.rng = rng
		h.spread = spread
	}
}

// Heuristic estimates win chances from a dealer-bust table and a shallow
// one-card lookahead over an infinite deck.
type Heuristic struct {
	rng    *rand.Rand
	spread float64
}

// NewHeuristic creates a heuristic estimator
func NewHeuristic(opts ...Option) *Heuristic {
	h := &Heuristic{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Estimate returns the displayed win percentage (0..100) for taking action
// with hand against the dealer's up card.
func (h *Heuristic) Estimate(hand []blackjack.Card, up blackjack.Card, action blackjack.Action) int {
	total := blackjack.HandValue(hand)
	switch {
	case total > blackjack.BustThreshold:
		return 0
	case total == blackjack.BustThreshold:
		if action == blackjack.Stand {
			return 100
		}
		return 0
	}

	var p float64
	switch action {
	case blackjack.Stand:
		p = standChance(total, up)
	case blackjack.Hit:
		p = drawChance(hand, up, 2)
	case blackjack.Double:
		p = drawChance(hand, up, 0)
	case blackjack.Split:
		if !blackjack.IsPair(hand) {
			return 0
		}
		p = drawChance(hand[:1], up, 1) + pairBias[hand[0].Value()]
	default:
		return 0
	}

	if h.rng != nil && h.spread > 0 {
		p += (h.rng.Float64() - 0.5) * h.spread
	}
	return clampPercent(p)
}

// standChance is the chance of winning by standing on total
func standChance(total int, up blackjack.Card) float64 {
	bust := dealerBust[up.Value()]
	beat, ok := beatMadeHand[total]
	if !ok {
		// 16 or less only wins when the dealer busts
		return bust
	}
	return bust + (1-bust)*beat
}

// drawChance averages the best continuation over every rank the next card
// could be. depth is how many further draws the player may consider.
func drawChance(hand []blackjack.Card, up blackjack.Card, depth int) float64 {
	next := make([]blackjack.Card, len(hand), len(hand)+1)
	copy(next, hand)
	next = append(next, blackjack.Card{})

	var sum float64
	for r := blackjack.Ace; r <= blackjack.King; r++ {
		next[len(next)-1] = blackjack.NewCard(r, blackjack.Spades)
		sum += bestChance(next, up, depth)
	}
	return sum / float64(blackjack.King)
}

func bestChance(hand []blackjack.Card, up blackjack.Card, depth int) float64 {
	total := blackjack.HandValue(hand)
	if total > blackjack.BustThreshold {
		return 0
	}
	stand := standChance(total, up)
	if depth == 0 || total >= 17 {
		return stand
	}
	return math.Max(stand, drawChance(hand, up, depth-1))
}

func clampPercent(p float64) int {
	pct := int(math.Round(p * 100))
	return max(minPercent, min(maxPercent, pct))
}

// Estimator is anything that can score an action for display
type Estimator interface {
	Estimate(hand []blackjack.Card, up blackjack.Card, action blackjack.Action) int
}

// Estimates scores each action with e
func Estimates(e Estimator, hand []blackjack.Card, up blackjack.Card, actions []blackjack.Action) map[blackjack.Action]int {
	out := make(map[blackjack.Action]int, len(actions))
	for _, a := range actions {
		out[a] = e.Estimate(hand, up, a)
	}
	return out
}
