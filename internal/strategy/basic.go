// Package strategy implements the deterministic basic-strategy policy used by
// AI seats.
package strategy

import "github.com/lox/blackjackstats/blackjack"

// SuperMatchCost is the side-bet stake an AI needs before it will take the bet
const SuperMatchCost = 5

// Capabilities describes which optional actions the table will accept for
// the hand being decided.
type Capabilities struct {
	CanDouble bool
	CanSplit  bool
}

// Basic is the default AI policy. It holds no state.
type Basic struct{}

// Decide implements the policy interface used by the game package
func (Basic) Decide(hand []blackjack.Card, up blackjack.Card, caps Capabilities) blackjack.Action {
	return Decide(hand, up, caps)
}

// DecideSwitch implements the policy interface used by the game package
func (Basic) DecideSwitch(first, second []blackjack.Card) bool {
	return DecideSwitch(first, second)
}

// DecideSuperMatch implements the policy interface used by the game package
func (Basic) DecideSuperMatch(coins int) bool {
	return DecideSuperMatch(coins)
}

// Decide returns the basic-strategy action for hand against the dealer's up
// card. Double and Split are only returned when caps allows them.
func Decide(hand []blackjack.Card, up blackjack.Card, caps Capabilities) blackjack.Action {
	dealer := up.Value()

	if caps.CanSplit && blackjack.IsPair(hand) && shouldSplit(hand[0].Value(), dealer) {
		return blackjack.Split
	}

	total := blackjack.HandValue(hand)
	if blackjack.IsSoft(hand) {
		switch {
		case total >= 19:
			return blackjack.Stand
		case total == 18 && dealer <= 8:
			return blackjack.Stand
		default:
			return blackjack.Hit
		}
	}

	switch {
	case total >= 17:
		return blackjack.Stand
	case total >= 13:
		if dealer <= 6 {
			return blackjack.Stand
		}
		return blackjack.Hit
	case total == 12:
		if dealer >= 4 && dealer <= 6 {
			return blackjack.Stand
		}
		return blackjack.Hit
	case total >= 9:
		if caps.CanDouble && len(hand) == 2 && shouldDouble(total, dealer) {
			return blackjack.Double
		}
		return blackjack.Hit
	default:
		return blackjack.Hit
	}
}

// shouldSplit is the pair table keyed by the pair's card value
func shouldSplit(pair, dealer int) bool {
	switch pair {
	case 11, 8:
		return true
	case 10, 5:
		return false
	case 9:
		return (dealer >= 2 && dealer <= 6) || dealer == 8 || dealer == 9
	case 7, 3, 2:
		return dealer >= 2 && dealer <= 7
	case 6:
		return dealer >= 2 && dealer <= 6
	case 4:
		return dealer == 5 || dealer == 6
	}
	return false
}

func shouldDouble(total, dealer int) bool {
	switch total {
	case 11:
		return dealer <= 10
	case 10:
		return dealer <= 9
	case 9:
		return dealer >= 3 && dealer <= 6
	}
	return false
}

// DecideSwitch reports whether swapping the second cards of two Switch hands
// strictly improves the weaker of the two totals.
func DecideSwitch(first, second []blackjack.Card) bool {
	if len(first) < 2 || len(second) < 2 {
		return false
	}
	swappedFirst, swappedSecond := Swapped(first, second)
	before := min(blackjack.HandValue(first), blackjack.HandValue(second))
	after := min(blackjack.HandValue(swappedFirst), blackjack.HandValue(swappedSecond))
	return after > before
}

// Swapped returns copies of first and second with their second cards exchanged
func Swapped(first, second []blackjack.Card) ([]blackjack.Card, []blackjack.Card) {
	a := append([]blackjack.Card(nil), first...)
	b := append([]blackjack.Card(nil), second...)
	a[1], b[1] = b[1], a[1]
	return a, b
}

// DecideSuperMatch reports whether an AI with coins takes the side bet
func DecideSuperMatch(coins int) bool {
	return coins >= SuperMatchCost
}
