package blackjack

// BustThreshold is the highest total that is not a bust
const BustThreshold = 21

// HandValue returns the best total for cards. Each Ace counts 11 and is
// demoted to 1, one at a time, while the total exceeds 21.
func HandValue(cards []Card) int {
	total, _ := evaluate(cards)
	return total
}

// IsSoft reports whether an Ace is still counted as 11 in the best total
func IsSoft(cards []Card) bool {
	_, soft := evaluate(cards)
	return soft
}

// IsBust reports whether the best total exceeds 21
func IsBust(cards []Card) bool {
	return HandValue(cards) > BustThreshold
}

// IsPair reports whether cards are exactly two cards of equal blackjack value
func IsPair(cards []Card) bool {
	return len(cards) == 2 && cards[0].Value() == cards[1].Value()
}

// IsBlackjack reports a two-card 21
func IsBlackjack(cards []Card) bool {
	return len(cards) == 2 && HandValue(cards) == BustThreshold
}

func evaluate(cards []Card) (int, bool) {
	total, aces := 0, 0
	for _, c := range cards {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for total > BustThreshold && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}
