package blackjack

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true for hearts and diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankLabels = [...]string{"?", "A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the display label of the rank ("A", "2".."10", "J", "Q", "K")
func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankLabels[r]
}

// Value returns the blackjack value of the rank. Faces count 10 and an Ace
// counts 11; demotion to 1 happens in HandValue.
func (r Rank) Value() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// Card is an immutable playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank}
}

// Value returns the blackjack value of the card (2-10, faces 10, Ace 11)
func (c Card) Value() int {
	return c.Rank.Value()
}

// Label returns the rank label of the card
func (c Card) Label() string {
	return c.Rank.String()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// String returns the label followed by the suit symbol, e.g. "10♥"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

type cardJSON struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// MarshalJSON encodes the card the way the presentation layer renders it
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit.String(), Rank: c.Rank.String(), Value: c.Value()})
}

// UnmarshalJSON decodes a card produced by MarshalJSON
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rank, ok := parseRank(raw.Rank)
	if !ok {
		return fmt.Errorf("invalid rank %q", raw.Rank)
	}
	suit, ok := parseSuit(raw.Suit)
	if !ok {
		return fmt.Errorf("invalid suit %q", raw.Suit)
	}
	*c = Card{Suit: suit, Rank: rank}
	return nil
}

// ParseCard parses a card such as "As", "10h", "Td" or "Q♣"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}

	// The suit is the last rune; symbols are multi-byte.
	runes := []rune(s)
	suitPart := string(runes[len(runes)-1])
	rankPart := string(runes[:len(runes)-1])

	rank, ok := parseRank(rankPart)
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in %q", s)
	}
	suit, ok := parseSuit(suitPart)
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseCards parses a whitespace or comma separated list of cards
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests
// and fixed scenarios.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func parseRank(s string) (Rank, bool) {
	switch strings.ToUpper(s) {
	case "A", "1":
		return Ace, true
	case "T", "10":
		return Ten, true
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), true
	}
	return 0, false
}

func parseSuit(s string) (Suit, bool) {
	switch strings.ToLower(s) {
	case "s", "♠":
		return Spades, true
	case "h", "♥":
		return Hearts, true
	case "d", "♦":
		return Diamonds, true
	case "c", "♣":
		return Clubs, true
	}
	return 0, false
}
