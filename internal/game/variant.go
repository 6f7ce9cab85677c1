package game

import (
	"errors"
	"fmt"
	"strings"
)

// Variant names a rule set
type Variant string

const (
	Regular Variant = "regular"
	Switch  Variant = "switch"
	Bahama  Variant = "bahama"
)

// ErrVariantUnavailable is returned for variants that are listed but not playable
var ErrVariantUnavailable = errors.New("variant unavailable")

// Rules captures everything that differs between variants. One state machine
// consumes this table instead of each variant carrying its own copy.
type Rules struct {
	Variant        Variant
	BetUnit        int // debited per player per round
	HandsPerPlayer int
	StartingCoins  int
	SuperMatch     bool
	SuperMatchCost int
	Switching      bool
	Split          bool
	Available      bool
}

// Stake is the coins placed on each hand when the bet unit is taken
func (r Rules) Stake() int {
	return r.BetUnit / r.HandsPerPlayer
}

var rules = map[Variant]Rules{
	Regular: {
		Variant:        Regular,
		BetUnit:        5,
		HandsPerPlayer: 1,
		StartingCoins:  100,
		Split:          true,
		Available:      true,
	},
	Switch: {
		Variant:        Switch,
		BetUnit:        10,
		HandsPerPlayer: 2,
		StartingCoins:  100,
		SuperMatch:     true,
		SuperMatchCost: 5,
		Switching:      true,
		Available:      true,
	},
	Bahama: {
		Variant:        Bahama,
		BetUnit:        5,
		HandsPerPlayer: 1,
		StartingCoins:  100,
		Split:          true,
	},
}

// Variants lists every known variant in display order
func Variants() []Variant {
	return []Variant{Regular, Switch, Bahama}
}

// RulesFor returns the rules of a playable variant
func RulesFor(v Variant) (Rules, error) {
	r, ok := rules[v]
	if !ok {
		return Rules{}, fmt.Errorf("unknown variant %q", v)
	}
	if !r.Available {
		return r, fmt.Errorf("%s: %w", v, ErrVariantUnavailable)
	}
	return r, nil
}

// ParseVariant converts a user-supplied name to a Variant
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rules[v]; !ok {
		return "", fmt.Errorf("unknown variant %q", s)
	}
	return v, nil
}
