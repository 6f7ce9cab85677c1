package blackjack

import (
	"fmt"
	"strings"
)

// Action is a player decision on an active hand
type Action uint8

const (
	Hit Action = iota
	Stand
	Double
	Split
)

// Actions lists every player action in display order
var Actions = []Action{Hit, Stand, Double, Split}

func (a Action) String() string {
	switch a {
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	case Double:
		return "double"
	case Split:
		return "split"
	default:
		return "unknown"
	}
}

// ParseAction converts "hit", "stand", "double" or "split" to an Action
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit", "h":
		return Hit, nil
	case "stand", "s":
		return Stand, nil
	case "double", "d":
		return Double, nil
	case "split", "p":
		return Split, nil
	}
	return 0, fmt.Errorf("invalid action: %q", s)
}

// MarshalText lets actions be used as JSON values and map keys
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an action name
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
