package game

import (
	"fmt"
	"time"

	"github.com/lox/blackjackstats/blackjack"
)

// PlayerType distinguishes seats driven by input from seats driven by the policy
type PlayerType int

const (
	Human PlayerType = iota
	AI
)

func (t PlayerType) String() string {
	if t == AI {
		return "ai"
	}
	return "human"
}

// MarshalText encodes the player type as "human" or "ai"
func (t PlayerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes "human" or "ai"
func (t *PlayerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "human":
		*t = Human
	case "ai":
		*t = AI
	default:
		return fmt.Errorf("unknown player type %q", text)
	}
	return nil
}

// Outcome is the resolution of a single hand
type Outcome int

const (
	Pending Outcome = iota
	Win
	Push
	Lose
	Bust
)

var outcomeNames = [...]string{"pending", "win", "push", "lose", "bust"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Hand is one wagered hand. A player holds one hand in Regular, two after a
// split, and always two in Switch.
type Hand struct {
	Cards     []blackjack.Card
	Bet       int
	Doubled   bool
	FromSplit bool
	Done      bool
	Outcome   Outcome
	Returned  int
}

// Value returns the best total of the hand
func (h *Hand) Value() int {
	return blackjack.HandValue(h.Cards)
}

// HandView is the read-only rendering of a hand
type HandView struct {
	Cards     []blackjack.Card `json:"cards"`
	Bet       int              `json:"bet"`
	Total     int              `json:"total"`
	Soft      bool             `json:"soft,omitempty"`
	Doubled   bool             `json:"doubled,omitempty"`
	FromSplit bool             `json:"fromSplit,omitempty"`
	Done      bool             `json:"done"`
	Outcome   Outcome          `json:"outcome"`
	Returned  int              `json:"returned"`
}

func viewHand(h *Hand) HandView {
	return HandView{
		Cards:     append([]blackjack.Card(nil), h.Cards...),
		Bet:       h.Bet,
		Total:     h.Value(),
		Soft:      blackjack.IsSoft(h.Cards),
		Doubled:   h.Doubled,
		FromSplit: h.FromSplit,
		Done:      h.Done,
		Outcome:   h.Outcome,
		Returned:  h.Returned,
	}
}

// SideBet is a Super Match wager. It is scored as soon as the cards are
// dealt and credited when the round resolves.
type SideBet struct {
	Stake      int       `json:"stake"`
	Match      MatchKind `json:"match"`
	Multiplier int       `json:"multiplier"`
	Returned   int       `json:"returned"`
	Scored     bool      `json:"scored"`
}

// Player is a seat at the table
type Player struct {
	ID         string
	Type       PlayerType
	Name       string
	Coins      int
	Hands      []*Hand
	ActiveHand int
	SplitCount int
	Locked     bool
	UnlockAt   time.Time
	SuperMatch *SideBet
}

// InRound reports whether the player placed a bet this round
func (p *Player) InRound() bool {
	return len(p.Hands) > 0
}

// Active returns the hand currently being played, or nil
func (p *Player) Active() *Hand {
	if p.ActiveHand < 0 || p.ActiveHand >= len(p.Hands) {
		return nil
	}
	return p.Hands[p.ActiveHand]
}

// staked is the total of unresolved wagers, used to refund on reset
func (p *Player) staked() int {
	total := 0
	for _, h := range p.Hands {
		total += h.Bet
	}
	if p.SuperMatch != nil {
		total += p.SuperMatch.Stake
	}
	return total
}

func (p *Player) clearRound() {
	p.Hands = nil
	p.ActiveHand = 0
	p.SplitCount = 0
	p.SuperMatch = nil
}

// Decision is one recorded choice with the probabilities displayed when it
// was made. Action holds a blackjack action name or one of the side choices.
type Decision struct {
	PlayerID      string                   `json:"playerId"`
	Player        string                   `json:"player"`
	Hand          int                      `json:"hand"`
	Action        string                   `json:"action"`
	Cards         []blackjack.Card         `json:"cards,omitempty"`
	Total         int                      `json:"total,omitempty"`
	DealerUp      *blackjack.Card          `json:"dealerUp,omitempty"`
	Probabilities map[blackjack.Action]int `json:"probabilities,omitempty"`
	At            time.Time                `json:"at"`
}

// Side choices recorded alongside blackjack actions
const (
	ChoiceSuperMatch     = "superMatch"
	ChoiceSkipSuperMatch = "skipSuperMatch"
	ChoiceSwitch         = "switch"
	ChoiceKeep           = "keep"
)
