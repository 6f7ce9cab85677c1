package game

import (
	"time"

	"github.com/lox/blackjackstats/blackjack"
)

// Input names the command a table is waiting for
type Input string

const (
	InputNone       Input = ""
	InputStart      Input = "start"
	InputBet        Input = "bet"
	InputSuperMatch Input = "superMatch"
	InputSwitch     Input = "switch"
	InputAction     Input = "action"
	InputNextRound  Input = "nextRound"
)

// Snapshot is a read-only copy of the table for presentation. Nothing in
// it aliases table state.
type Snapshot struct {
	Variant       Variant                  `json:"variant"`
	Phase         Phase                    `json:"phase"`
	Round         int                      `json:"round"`
	RoundID       string                   `json:"roundId,omitempty"`
	BetUnit       int                      `json:"betUnit"`
	Decks         int                      `json:"decks"`
	ShoeRemaining int                      `json:"shoeRemaining"`
	CutCard       int                      `json:"cutCard"`
	Reshuffled    bool                     `json:"reshuffled,omitempty"`
	Dealer        DealerView               `json:"dealer"`
	Players       []PlayerView             `json:"players"`
	Turn          string                   `json:"turn,omitempty"`
	Awaiting      Input                    `json:"awaiting,omitempty"`
	Offered       []blackjack.Action       `json:"offered,omitempty"`
	Probabilities map[blackjack.Action]int `json:"probabilities,omitempty"`
	Fault         string                   `json:"fault,omitempty"`
}

// DealerView shows the dealer's visible cards. Hidden counts cards still
// face down.
type DealerView struct {
	Cards    []blackjack.Card `json:"cards"`
	Hidden   int              `json:"hidden"`
	Revealed bool             `json:"revealed"`
	Total    int              `json:"total"`
}

// PlayerView is a read-only player seat
type PlayerView struct {
	ID         string     `json:"id"`
	Type       PlayerType `json:"type"`
	Name       string     `json:"name"`
	Coins      int        `json:"coins"`
	Locked     bool       `json:"locked"`
	UnlockAt   *time.Time `json:"unlockAt,omitempty"`
	InRound    bool       `json:"inRound"`
	Hands      []HandView `json:"hands"`
	ActiveHand int        `json:"activeHand"`
	SplitCount int        `json:"splitCount"`
	SuperMatch *SideBet   `json:"superMatch,omitempty"`
}

// Snapshot returns a deep copy of the visible table state
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{
		Variant:    t.rules.Variant,
		Phase:      t.phase,
		Round:      t.round,
		RoundID:    t.roundID,
		BetUnit:    t.rules.BetUnit,
		Decks:      t.decks,
		Reshuffled: t.reshuffled,
		Dealer:     t.dealerView(),
		Awaiting:   t.awaiting(),
	}
	if t.shoe != nil {
		s.ShoeRemaining = t.shoe.Remaining()
		s.CutCard = t.shoe.CutCard()
		s.Decks = t.shoe.Decks()
	}
	if t.fault != nil {
		s.Fault = t.fault.Error()
	}

	for _, p := range t.players {
		pv := PlayerView{
			ID:         p.ID,
			Type:       p.Type,
			Name:       p.Name,
			Coins:      p.Coins,
			Locked:     p.Locked,
			InRound:    p.InRound(),
			ActiveHand: p.ActiveHand,
			SplitCount: p.SplitCount,
		}
		if p.Locked {
			until := p.UnlockAt
			pv.UnlockAt = &until
		}
		for _, h := range p.Hands {
			pv.Hands = append(pv.Hands, viewHand(h))
		}
		if p.SuperMatch != nil {
			sb := *p.SuperMatch
			pv.SuperMatch = &sb
		}
		s.Players = append(s.Players, pv)
	}

	if p := t.current(); p != nil {
		s.Turn = p.ID
		if t.phase == PhasePlaying {
			s.Offered = t.offered(p)
			s.Probabilities = t.probabilities(p)
		}
	}
	return s
}

func (t *Table) dealerView() DealerView {
	v := DealerView{Revealed: t.dealer.Revealed}
	switch {
	case t.dealer.Revealed:
		v.Cards = append([]blackjack.Card(nil), t.dealer.Cards...)
	case len(t.dealer.Cards) > 0:
		v.Cards = []blackjack.Card{t.dealer.Cards[0]}
		v.Hidden = len(t.dealer.Cards) - 1
	}
	v.Total = blackjack.HandValue(v.Cards)
	return v
}

func (t *Table) awaiting() Input {
	switch t.phase {
	case PhaseSetup:
		return InputStart
	case PhaseBetting:
		return InputBet
	case PhaseResult:
		return InputNextRound
	}
	if t.currentHuman() == nil {
		return InputNone
	}
	switch t.phase {
	case PhaseSuperMatch:
		return InputSuperMatch
	case PhaseSwitch:
		return InputSwitch
	case PhasePlaying:
		return InputAction
	}
	return InputNone
}

// Player returns a view of one seat
func (s Snapshot) Player(id string) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}
