package game

import (
	"time"

	"github.com/lox/blackjackstats/blackjack"
)

// Replay is the archived record of one resolved round
type Replay struct {
	RoundID     string           `json:"roundId"`
	Round       int              `json:"round"`
	Variant     Variant          `json:"variant"`
	StartedAt   time.Time        `json:"startedAt"`
	EndedAt     time.Time        `json:"endedAt"`
	Dealer      []blackjack.Card `json:"dealer"`
	DealerTotal int              `json:"dealerTotal"`
	Players     []ReplayPlayer   `json:"players"`
	Decisions   []Decision       `json:"decisions"`
	Reshuffled  bool             `json:"reshuffled,omitempty"`
	GlobalReset bool             `json:"globalReset,omitempty"`
}

// ReplayPlayer is one seat's part in a replay
type ReplayPlayer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        PlayerType `json:"type"`
	CoinsBefore int        `json:"coinsBefore"`
	CoinsAfter  int        `json:"coinsAfter"`
	Delta       int        `json:"delta"`
	Hands       []HandView `json:"hands"`
	SuperMatch  *SideBet   `json:"superMatch,omitempty"`
	Locked      bool       `json:"locked,omitempty"`
}

func (t *Table) archive(now time.Time, reset bool) {
	r := Replay{
		RoundID:     t.roundID,
		Round:       t.round,
		Variant:     t.rules.Variant,
		StartedAt:   t.startedAt,
		EndedAt:     now,
		Dealer:      append([]blackjack.Card(nil), t.dealer.Cards...),
		DealerTotal: blackjack.HandValue(t.dealer.Cards),
		Decisions:   t.decisions,
		Reshuffled:  t.reshuffled,
		GlobalReset: reset,
	}

	for _, p := range t.players {
		if !p.InRound() {
			continue
		}
		rp := ReplayPlayer{
			ID:          p.ID,
			Name:        p.Name,
			Type:        p.Type,
			CoinsBefore: t.before[p.ID],
			CoinsAfter:  p.Coins,
			Delta:       p.Coins - t.before[p.ID],
			Locked:      p.Locked,
		}
		for _, h := range p.Hands {
			rp.Hands = append(rp.Hands, viewHand(h))
		}
		if p.SuperMatch != nil {
			sb := *p.SuperMatch
			rp.SuperMatch = &sb
		}
		r.Players = append(r.Players, rp)
	}

	t.replays = append(t.replays, r)
	if len(t.replays) > t.history {
		t.replays = append([]Replay(nil), t.replays[len(t.replays)-t.history:]...)
	}
	t.decisions = nil
}
