package game

import (
	"fmt"
	"time"

	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/strategy"
)

// StepKind identifies an automatic transition
type StepKind int

const (
	StepSuperMatch StepKind = iota + 1
	StepDeal
	StepSwitch
	StepPlay
	StepReveal
	StepDealerDraw
	StepResolve
)

var stepNames = map[StepKind]string{
	StepSuperMatch: "superMatch",
	StepDeal:       "deal",
	StepSwitch:     "switch",
	StepPlay:       "play",
	StepReveal:     "reveal",
	StepDealerDraw: "dealerDraw",
	StepResolve:    "resolve",
}

func (k StepKind) String() string {
	if name, ok := stepNames[k]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(k))
}

// Transition is the next automatic step and how long to wait before it
type Transition struct {
	Kind     StepKind
	Delay    time.Duration
	PlayerID string
}

// DealerStandsOn is the total at which the dealer stops drawing
const DealerStandsOn = 17

// Pending reports the automatic transition the table is waiting to make.
// It returns false when the table needs a command instead.
func (t *Table) Pending() (Transition, bool) {
	switch t.phase {
	case PhaseSuperMatch, PhaseSwitch, PhasePlaying:
		p := t.current()
		if p == nil || p.Type != AI {
			return Transition{}, false
		}
		kind := map[Phase]StepKind{
			PhaseSuperMatch: StepSuperMatch,
			PhaseSwitch:     StepSwitch,
			PhasePlaying:    StepPlay,
		}[t.phase]
		return Transition{Kind: kind, Delay: t.delays.AI, PlayerID: p.ID}, true

	case PhaseDealing:
		tr := Transition{Kind: StepDeal}
		if t.shoe.NeedsReshuffle() {
			tr.Delay = t.delays.Shuffle
		}
		return tr, true

	case PhaseDealer:
		switch {
		case !t.dealer.Revealed:
			return Transition{Kind: StepReveal, Delay: t.delays.Dealer}, true
		case blackjack.HandValue(t.dealer.Cards) < DealerStandsOn:
			return Transition{Kind: StepDealerDraw, Delay: t.delays.Dealer}, true
		default:
			return Transition{Kind: StepResolve}, true
		}
	}
	return Transition{}, false
}

// Step performs exactly one pending automatic transition. It is a no-op
// when nothing is pending. An invariant violation abandons the round and
// is returned.
func (t *Table) Step() error {
	tr, ok := t.Pending()
	if !ok {
		return nil
	}

	var err error
	switch tr.Kind {
	case StepSuperMatch:
		p := t.current()
		t.superMatch(p, t.policy.DecideSuperMatch(p.Coins))
	case StepSwitch:
		p := t.current()
		t.decideSwitch(p, t.policy.DecideSwitch(p.Hands[0].Cards, p.Hands[1].Cards))
	case StepPlay:
		err = t.playAI(t.current())
	case StepDeal:
		err = t.deal()
	case StepReveal:
		t.dealer.Revealed = true
		t.logger.Debug("Dealer reveals", "cards", t.dealer.Cards, "total", blackjack.HandValue(t.dealer.Cards))
	case StepDealerDraw:
		var c blackjack.Card
		if c, err = t.draw(); err == nil {
			t.dealer.Cards = append(t.dealer.Cards, c)
		}
	case StepResolve:
		t.resolve()
	}

	if err != nil {
		t.fail(err)
		return err
	}
	return nil
}

// RunAutomatic steps until the table needs a command, ignoring delays
func (t *Table) RunAutomatic() error {
	for {
		if _, ok := t.Pending(); !ok {
			return nil
		}
		if err := t.Step(); err != nil {
			return err
		}
	}
}

func (t *Table) playAI(p *Player) error {
	h := p.Active()
	up, _ := t.dealer.Up()
	offered := t.offered(p)
	caps := strategy.Capabilities{}
	for _, a := range offered {
		switch a {
		case blackjack.Double:
			caps.CanDouble = true
		case blackjack.Split:
			caps.CanSplit = true
		}
	}

	a := t.policy.Decide(h.Cards, up, caps)
	ok, err := t.act(p, a)
	if err != nil {
		return err
	}
	if !ok {
		t.logger.Warn("Policy chose an action that is not offered", "player", p.ID, "action", a)
		_, err = t.act(p, blackjack.Stand)
	}
	return err
}

func (t *Table) deal() error {
	if t.shoe.NeedsReshuffle() {
		t.reshuffle()
	}

	for _, p := range t.players {
		for _, h := range p.Hands {
			for range 2 {
				c, err := t.draw()
				if err != nil {
					return err
				}
				h.Cards = append(h.Cards, c)
			}
		}
	}
	for range 2 {
		c, err := t.draw()
		if err != nil {
			return err
		}
		t.dealer.Cards = append(t.dealer.Cards, c)
	}

	for _, p := range t.players {
		if p.SuperMatch == nil {
			continue
		}
		var cards []blackjack.Card
		for _, h := range p.Hands {
			cards = append(cards, h.Cards...)
		}
		kind := ScoreSuperMatch(cards)
		p.SuperMatch.Match = kind
		p.SuperMatch.Multiplier = kind.Multiplier()
		p.SuperMatch.Returned = SuperMatchReturn(p.SuperMatch.Stake, kind)
		p.SuperMatch.Scored = true
	}

	t.logger.Debug("Dealt", "round", t.round, "remaining", t.shoe.Remaining())

	if t.rules.Switching {
		t.phase = PhaseSwitch
		t.turn = t.next(0, canSwitch)
		if t.turn >= 0 {
			return nil
		}
	}
	t.startPlaying()
	return nil
}

// resolve settles every hand against the dealer, credits side bets and
// applies lockouts and the global reset.
func (t *Table) resolve() {
	dealerTotal := blackjack.HandValue(t.dealer.Cards)
	dealerBust := dealerTotal > blackjack.BustThreshold
	now := t.clock.Now()

	for _, p := range t.players {
		if !p.InRound() {
			continue
		}
		for _, h := range p.Hands {
			total := h.Value()
			switch {
			case total > blackjack.BustThreshold:
				h.Outcome, h.Returned = Bust, 0
			case dealerBust || total > dealerTotal:
				h.Outcome, h.Returned = Win, 2*h.Bet
			case total == dealerTotal:
				h.Outcome, h.Returned = Push, h.Bet
			default:
				h.Outcome, h.Returned = Lose, 0
			}
			h.Done = true
			p.Coins += h.Returned
		}
		if p.SuperMatch != nil {
			p.Coins += p.SuperMatch.Returned
		}

		if p.Coins == 0 {
			p.Locked = true
			p.UnlockAt = now.Add(LockDuration)
			t.logger.Info("Player locked out", "player", p.ID, "until", p.UnlockAt)
		}
	}

	t.resolved++
	reset := t.allAIBroke()
	t.archive(now, reset)

	t.logger.Info("Round resolved", "round", t.round, "dealer", dealerTotal, "globalReset", reset)

	if !reset {
		t.phase = PhaseResult
		t.turn = -1
		return
	}

	for _, p := range t.players {
		p.Coins = t.rules.StartingCoins
		p.Locked = false
		p.UnlockAt = time.Time{}
		p.clearRound()
	}
	t.dealer = Dealer{}
	t.phase = PhaseSetup
	t.turn = -1
}

// allAIBroke reports whether there is at least one AI seat and every AI
// seat has exactly zero coins
func (t *Table) allAIBroke() bool {
	ai := 0
	for _, p := range t.players {
		if p.Type != AI {
			continue
		}
		if p.Coins != 0 {
			return false
		}
		ai++
	}
	return ai > 0
}
