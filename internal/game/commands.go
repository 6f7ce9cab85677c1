package game

import (
	"slices"

	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/estimator"
	"github.com/lox/blackjackstats/internal/gameid"
)

// StartGame moves setup to betting with a fresh shoe and cleared hands
func (t *Table) StartGame() bool {
	if t.phase != PhaseSetup {
		return false
	}

	if t.ready != nil {
		t.shoe, t.ready = t.ready, nil
	} else {
		t.shoe = blackjack.NewShoe(t.rng, t.decks)
	}
	t.fault = nil
	t.reshuffled = false
	for _, p := range t.players {
		p.clearRound()
	}
	t.dealer = Dealer{}
	t.phase = PhaseBetting
	t.refreshLocks()

	t.logger.Info("Game started", "variant", t.rules.Variant, "decks", t.shoe.Decks(), "cards", t.shoe.Remaining(), "cut", t.shoe.CutCard())

	if t.autoBet {
		t.PlaceBet()
	}
	return true
}

// PlaceBet debits the bet unit from every unlocked player who can cover it.
// It is a no-op when nobody can bet.
func (t *Table) PlaceBet() bool {
	if t.phase != PhaseBetting {
		return false
	}
	t.refreshLocks()

	before := t.Bankrolls()
	placed := 0
	for _, p := range t.players {
		if p.Locked || p.Coins < t.rules.BetUnit {
			continue
		}
		p.Coins -= t.rules.BetUnit
		p.Hands = make([]*Hand, t.rules.HandsPerPlayer)
		for i := range p.Hands {
			p.Hands[i] = &Hand{Bet: t.rules.Stake()}
		}
		placed++
	}
	if placed == 0 {
		return false
	}

	t.round++
	t.roundID = gameid.Generate()
	t.startedAt = t.clock.Now()
	t.before = before
	t.decisions = nil

	t.logger.Debug("Bets placed", "round", t.round, "players", placed, "unit", t.rules.BetUnit)

	if t.rules.SuperMatch {
		t.phase = PhaseSuperMatch
		t.turn = t.next(0, t.canSuperMatch)
		if t.turn < 0 {
			t.phase = PhaseDealing
		}
		return true
	}
	t.phase = PhaseDealing
	return true
}

func (t *Table) canSuperMatch(p *Player) bool {
	return p.InRound() && p.SuperMatch == nil && p.Coins >= t.rules.SuperMatchCost
}

// PlaceSuperMatchBet takes the side bet for the human being offered it
func (t *Table) PlaceSuperMatchBet() bool {
	p := t.currentHuman()
	if p == nil || t.phase != PhaseSuperMatch || p.Coins < t.rules.SuperMatchCost {
		return false
	}
	t.superMatch(p, true)
	return true
}

// SkipSuperMatchBet declines the side bet for the human being offered it
func (t *Table) SkipSuperMatchBet() bool {
	p := t.currentHuman()
	if p == nil || t.phase != PhaseSuperMatch {
		return false
	}
	t.superMatch(p, false)
	return true
}

func (t *Table) superMatch(p *Player, take bool) {
	if take {
		p.Coins -= t.rules.SuperMatchCost
		p.SuperMatch = &SideBet{Stake: t.rules.SuperMatchCost}
		t.record(p, 0, ChoiceSuperMatch, nil, nil)
	} else {
		t.record(p, 0, ChoiceSkipSuperMatch, nil, nil)
	}

	t.turn = t.next(t.turn+1, t.canSuperMatch)
	if t.turn < 0 {
		t.phase = PhaseDealing
	}
}

// ChooseSwitch swaps the second cards of the current human's two hands
func (t *Table) ChooseSwitch() bool {
	p := t.currentHuman()
	if p == nil || t.phase != PhaseSwitch {
		return false
	}
	t.decideSwitch(p, true)
	return true
}

// KeepHands keeps the current human's hands as dealt
func (t *Table) KeepHands() bool {
	p := t.currentHuman()
	if p == nil || t.phase != PhaseSwitch {
		return false
	}
	t.decideSwitch(p, false)
	return true
}

func (t *Table) decideSwitch(p *Player, swap bool) {
	first, second := p.Hands[0], p.Hands[1]
	cards := append(append([]blackjack.Card(nil), first.Cards...), second.Cards...)
	if swap {
		first.Cards[1], second.Cards[1] = second.Cards[1], first.Cards[1]
		t.record(p, 0, ChoiceSwitch, cards, nil)
	} else {
		t.record(p, 0, ChoiceKeep, cards, nil)
	}

	t.turn = t.next(t.turn+1, canSwitch)
	if t.turn < 0 {
		t.startPlaying()
	}
}

func canSwitch(p *Player) bool {
	return len(p.Hands) == 2 && len(p.Hands[0].Cards) >= 2 && len(p.Hands[1].Cards) >= 2
}

// PlayerAction applies a hit, stand, double or split for the human whose
// turn it is. Actions not currently offered are rejected.
func (t *Table) PlayerAction(a blackjack.Action) bool {
	p := t.currentHuman()
	if p == nil || t.phase != PhasePlaying {
		return false
	}
	ok, err := t.act(p, a)
	if err != nil {
		t.fail(err)
		return true
	}
	return ok
}

// Offered returns the actions available to the hand being played
func (t *Table) Offered() []blackjack.Action {
	p := t.current()
	if p == nil || t.phase != PhasePlaying {
		return nil
	}
	return t.offered(p)
}

func (t *Table) offered(p *Player) []blackjack.Action {
	h := p.Active()
	if h == nil || h.Done {
		return nil
	}
	actions := []blackjack.Action{blackjack.Hit, blackjack.Stand}
	if len(h.Cards) == 2 && p.Coins >= h.Bet {
		actions = append(actions, blackjack.Double)
	}
	if t.canSplit(p, h) {
		actions = append(actions, blackjack.Split)
	}
	return actions
}

func (t *Table) canSplit(p *Player, h *Hand) bool {
	return t.rules.Split &&
		p.SplitCount == 0 &&
		len(p.Hands) == 1 &&
		blackjack.IsPair(h.Cards) &&
		p.Coins >= t.rules.BetUnit
}

// probabilities scores the offered actions for p's active hand
func (t *Table) probabilities(p *Player) map[blackjack.Action]int {
	h := p.Active()
	up, ok := t.dealer.Up()
	if h == nil || !ok {
		return nil
	}
	return estimator.Estimates(t.est, h.Cards, up, t.offered(p))
}

func (t *Table) act(p *Player, a blackjack.Action) (bool, error) {
	h := p.Active()
	if h == nil || h.Done || !slices.Contains(t.offered(p), a) {
		return false, nil
	}
	t.record(p, p.ActiveHand, a.String(), h.Cards, t.probabilities(p))

	switch a {
	case blackjack.Hit:
		c, err := t.draw()
		if err != nil {
			return false, err
		}
		h.Cards = append(h.Cards, c)
		if blackjack.IsBust(h.Cards) {
			h.Done = true
			h.Outcome = Bust
		}

	case blackjack.Stand:
		h.Done = true

	case blackjack.Double:
		p.Coins -= h.Bet
		h.Bet *= 2
		h.Doubled = true
		c, err := t.draw()
		if err != nil {
			return false, err
		}
		h.Cards = append(h.Cards, c)
		h.Done = true
		if blackjack.IsBust(h.Cards) {
			h.Outcome = Bust
		}

	case blackjack.Split:
		p.Coins -= t.rules.BetUnit
		second := &Hand{Cards: []blackjack.Card{h.Cards[1]}, Bet: t.rules.BetUnit, FromSplit: true}
		h.Cards = h.Cards[:1]
		h.FromSplit = true
		p.Hands = append(p.Hands, second)
		p.SplitCount++
		for _, sh := range p.Hands {
			c, err := t.draw()
			if err != nil {
				return false, err
			}
			sh.Cards = append(sh.Cards, c)
		}
	}

	if h.Done {
		t.advance()
	}
	return true, nil
}

// advance moves the active-hand pointer to the player's next open hand, or
// the turn to the next player, or the table to the dealer phase.
func (t *Table) advance() {
	p := t.players[t.turn]
	if firstOpen(p) >= 0 {
		p.ActiveHand = firstOpen(p)
		return
	}
	t.turn = t.next(t.turn+1, playable)
	if t.turn < 0 {
		t.phase = PhaseDealer
		return
	}
	t.players[t.turn].ActiveHand = firstOpen(t.players[t.turn])
}

func (t *Table) startPlaying() {
	t.phase = PhasePlaying
	t.turn = t.next(0, playable)
	if t.turn < 0 {
		t.phase = PhaseDealer
		return
	}
	t.players[t.turn].ActiveHand = firstOpen(t.players[t.turn])
}

func playable(p *Player) bool {
	return firstOpen(p) >= 0
}

func firstOpen(p *Player) int {
	for i, h := range p.Hands {
		if !h.Done {
			return i
		}
	}
	return -1
}

// NextRound clears the resolved round, keeps bankrolls and opens betting.
// The shoe is reshuffled first if it has reached the cut card.
func (t *Table) NextRound() bool {
	if t.phase != PhaseResult {
		return false
	}
	for _, p := range t.players {
		p.clearRound()
	}
	t.dealer = Dealer{}
	t.turn = -1
	t.reshuffled = false
	if t.shoe.NeedsReshuffle() {
		t.reshuffle()
	}
	t.phase = PhaseBetting

	if t.autoBet {
		t.PlaceBet()
	}
	return true
}

func (t *Table) reshuffle() {
	t.shoe.Reshuffle()
	t.reshuffled = true
	t.logger.Info("Reshuffled shoe", "cards", t.shoe.Remaining(), "cut", t.shoe.CutCard())
}

// ResetToSetup discards the round in progress from any phase. Unresolved
// stakes go back to their owners so bankrolls are preserved.
func (t *Table) ResetToSetup() bool {
	t.abandon()
	t.logger.Info("Reset to setup")
	return true
}

// RenamePlayer changes a seat's display name during setup
func (t *Table) RenamePlayer(id, name string) bool {
	p := t.player(id)
	if t.phase != PhaseSetup || p == nil || name == "" {
		return false
	}
	p.Name = name
	return true
}

// SetPlayerType switches a seat between human and AI during setup
func (t *Table) SetPlayerType(id string, typ PlayerType) bool {
	p := t.player(id)
	if t.phase != PhaseSetup || p == nil || p.Type == typ {
		return false
	}
	p.Type = typ
	return true
}
