package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/blackjack"
)

// ErrInvariantViolation marks a state the rules should make unreachable,
// such as drawing from an empty shoe mid-round.
var ErrInvariantViolation = errors.New("invariant violation")

// Dealer holds the dealer's hand. The second card stays hidden until the
// dealer phase reveals it.
type Dealer struct {
	Cards    []blackjack.Card
	Revealed bool
}

// Up returns the dealer's face-up card
func (d *Dealer) Up() (blackjack.Card, bool) {
	if len(d.Cards) == 0 {
		return blackjack.Card{}, false
	}
	return d.Cards[0], true
}

// Table is the round state machine. It owns the shoe, the hands and the
// in-round wagers, and mutates them only through commands and Step.
//
// Commands return false without changing anything when their preconditions
// fail. A Table is not safe for concurrent use; Engine serialises access.
type Table struct {
	rules  Rules
	rng    *rand.Rand
	decks  int
	shoe   *blackjack.Shoe
	ready  *blackjack.Shoe
	clock  quartz.Clock
	est    Estimator
	policy Policy
	delays Delays
	logger *log.Logger

	autoBet bool

	players []*Player
	dealer  Dealer
	phase   Phase
	turn    int

	round      int
	roundID    string
	startedAt  time.Time
	reshuffled bool
	before     map[string]int
	decisions  []Decision

	replays  []Replay
	history  int
	resolved int
	fault    error
}

// NewTable creates a table for variant with required RNG and optional
// configuration. The RNG is required to make shuffles explicit and testing
// deterministic.
//
// Example usage:
//
//	t, err := NewTable(randutil.New(42), Regular,
//	    WithAIPlayers(3),
//	    WithShoe(blackjack.NewStackedShoe(cards...)))
func NewTable(rng *rand.Rand, variant Variant, opts ...TableOption) (*Table, error) {
	if rng == nil {
		panic("rng is required for table creation")
	}

	r, err := RulesFor(variant)
	if err != nil {
		return nil, err
	}

	cfg := defaultTableConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.fill()

	if cfg.humans < 0 || cfg.aiPlayers < 0 || cfg.humans+cfg.aiPlayers == 0 {
		return nil, fmt.Errorf("table needs at least one seat, got %d humans and %d AI", cfg.humans, cfg.aiPlayers)
	}

	t := &Table{
		rules:   r,
		rng:     rng,
		decks:   cfg.decks,
		ready:   cfg.shoe,
		clock:   cfg.clock,
		est:     cfg.estimator,
		policy:  cfg.policy,
		delays:  cfg.delays,
		logger:  cfg.logger.WithPrefix("table"),
		autoBet: cfg.autoBet,
		history: cfg.history,
		turn:    -1,
	}

	seat := 0
	for i := range cfg.humans {
		name := fmt.Sprintf("Player %d", i+1)
		if i == 0 && cfg.playerName != "" {
			name = cfg.playerName
		}
		t.players = append(t.players, t.newPlayer(seat, Human, name))
		seat++
	}
	for i := range cfg.aiPlayers {
		t.players = append(t.players, t.newPlayer(seat, AI, fmt.Sprintf("AI %d", i+1)))
		seat++
	}

	return t, nil
}

func (t *Table) newPlayer(seat int, typ PlayerType, name string) *Player {
	return &Player{
		ID:    fmt.Sprintf("seat%d", seat+1),
		Type:  typ,
		Name:  name,
		Coins: t.rules.StartingCoins,
	}
}

// Rules returns the variant rules the table plays by
func (t *Table) Rules() Rules {
	return t.rules
}

// Phase returns the current phase
func (t *Table) Phase() Phase {
	return t.phase
}

// Err returns the invariant violation that last forced the table back to
// setup, if any. It is cleared by StartGame.
func (t *Table) Err() error {
	return t.fault
}

// Resolved counts rounds resolved since the table was created
func (t *Table) Resolved() int {
	return t.resolved
}

// Bankrolls returns each player's coins keyed by player ID
func (t *Table) Bankrolls() map[string]int {
	out := make(map[string]int, len(t.players))
	for _, p := range t.players {
		out[p.ID] = p.Coins
	}
	return out
}

// Locks returns the unlock time of every locked player
func (t *Table) Locks() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, p := range t.players {
		if p.Locked {
			out[p.ID] = p.UnlockAt
		}
	}
	return out
}

// Restore applies saved bankrolls and lockouts. Only allowed in setup.
// Unknown IDs are ignored. A player restored to zero coins without an
// active lock starts again from the starting bankroll.
func (t *Table) Restore(coins map[string]int, locks map[string]time.Time) bool {
	if t.phase != PhaseSetup {
		return false
	}
	for _, p := range t.players {
		if c, ok := coins[p.ID]; ok && c >= 0 {
			p.Coins = c
		}
		if until, ok := locks[p.ID]; ok {
			p.Locked = true
			p.UnlockAt = until
		}
	}
	t.refreshLocks()
	for _, p := range t.players {
		if !p.Locked && p.Coins == 0 {
			p.Coins = t.rules.StartingCoins
		}
	}
	return true
}

// Replays returns the retained replays, oldest first
func (t *Table) Replays() []Replay {
	out := make([]Replay, len(t.replays))
	copy(out, t.replays)
	return out
}

func (t *Table) player(id string) *Player {
	for _, p := range t.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// current returns the seat the table is waiting on in an offer or play phase
func (t *Table) current() *Player {
	switch t.phase {
	case PhaseSuperMatch, PhaseSwitch, PhasePlaying:
	default:
		return nil
	}
	if t.turn < 0 || t.turn >= len(t.players) {
		return nil
	}
	return t.players[t.turn]
}

// currentHuman returns the current seat only when it takes input
func (t *Table) currentHuman() *Player {
	p := t.current()
	if p == nil || p.Type != Human {
		return nil
	}
	return p
}

// next returns the first seat at or after from that satisfies ok, or -1
func (t *Table) next(from int, ok func(*Player) bool) int {
	for i := max(from, 0); i < len(t.players); i++ {
		if ok(t.players[i]) {
			return i
		}
	}
	return -1
}

func (t *Table) draw() (blackjack.Card, error) {
	c, err := t.shoe.Draw()
	if err != nil {
		return blackjack.Card{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	return c, nil
}

// refreshLocks releases expired lockouts. A released player with no coins
// starts again from the starting bankroll.
func (t *Table) refreshLocks() {
	now := t.clock.Now()
	for _, p := range t.players {
		if !p.Locked || now.Before(p.UnlockAt) {
			continue
		}
		p.Locked = false
		p.UnlockAt = time.Time{}
		if p.Coins == 0 {
			p.Coins = t.rules.StartingCoins
		}
		t.logger.Info("Lock expired", "player", p.ID, "coins", p.Coins)
	}
}

// fail abandons the round after an invariant violation. Stakes are refunded
// and the table returns to setup.
func (t *Table) fail(err error) {
	t.logger.Error("Abandoning round", "round", t.round, "error", err)
	t.abandon()
	t.fault = err
}

// abandon discards in-progress round state, refunding unresolved stakes
func (t *Table) abandon() {
	refund := t.phase.inRound()
	for _, p := range t.players {
		if refund {
			p.Coins += p.staked()
		}
		p.clearRound()
	}
	t.dealer = Dealer{}
	t.phase = PhaseSetup
	t.turn = -1
	t.decisions = nil
}

func (t *Table) record(p *Player, hand int, action string, cards []blackjack.Card, probs map[blackjack.Action]int) {
	d := Decision{
		PlayerID:      p.ID,
		Player:        p.Name,
		Hand:          hand,
		Action:        action,
		Cards:         append([]blackjack.Card(nil), cards...),
		Total:         blackjack.HandValue(cards),
		Probabilities: probs,
		At:            t.clock.Now(),
	}
	if up, ok := t.dealer.Up(); ok {
		d.DealerUp = &up
	}
	t.decisions = append(t.decisions, d)
	t.logger.Debug("Decision", "player", p.ID, "hand", hand, "action", action, "total", d.Total)
}
