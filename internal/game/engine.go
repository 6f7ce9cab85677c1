package game

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/blackjack"
)

// ErrUnknownCommand is returned by Execute for names it does not recognise
var ErrUnknownCommand = errors.New("unknown command")

// BankrollStore persists bankrolls and lockouts between sessions. Load
// failures are reported as "nothing saved".
type BankrollStore interface {
	LoadCoins(ctx context.Context, variant string) (map[string]int, bool)
	SaveCoins(ctx context.Context, variant string, coins map[string]int) error
	LoadLocks(ctx context.Context, variant string) map[string]time.Time
	SaveLocks(ctx context.Context, variant string, locks map[string]time.Time) error
}

// Command names accepted by Execute
const (
	CmdStartGame          = "startGame"
	CmdPlaceBet           = "placeBet"
	CmdPlaceSuperMatchBet = "placeSuperMatchBet"
	CmdSkipSuperMatchBet  = "skipSuperMatchBet"
	CmdChooseSwitch       = "chooseSwitch"
	CmdKeepHands          = "keepHands"
	CmdPlayerAction       = "playerAction"
	CmdNextRound          = "nextRound"
	CmdResetToSetup       = "resetToSetup"
)

const (
	subscriberBuffer = 8
	saveTimeout      = 5 * time.Second
)

// Engine serialises access to a Table, paces its automatic transitions on a
// clock and persists bankrolls after each resolution.
type Engine struct {
	mu     sync.Mutex
	table  *Table
	clock  quartz.Clock
	store  BankrollStore
	logger *log.Logger

	timer  *quartz.Timer
	gen    uint64
	closed bool

	subs    map[int]chan Snapshot
	nextSub int

	savedCoins map[string]int
	savedLocks map[string]time.Time
}

// NewEngine wraps table. Saved bankrolls and lockouts for the table's
// variant are loaded from store when one is given.
func NewEngine(ctx context.Context, table *Table, clock quartz.Clock, store BankrollStore, logger *log.Logger) *Engine {
	e := &Engine{
		table:  table,
		clock:  clock,
		store:  store,
		logger: logger.WithPrefix("engine"),
		subs:   make(map[int]chan Snapshot),
	}

	if store != nil {
		variant := string(table.Rules().Variant)
		coins, ok := store.LoadCoins(ctx, variant)
		if !ok {
			coins = nil
		}
		locks := store.LoadLocks(ctx, variant)
		table.Restore(coins, locks)
		e.logger.Info("Loaded bankrolls", "variant", variant, "saved", ok, "locked", len(locks))
	}
	e.savedCoins = table.Bankrolls()
	e.savedLocks = table.Locks()
	return e
}

// StartGame moves setup to betting
func (e *Engine) StartGame() bool { return e.apply(CmdStartGame, e.table.StartGame) }

// PlaceBet places the bet unit for every seat that can cover it
func (e *Engine) PlaceBet() bool { return e.apply(CmdPlaceBet, e.table.PlaceBet) }

// PlaceSuperMatchBet takes the side bet for the human being offered it
func (e *Engine) PlaceSuperMatchBet() bool {
	return e.apply(CmdPlaceSuperMatchBet, e.table.PlaceSuperMatchBet)
}

// SkipSuperMatchBet declines the side bet for the human being offered it
func (e *Engine) SkipSuperMatchBet() bool {
	return e.apply(CmdSkipSuperMatchBet, e.table.SkipSuperMatchBet)
}

// ChooseSwitch swaps the current human's second cards
func (e *Engine) ChooseSwitch() bool { return e.apply(CmdChooseSwitch, e.table.ChooseSwitch) }

// KeepHands keeps the current human's hands as dealt
func (e *Engine) KeepHands() bool { return e.apply(CmdKeepHands, e.table.KeepHands) }

// PlayerAction applies a for the human whose turn it is
func (e *Engine) PlayerAction(a blackjack.Action) bool {
	return e.apply(CmdPlayerAction, func() bool { return e.table.PlayerAction(a) })
}

// NextRound opens betting after a resolved round
func (e *Engine) NextRound() bool { return e.apply(CmdNextRound, e.table.NextRound) }

// ResetToSetup abandons the round in progress
func (e *Engine) ResetToSetup() bool { return e.apply(CmdResetToSetup, e.table.ResetToSetup) }

// RenamePlayer renames a seat during setup
func (e *Engine) RenamePlayer(id, name string) bool {
	return e.apply("renamePlayer", func() bool { return e.table.RenamePlayer(id, name) })
}

// SetPlayerType hands a seat to the policy or back to a person during setup
func (e *Engine) SetPlayerType(id string, typ PlayerType) bool {
	return e.apply("setPlayerType", func() bool { return e.table.SetPlayerType(id, typ) })
}

// Execute runs a command by name. arg carries the action for playerAction.
// The bool reports whether the command was applied.
func (e *Engine) Execute(cmd, arg string) (bool, error) {
	switch cmd {
	case CmdStartGame:
		return e.StartGame(), nil
	case CmdPlaceBet:
		return e.PlaceBet(), nil
	case CmdPlaceSuperMatchBet:
		return e.PlaceSuperMatchBet(), nil
	case CmdSkipSuperMatchBet:
		return e.SkipSuperMatchBet(), nil
	case CmdChooseSwitch:
		return e.ChooseSwitch(), nil
	case CmdKeepHands:
		return e.KeepHands(), nil
	case CmdPlayerAction:
		a, err := blackjack.ParseAction(arg)
		if err != nil {
			return false, err
		}
		return e.PlayerAction(a), nil
	case CmdNextRound:
		return e.NextRound(), nil
	case CmdResetToSetup:
		return e.ResetToSetup(), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

// Snapshot returns the current table state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Snapshot()
}

// Replays returns the retained replays, oldest first
func (e *Engine) Replays() []Replay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.Replays()
}

// Subscribe returns a channel that receives a snapshot after every state
// change, starting with the current one. Slow readers lose the oldest
// snapshots. Call the returned function to unsubscribe.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	ch <- e.table.Snapshot()

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

// Close stops pending transitions and closes every subscription
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

func (e *Engine) apply(name string, fn func() bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	if !fn() {
		e.logger.Debug("Command rejected", "command", name, "phase", e.table.Phase())
		return false
	}
	e.logger.Debug("Command applied", "command", name, "phase", e.table.Phase())
	e.settle()
	return true
}

// settle runs zero-delay transitions inline, schedules the next delayed one
// and publishes the result. Callers hold e.mu.
func (e *Engine) settle() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++

	for {
		tr, ok := e.table.Pending()
		if !ok {
			break
		}
		if tr.Delay > 0 {
			gen := e.gen
			e.timer = e.clock.AfterFunc(tr.Delay, func() { e.fire(gen) }, "engine", tr.Kind.String())
			break
		}
		if err := e.table.Step(); err != nil {
			e.logger.Error("Automatic step failed", "step", tr.Kind, "error", err)
		}
	}

	e.persist()
	e.publish()
}

func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.gen {
		return
	}
	e.timer = nil

	if err := e.table.Step(); err != nil {
		e.logger.Error("Automatic step failed", "error", err)
	}
	e.settle()
}

// persist saves bankrolls and lockouts whenever a round has settled and
// they differ from what was last saved
func (e *Engine) persist() {
	if e.store == nil {
		return
	}
	switch e.table.Phase() {
	case PhaseSetup, PhaseResult:
	default:
		return
	}

	coins := e.table.Bankrolls()
	locks := e.table.Locks()
	if maps.Equal(coins, e.savedCoins) && maps.EqualFunc(locks, e.savedLocks, time.Time.Equal) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	variant := string(e.table.Rules().Variant)
	if err := e.store.SaveCoins(ctx, variant, coins); err != nil {
		e.logger.Error("Failed to save bankrolls", "variant", variant, "error", err)
		return
	}
	if err := e.store.SaveLocks(ctx, variant, locks); err != nil {
		e.logger.Error("Failed to save locks", "variant", variant, "error", err)
		return
	}
	e.savedCoins = coins
	e.savedLocks = locks
}

func (e *Engine) publish() {
	if len(e.subs) == 0 {
		return
	}
	snap := e.table.Snapshot()
	for _, ch := range e.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
