package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBankrolls struct {
	mu    sync.Mutex
	coins map[string]map[string]int
	locks map[string]map[string]time.Time
	saves int
}

func newMemoryBankrolls() *memoryBankrolls {
	return &memoryBankrolls{
		coins: make(map[string]map[string]int),
		locks: make(map[string]map[string]time.Time),
	}
}

func (m *memoryBankrolls) LoadCoins(_ context.Context, variant string) (map[string]int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coins[variant]
	return c, ok
}

func (m *memoryBankrolls) SaveCoins(_ context.Context, variant string, coins map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins[variant] = coins
	m.saves++
	return nil
}

func (m *memoryBankrolls) LoadLocks(_ context.Context, variant string) map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[variant]
}

func (m *memoryBankrolls) SaveLocks(_ context.Context, variant string, locks map[string]time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[variant] = locks
	return nil
}

func newTestEngine(t *testing.T, cards string, store BankrollStore, opts ...TableOption) (*Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	base := []TableOption{
		WithShoe(blackjack.NewStackedShoe(blackjack.MustParseCards(cards)...)),
		WithClock(clock),
		WithLogger(testLogger()),
	}
	tbl, err := NewTable(randutil.New(1), Regular, append(base, opts...)...)
	require.NoError(t, err)

	e := NewEngine(context.Background(), tbl, clock, store, testLogger())
	t.Cleanup(e.Close)
	return e, clock
}

// advanceUntil fires pending timers until the engine reaches phase
func advanceUntil(t *testing.T, e *Engine, clock *quartz.Mock, phase Phase) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range 50 {
		if e.Snapshot().Phase == phase {
			return
		}
		_, w := clock.AdvanceNext()
		w.MustWait(ctx)
	}
	t.Fatalf("engine never reached %s, stuck in %s", phase, e.Snapshot().Phase)
}

func TestEnginePacesAITurnsAndDealer(t *testing.T) {
	t.Parallel()
	// seat1 human 10+9, seat2 AI 10+8, dealer 10+7
	e, clock := newTestEngine(t, "10s 9h 10d 8c 10h 7c", nil, WithAIPlayers(1))

	require.True(t, e.StartGame())
	require.True(t, e.PlaceBet())

	s := e.Snapshot()
	require.Equal(t, PhasePlaying, s.Phase, "dealing runs inline when no reshuffle is due")
	require.Equal(t, "seat1", s.Turn)

	require.True(t, e.PlayerAction(blackjack.Stand))
	s = e.Snapshot()
	assert.Equal(t, "seat2", s.Turn)
	assert.Equal(t, InputNone, s.Awaiting, "AI turn waits on the clock")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d, w := clock.AdvanceNext()
	w.MustWait(ctx)
	assert.Equal(t, DefaultDelays.AI, d)
	assert.Equal(t, PhaseDealer, e.Snapshot().Phase)

	advanceUntil(t, e, clock, PhaseResult)
	s = e.Snapshot()
	assert.Equal(t, 105, s.Players[0].Coins)
	assert.Equal(t, 105, s.Players[1].Coins)
	assert.Len(t, e.Replays(), 1)
}

func TestEngineRejectsAfterClose(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "10s 9h 6c 10d", nil, WithAIPlayers(0))
	e.Close()
	assert.False(t, e.StartGame())

	ch, _ := e.Subscribe()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestEngineResetCancelsPendingStep(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "10s 9h 10d 8c 10h 7c", nil, WithAIPlayers(1))
	require.True(t, e.StartGame())
	require.True(t, e.PlaceBet())
	require.True(t, e.PlayerAction(blackjack.Stand))
	require.Equal(t, "seat2", e.Snapshot().Turn)

	require.True(t, e.ResetToSetup())
	s := e.Snapshot()
	assert.Equal(t, PhaseSetup, s.Phase)
	for _, p := range s.Players {
		assert.Equal(t, 100, p.Coins)
	}

	assert.Empty(t, e.Replays())
}

func TestEngineExecute(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "10s 9h 6c 10d Ks", nil, WithAIPlayers(0))

	ok, err := e.Execute(CmdStartGame, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Execute(CmdPlaceBet, "")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.Execute(CmdPlayerAction, "surrender")
	assert.Error(t, err)

	_, err = e.Execute("shuffleUpAndDeal", "")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	ok, err = e.Execute(CmdNextRound, "")
	require.NoError(t, err)
	assert.False(t, ok, "next round before a result is rejected")

	ok, err = e.Execute(CmdPlayerAction, "stand")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngineSubscribe(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "10s 9h 6c 10d", nil, WithAIPlayers(0))

	ch, cancel := e.Subscribe()
	first := <-ch
	assert.Equal(t, PhaseSetup, first.Phase)

	require.True(t, e.StartGame())
	next := <-ch
	assert.Equal(t, PhaseBetting, next.Phase)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestEngineSlowSubscriberKeepsLatest(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "", nil, WithAIPlayers(0))

	ch, cancel := e.Subscribe()
	defer cancel()
	for range subscriberBuffer + 4 {
		e.ResetToSetup()
	}
	require.True(t, e.StartGame())

	var last Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, PhaseBetting, last.Phase)
}

func TestEngineDoesNotSaveMidRound(t *testing.T) {
	t.Parallel()
	store := newMemoryBankrolls()
	e, _ := newTestEngine(t, "10s 9h 6c 10d Ks", store, WithAIPlayers(0))

	require.True(t, e.StartGame())
	require.True(t, e.PlaceBet())
	assert.Equal(t, 0, store.saves, "nothing saved mid-round")

	require.True(t, e.PlayerAction(blackjack.Stand))
	coins, ok := store.LoadCoins(context.Background(), "regular")
	assert.False(t, ok)
	assert.Nil(t, coins)
}

func TestEngineLoadsSavedBankrolls(t *testing.T) {
	t.Parallel()
	store := newMemoryBankrolls()
	store.coins["regular"] = map[string]int{"seat1": 55, "seat2": 0}

	clock := quartz.NewMock(t)
	store.locks["regular"] = map[string]time.Time{"seat2": clock.Now().Add(time.Hour)}

	tbl, err := NewTable(randutil.New(1), Regular, WithAIPlayers(1), WithClock(clock), WithLogger(testLogger()))
	require.NoError(t, err)
	e := NewEngine(context.Background(), tbl, clock, store, testLogger())
	defer e.Close()

	s := e.Snapshot()
	assert.Equal(t, 55, s.Players[0].Coins)
	assert.True(t, s.Players[1].Locked)
}

func TestEngineSavesResultWithMockClock(t *testing.T) {
	t.Parallel()
	store := newMemoryBankrolls()
	e, clock := newTestEngine(t, "10s 9h 6c 10d Ks", store, WithAIPlayers(0))

	require.True(t, e.StartGame())
	require.True(t, e.PlaceBet())
	require.True(t, e.PlayerAction(blackjack.Stand))
	advanceUntil(t, e, clock, PhaseResult)

	coins, ok := store.LoadCoins(context.Background(), "regular")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"seat1": 105}, coins)
	assert.Equal(t, 1, store.saves)
}

func TestEngineEditsSeatsDuringSetup(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, "10s 9h 6c 10d", nil, WithAIPlayers(1))

	assert.True(t, e.RenamePlayer("seat1", "Alice"))
	assert.True(t, e.SetPlayerType("seat2", Human))
	s := e.Snapshot()
	assert.Equal(t, "Alice", s.Players[0].Name)
	assert.Equal(t, Human, s.Players[1].Type)

	require.True(t, e.StartGame())
	assert.False(t, e.RenamePlayer("seat1", "Bob"), "seats are fixed once the game starts")
	assert.False(t, e.SetPlayerType("seat2", AI))
}
