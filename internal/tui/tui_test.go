package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/lox/blackjackstats/internal/randutil"
	"github.com/lox/blackjackstats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestModel(t *testing.T, cards string, terms Terms) (*Model, *game.Engine, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	tbl, err := game.NewTable(randutil.New(1), game.Regular,
		game.WithAIPlayers(0),
		game.WithShoe(blackjack.NewStackedShoe(blackjack.MustParseCards(cards)...)),
		game.WithClock(clock),
		game.WithLogger(testLogger()))
	require.NoError(t, err)

	e := game.NewEngine(context.Background(), tbl, clock, nil, testLogger())
	t.Cleanup(e.Close)
	return NewModel(e, terms, testLogger()), e, clock
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// press sends k and then feeds the engine's latest snapshot to the model
func press(m *Model, e *game.Engine, k tea.KeyMsg) {
	m.Update(k)
	m.Update(snapshotMsg(e.Snapshot()))
}

func TestKeysDriveTheTable(t *testing.T) {
	t.Parallel()
	m, e, _ := newTestModel(t, "10s 9h 6c 10d Ks", nil)

	press(m, e, enter)
	assert.Equal(t, game.PhaseBetting, e.Snapshot().Phase)

	press(m, e, enter)
	assert.Equal(t, game.PhasePlaying, e.Snapshot().Phase)
	assert.Contains(t, m.prompt(), "[stand")

	press(m, e, keyRune('s'))
	assert.Equal(t, game.PhaseDealer, e.Snapshot().Phase)
	assert.Empty(t, m.status)

	press(m, e, keyRune('h'))
	assert.Equal(t, "Not available right now", m.status)

	press(m, e, keyRune('r'))
	assert.Equal(t, game.PhaseSetup, e.Snapshot().Phase)
	assert.Equal(t, 100, e.Snapshot().Players[0].Coins)
}

func TestTermsGateCommands(t *testing.T) {
	t.Parallel()
	terms := store.NewBankrolls(store.NewMemoryKV(), quartz.NewMock(t), testLogger())
	m, e, _ := newTestModel(t, "", terms)

	require.False(t, m.termsAccepted)
	assert.Contains(t, m.status, "accept the terms")

	press(m, e, enter)
	assert.Equal(t, game.PhaseSetup, e.Snapshot().Phase, "nothing happens before acceptance")

	press(m, e, keyRune('t'))
	assert.True(t, m.termsAccepted)
	assert.True(t, terms.TermsAccepted(context.Background()))

	press(m, e, enter)
	assert.Equal(t, game.PhaseBetting, e.Snapshot().Phase)
}

func TestQuitUnsubscribes(t *testing.T) {
	t.Parallel()
	m, _, _ := newTestModel(t, "", nil)

	_, cmd := m.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())

	for range m.updates {
	}
}

func TestViewRendersTable(t *testing.T) {
	t.Parallel()
	m, e, _ := newTestModel(t, "10s 9h 6c 10d Ks", nil)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	press(m, e, enter)
	press(m, e, enter)

	view := m.View()
	assert.Contains(t, view, "Dealer")
	assert.Contains(t, view, "Player 1")
	assert.Contains(t, view, "??", "hole card stays hidden")
	assert.Contains(t, view, "Actions:")
}

func TestDescribeReplay(t *testing.T) {
	t.Parallel()
	r := game.Replay{
		Round:       4,
		Dealer:      blackjack.MustParseCards("10s 8h"),
		DealerTotal: 18,
		Decisions:   []game.Decision{{Player: "AI 1", Action: "hit", Total: 12}},
		Players: []game.ReplayPlayer{{
			Name:       "AI 1",
			Hands:      []game.HandView{{Total: 19, Outcome: game.Win}},
			Delta:      5,
			CoinsAfter: 105,
		}},
		GlobalReset: true,
	}

	lines := DescribeReplay(r)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Round 4")
	assert.Contains(t, lines[0], "18")
	assert.Equal(t, "  AI 1 hit on 12", lines[1])
	assert.Contains(t, lines[2], "+5 (105)")
	assert.Contains(t, lines[3], "reset")
}

func TestResultIsLoggedOnce(t *testing.T) {
	t.Parallel()
	m, e, clock := newTestModel(t, "10s 9h 6c 10d Ks", nil)

	press(m, e, enter)
	press(m, e, enter)
	press(m, e, keyRune('s'))
	assert.Empty(t, m.gameLog, "nothing is logged mid-round")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for e.Snapshot().Phase != game.PhaseResult {
		_, w := clock.AdvanceNext()
		w.MustWait(ctx)
	}

	m.Update(snapshotMsg(e.Snapshot()))
	require.NotEmpty(t, m.gameLog)
	assert.Contains(t, m.gameLog[0], "Round 1")
	logged := len(m.gameLog)

	m.Update(snapshotMsg(e.Snapshot()))
	assert.Len(t, m.gameLog, logged)
}
