// Package tui is a terminal front end for a local table engine.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/game"
)

// Terms records acceptance of the terms of play
type Terms interface {
	TermsAccepted(ctx context.Context) bool
	AcceptTerms(ctx context.Context) error
}

// snapshotMsg carries an engine update into the program
type snapshotMsg game.Snapshot

// closedMsg reports that the engine stopped publishing
type closedMsg struct{}

// Model is the Bubble Tea model for one table
type Model struct {
	engine *game.Engine
	terms  Terms
	logger *log.Logger

	updates     <-chan game.Snapshot
	unsubscribe func()

	snap          game.Snapshot
	loggedRound   int
	termsAccepted bool
	status        string

	keys        keyMap
	help        help.Model
	logViewport viewport.Model
	gameLog     []string

	width    int
	height   int
	quitting bool
}

// NewModel subscribes to engine. terms may be nil, in which case no
// acceptance is required.
func NewModel(engine *game.Engine, terms Terms, logger *log.Logger) *Model {
	updates, unsubscribe := engine.Subscribe()
	m := &Model{
		engine:        engine,
		terms:         terms,
		logger:        logger.WithPrefix("tui"),
		updates:       updates,
		unsubscribe:   unsubscribe,
		snap:          engine.Snapshot(),
		termsAccepted: terms == nil || terms.TermsAccepted(context.Background()),
		keys:          defaultKeyMap(),
		help:          help.New(),
		logViewport:   viewport.New(10, 5),
	}
	if replays := engine.Replays(); len(replays) > 0 {
		m.loggedRound = replays[len(replays)-1].Round
	}
	if !m.termsAccepted {
		m.status = "Press t to accept the terms: simulated coins only, no real-money play."
	}
	return m
}

// Init starts listening for engine updates
func (m *Model) Init() tea.Cmd {
	return m.waitForSnapshot()
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.applySnapshot(game.Snapshot(msg))
		return m, m.waitForSnapshot()

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.unsubscribe()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp):
		m.logViewport.ScrollUp(1)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDn):
		m.logViewport.ScrollDown(1)
		return m, nil
	case key.Matches(msg, m.keys.Terms):
		m.acceptTerms()
		return m, nil
	}

	if !m.termsAccepted {
		return m, nil
	}

	applied, handled := m.command(msg)
	if !handled {
		return m, nil
	}
	if applied {
		m.status = ""
	} else {
		m.status = "Not available right now"
	}
	return m, nil
}

// command maps a key to a table command for the phase the table is in
func (m *Model) command(msg tea.KeyMsg) (applied, handled bool) {
	e := m.engine
	switch {
	case key.Matches(msg, m.keys.Continue):
		switch m.snap.Awaiting {
		case game.InputStart:
			return e.StartGame(), true
		case game.InputBet:
			return e.PlaceBet(), true
		case game.InputNextRound:
			return e.NextRound(), true
		}
		return false, true
	case key.Matches(msg, m.keys.Hit):
		return e.PlayerAction(blackjack.Hit), true
	case key.Matches(msg, m.keys.Stand):
		return e.PlayerAction(blackjack.Stand), true
	case key.Matches(msg, m.keys.Double):
		return e.PlayerAction(blackjack.Double), true
	case key.Matches(msg, m.keys.Split):
		return e.PlayerAction(blackjack.Split), true
	case key.Matches(msg, m.keys.Yes):
		if m.snap.Awaiting == game.InputSwitch {
			return e.ChooseSwitch(), true
		}
		return e.PlaceSuperMatchBet(), true
	case key.Matches(msg, m.keys.No):
		if m.snap.Awaiting == game.InputSwitch {
			return e.KeepHands(), true
		}
		return e.SkipSuperMatchBet(), true
	case key.Matches(msg, m.keys.Reset):
		return e.ResetToSetup(), true
	}
	return false, false
}

func (m *Model) acceptTerms() {
	if m.terms == nil || m.termsAccepted {
		return
	}
	if err := m.terms.AcceptTerms(context.Background()); err != nil {
		m.logger.Error("Failed to record terms", "error", err)
		m.status = "Could not save acceptance: " + err.Error()
		return
	}
	m.termsAccepted = true
	m.status = ""
}

func (m *Model) applySnapshot(s game.Snapshot) {
	m.snap = s
	if s.Fault != "" {
		m.status = "Round abandoned: " + s.Fault
	}
	if s.Phase != game.PhaseResult && s.Phase != game.PhaseSetup {
		return
	}

	replays := m.engine.Replays()
	if len(replays) == 0 {
		return
	}
	last := replays[len(replays)-1]
	if last.Round <= m.loggedRound {
		return
	}
	m.loggedRound = last.Round
	for _, line := range DescribeReplay(last) {
		m.AddLogEntry(line)
	}
}

// DescribeReplay renders a finished round as log lines. Cards are styled
// for a terminal.
func DescribeReplay(r game.Replay) []string {
	lines := []string{fmt.Sprintf("Round %d: dealer %s %d", r.Round, formatCards(r.Dealer), r.DealerTotal)}
	for _, d := range r.Decisions {
		lines = append(lines, fmt.Sprintf("  %s %s on %d", d.Player, d.Action, d.Total))
	}
	for _, p := range r.Players {
		var hands []string
		for _, h := range p.Hands {
			hands = append(hands, fmt.Sprintf("%d %s", h.Total, h.Outcome))
		}
		line := fmt.Sprintf("  %s: %s, %+d (%d)", p.Name, strings.Join(hands, ", "), p.Delta, p.CoinsAfter)
		if p.SuperMatch != nil {
			line += fmt.Sprintf(" super match %s", p.SuperMatch.Match)
		}
		if p.Locked {
			line += " LOCKED"
		}
		lines = append(lines, line)
	}
	if r.GlobalReset {
		lines = append(lines, "  Every AI is out of coins, table reset")
	}
	return lines
}

// AddLogEntry appends to the round log and scrolls to it
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// View renders the table
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	table := m.renderTable()
	footer := m.renderFooter()

	logHeight := m.height - lipgloss.Height(table) - lipgloss.Height(footer) - 2
	if logHeight < 1 {
		logHeight = 1
	}
	logWidth := m.width - 2
	if logWidth < 1 {
		logWidth = 1
	}
	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	logPane := PaneStyle.Width(logWidth).Height(logHeight).Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, table, logPane, footer)
}

func (m *Model) renderTable() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Blackjack %s  round %d  %s", s.Variant, s.Round, s.Phase)))
	b.WriteString(InfoStyle.Render(fmt.Sprintf("  shoe %d/%d cards", s.ShoeRemaining, s.Decks*52)))
	b.WriteString("\n\n")

	dealer := formatCards(s.Dealer.Cards)
	if s.Dealer.Hidden > 0 {
		dealer += strings.Repeat(" ??", s.Dealer.Hidden)
	}
	b.WriteString(DealerStyle.Render("Dealer "))
	b.WriteString(fmt.Sprintf("%s %d\n", dealer, s.Dealer.Total))

	for _, p := range s.Players {
		b.WriteString(m.renderPlayer(p))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderPlayer(p game.PlayerView) string {
	name := PlayerInfoStyle.Render(p.Name)
	if p.ID == m.snap.Turn {
		name = ActivePlayerStyle.Render("> " + p.Name)
	}

	line := fmt.Sprintf("%s  %d coins", name, p.Coins)
	if p.Locked && p.UnlockAt != nil {
		line += ErrorStyle.Render(fmt.Sprintf("  locked until %s", p.UnlockAt.Format("Jan 2 15:04")))
	}
	for i, h := range p.Hands {
		hand := fmt.Sprintf("  %s %d", formatCards(h.Cards), h.Total)
		if h.Soft {
			hand += " soft"
		}
		if h.Outcome != game.Pending {
			hand += " " + h.Outcome.String()
		}
		if p.ID == m.snap.Turn && i == p.ActiveHand && m.snap.Phase == game.PhasePlaying {
			hand = HandInfoStyle.Render(hand)
		}
		line += hand
	}
	if p.SuperMatch != nil && p.SuperMatch.Scored {
		line += WarningStyle.Render(fmt.Sprintf("  super match %s", p.SuperMatch.Match))
	}
	return line
}

func (m *Model) renderFooter() string {
	var b strings.Builder
	if prompt := m.prompt(); prompt != "" {
		b.WriteString(ActionsStyle.Render(prompt))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(WarningStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) prompt() string {
	s := m.snap
	switch s.Awaiting {
	case game.InputStart:
		return "Press enter to start"
	case game.InputBet:
		return fmt.Sprintf("Press enter to bet %d", s.BetUnit)
	case game.InputNextRound:
		return "Press enter for the next round"
	case game.InputSuperMatch:
		return "Super Match side bet? y/n"
	case game.InputSwitch:
		return "Switch second cards? y/n"
	case game.InputAction:
		var actions []string
		for _, a := range s.Offered {
			label := a.String()
			if pct, ok := s.Probabilities[a]; ok {
				label = fmt.Sprintf("%s %d%%", label, pct)
			}
			actions = append(actions, "["+label+"]")
		}
		return "Actions: " + strings.Join(actions, " ")
	}
	return ""
}

// formatCards formats cards with colors
func formatCards(cards []blackjack.Card) string {
	if len(cards) == 0 {
		return "[]"
	}
	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.Suit.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// Run shows m full screen until the player quits or ctx is cancelled
func Run(ctx context.Context, m *Model) error {
	defer m.unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
