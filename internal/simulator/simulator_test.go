package simulator

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestNew(t *testing.T) {
	sim := New(Config{Variant: game.Regular, Rounds: 10})
	require.NotNil(t, sim)
	assert.Equal(t, 1, sim.config.Tables, "at least one table")
	assert.NotNil(t, sim.config.Logger)
}

func TestRun_Regular(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Variant:     game.Regular,
		AIPlayers:   3,
		Rounds:      40,
		Tables:      3,
		Seed:        12345,
		KeepReplays: true,
		Logger:      testLogger(),
	}

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	// every bankroll stays a multiple of the bet unit so betting never stalls
	require.Len(t, res.Tables, 3)
	for _, tbl := range res.Tables {
		assert.Equal(t, 40, tbl.Rounds)
		assert.False(t, tbl.Stalled)
	}

	stats := res.Stats
	assert.Equal(t, 120, stats.Rounds)
	assert.Len(t, res.Replays, 120)
	assert.GreaterOrEqual(t, stats.Hands, 120)
	assert.Equal(t, stats.Hands, stats.Wins+stats.Pushes+stats.Losses+stats.Busts, "every hand settles")
	assert.Zero(t, stats.SuperMatchBets, "no side bets in regular")
	assert.NoError(t, stats.Validate())

	decisions := 0
	for _, b := range stats.Calibration {
		decisions += b.Decisions
	}
	assert.Positive(t, decisions, "AI decisions carry estimates")
}

func TestRun_Switch(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Variant:   game.Switch,
		AIPlayers: 2,
		Rounds:    30,
		Tables:    2,
		Seed:      7,
		Logger:    testLogger(),
	}

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	for _, tbl := range res.Tables {
		assert.True(t, tbl.Rounds == 30 || tbl.Stalled, "table either finishes or stalls in betting")
	}
	assert.Positive(t, res.Stats.Rounds)
	assert.Equal(t, 0, res.Stats.Hands%2, "switch deals two hands per seat")
	assert.Empty(t, res.Replays, "replays are only kept on request")
	assert.NoError(t, res.Stats.Validate())
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Variant:   game.Regular,
		AIPlayers: 2,
		Rounds:    25,
		Tables:    4,
		Seed:      99,
		Logger:    testLogger(),
	}

	first, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, first.Tables, second.Tables)

	cfg.Seed = 100
	other, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Tables[0].Seed, other.Tables[0].Seed)
}

func TestRun_UnavailableVariant(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Variant: game.Bahama, AIPlayers: 2, Rounds: 5}).Run(context.Background())
	assert.ErrorIs(t, err, game.ErrVariantUnavailable)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Variant: game.Regular, AIPlayers: 2, Rounds: 1000, Tables: 2, Logger: testLogger()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	cfg := Config{Variant: game.Switch, AIPlayers: 2, Rounds: 20, Seed: 3, Logger: testLogger()}
	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, cfg, res)

	out := buf.String()
	assert.Contains(t, out, "=== FINAL RESULTS: switch, 2 AI, 1 tables ===")
	assert.Contains(t, out, "95% CI:")
	assert.Contains(t, out, "=== TABLE EVENTS ===")
	assert.Contains(t, out, "=== ESTIMATOR CALIBRATION ===")
}

func TestRun_JitterIsReproducible(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Variant:   game.Regular,
		AIPlayers: 2,
		Rounds:    15,
		Tables:    2,
		Seed:      5,
		Jitter:    10,
		Logger:    testLogger(),
	}

	first, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Stats.Calibration, second.Stats.Calibration)
}
