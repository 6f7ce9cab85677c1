package simulator

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackstats/internal/estimator"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/lox/blackjackstats/internal/randutil"
	"github.com/lox/blackjackstats/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Variant   game.Variant
	Decks     int
	AIPlayers int
	Rounds    int // per table
	Tables    int
	Seed      int64
	Jitter    float64 // spread applied to displayed estimates, 0 disables

	// KeepReplays retains every resolved round in the result
	KeepReplays bool

	Logger *log.Logger
}

// TableSummary describes how one simulated table finished
type TableSummary struct {
	Seed    int64
	Rounds  int
	Stalled bool // betting opened but no seat could cover the bet unit
}

// Result is the outcome of a simulation run
type Result struct {
	Stats   *statistics.Statistics
	Tables  []TableSummary
	Replays []game.Replay
}

// Simulator plays AI-only tables as fast as the state machine allows
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Tables < 1 {
		config.Tables = 1
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

type tableRun struct {
	summary TableSummary
	stats   *statistics.Statistics
	replays []game.Replay
}

// Run plays every table concurrently and merges their results in table
// order, so a seed always reproduces the same numbers.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if _, err := game.RulesFor(s.config.Variant); err != nil {
		return nil, err
	}

	runs := make([]*tableRun, s.config.Tables)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range runs {
		g.Go(func() error {
			run, err := s.playTable(ctx, i)
			if err != nil {
				return fmt.Errorf("table %d: %w", i, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Stats: &statistics.Statistics{}}
	for _, run := range runs {
		res.Stats.Merge(run.stats)
		res.Tables = append(res.Tables, run.summary)
		res.Replays = append(res.Replays, run.replays...)
	}

	if err := res.Stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return res, nil
}

func (s *Simulator) playTable(ctx context.Context, n int) (*tableRun, error) {
	seed := randutil.Derive(s.config.Seed, n)
	logger := s.config.Logger.With("table", n)

	opts := []game.TableOption{
		game.WithHumans(0),
		game.WithAIPlayers(s.config.AIPlayers),
		game.WithAutoBet(true),
		game.WithReplayHistory(1),
		game.WithLogger(logger),
	}
	if s.config.Decks > 0 {
		opts = append(opts, game.WithDecks(s.config.Decks))
	}
	if s.config.Jitter > 0 {
		// jittered estimators are never shared between tables
		est := estimator.NewHeuristic(estimator.WithJitter(randutil.New(randutil.Derive(seed, 1)), s.config.Jitter))
		opts = append(opts, game.WithEstimator(est))
	}

	tbl, err := game.NewTable(randutil.New(seed), s.config.Variant, opts...)
	if err != nil {
		return nil, err
	}

	run := &tableRun{
		summary: TableSummary{Seed: seed},
		stats:   &statistics.Statistics{},
	}
	tbl.StartGame()

	for tbl.Resolved() < s.config.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := tbl.RunAutomatic(); err != nil {
			return nil, fmt.Errorf("round %d: %w", tbl.Resolved()+1, err)
		}

		if tbl.Resolved() > run.summary.Rounds {
			run.summary.Rounds = tbl.Resolved()
			replays := tbl.Replays()
			r := replays[len(replays)-1]
			run.stats.AddReplay(r)
			if s.config.KeepReplays {
				run.replays = append(run.replays, r)
			}
		}
		if tbl.Resolved() >= s.config.Rounds {
			break
		}

		switch phase := tbl.Phase(); phase {
		case game.PhaseResult:
			tbl.NextRound()
		case game.PhaseSetup:
			tbl.StartGame()
		case game.PhaseBetting:
			run.summary.Stalled = true
			logger.Warn("Betting stalled, no seat can cover the bet unit", "rounds", run.summary.Rounds, "bankrolls", tbl.Bankrolls())
			return run, nil
		default:
			return nil, fmt.Errorf("stopped in phase %s with nothing pending", phase)
		}
	}

	logger.Debug("Table finished", "rounds", run.summary.Rounds, "seed", seed)
	return run, nil
}

// PrintSummary writes a summary of simulation results
func PrintSummary(w io.Writer, config Config, res *Result) {
	stats := res.Stats
	mean := stats.Mean()
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS: %s, %d AI, %d tables ===\n", config.Variant, config.AIPlayers, len(res.Tables))
	fmt.Fprintf(w, "Rounds played: %d\n", stats.Rounds)
	fmt.Fprintf(w, "Hands played: %d\n", stats.Hands)
	stalled := 0
	for _, t := range res.Tables {
		if t.Stalled {
			stalled++
		}
	}
	if stalled > 0 {
		fmt.Fprintf(w, "Stalled tables: %d\n", stalled)
	}

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f coins/hand\n", mean)
	fmt.Fprintf(w, "Median: %.4f coins/hand\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f coins\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f coins\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] coins/hand\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	if stats.Hands > 0 {
		hands := float64(stats.Hands)
		fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
		fmt.Fprintf(w, "Win: %d (%.1f%%)\n", stats.Wins, float64(stats.Wins)/hands*100)
		fmt.Fprintf(w, "Push: %d (%.1f%%)\n", stats.Pushes, float64(stats.Pushes)/hands*100)
		fmt.Fprintf(w, "Lose: %d (%.1f%%)\n", stats.Losses, float64(stats.Losses)/hands*100)
		fmt.Fprintf(w, "Bust: %d (%.1f%%)\n", stats.Busts, float64(stats.Busts)/hands*100)
		fmt.Fprintf(w, "Doubled: %d, from split: %d\n", stats.Doubles, stats.Splits)
	}

	fmt.Fprintf(w, "\n=== TABLE EVENTS ===\n")
	fmt.Fprintf(w, "Reshuffles: %d\n", stats.Reshuffles)
	fmt.Fprintf(w, "Lockouts: %d\n", stats.Lockouts)
	fmt.Fprintf(w, "Global resets: %d\n", stats.GlobalResets)

	if stats.SuperMatchBets > 0 {
		fmt.Fprintf(w, "\n=== SUPER MATCH ===\n")
		fmt.Fprintf(w, "Bets: %d, hits: %d (%.1f%%), net: %+d coins\n",
			stats.SuperMatchBets, stats.SuperMatchHits, stats.SuperMatchHitRate()*100, stats.SuperMatchNet)
	}

	fmt.Fprintf(w, "\n=== ESTIMATOR CALIBRATION ===\n")
	for i, b := range stats.Calibration {
		if b.Decisions == 0 {
			continue
		}
		hi := i*10 + 9
		if i == statistics.CalibrationBuckets-1 {
			hi = 100
		}
		fmt.Fprintf(w, "%3d-%3d%%: %d decisions, shown %.1f%%, won %.1f%%\n",
			i*10, hi, b.Decisions, b.MeanEstimate(), b.WinRate())
	}
}
