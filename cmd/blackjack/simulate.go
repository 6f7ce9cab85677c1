package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjackstats/internal/fileutil"
	"github.com/lox/blackjackstats/internal/simulator"
)

// SimulateCmd plays AI-only tables at full speed
type SimulateCmd struct {
	Rounds    int     `default:"10000" help:"Rounds to play per table"`
	Tables    int     `default:"4" help:"Tables to run concurrently"`
	AIPlayers int     `name:"ai" help:"AI seats per table (overrides config)"`
	Jitter    float64 `help:"Spread of noise added to displayed estimates (0 disables)"`
	Replays   string  `type:"path" help:"Write every resolved round to this JSON file"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, logger, closeLog, seed, err := g.prepare()
	if err != nil {
		return err
	}
	defer closeLog()

	variant, err := cfg.Variant()
	if err != nil {
		return err
	}
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	ai := cfg.Table.AIPlayers
	if c.AIPlayers > 0 {
		ai = c.AIPlayers
	}

	simCfg := simulator.Config{
		Variant:     variant,
		Decks:       cfg.Table.Decks,
		AIPlayers:   ai,
		Rounds:      c.Rounds,
		Tables:      c.Tables,
		Seed:        seed,
		Jitter:      c.Jitter,
		KeepReplays: c.Replays != "",
		Logger:      logger,
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("Starting simulation", "variant", variant, "tables", c.Tables, "rounds", c.Rounds, "ai", ai, "seed", seed)
	start := time.Now()

	res, err := simulator.New(simCfg).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Simulation complete", "rounds", res.Stats.Rounds, "duration", time.Since(start).Round(time.Millisecond))

	simulator.PrintSummary(os.Stdout, simCfg, res)

	if c.Replays != "" {
		if err := fileutil.WriteJSON(c.Replays, res.Replays); err != nil {
			return fmt.Errorf("failed to write replays: %w", err)
		}
		logger.Info("Wrote replays", "path", c.Replays, "rounds", len(res.Replays))
	}
	return nil
}
