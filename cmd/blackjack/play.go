package main

import (
	"github.com/lox/blackjackstats/internal/config"
	"github.com/lox/blackjackstats/internal/tui"
)

// defaultPlayLog keeps log output off the alternate screen
const defaultPlayLog = "blackjack.log"

// PlayCmd runs the terminal interface against a local table
type PlayCmd struct {
	Name string `short:"n" help:"Your display name (overrides config)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, logger, closeLog, seed, err := g.prepare(func(cfg *config.Config) {
		if cfg.Server.LogFile == "" {
			cfg.Server.LogFile = defaultPlayLog
		}
		if c.Name != "" {
			cfg.Table.PlayerName = c.Name
		}
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(logger)
	defer cancel()

	sess, err := openSession(ctx, cfg, seed, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	return tui.Run(ctx, tui.NewModel(sess.engine, sess.bankrolls, logger))
}
