package main

import (
	"github.com/lox/blackjackstats/internal/server"
)

// ServeCmd serves one table to browser and WebSocket clients
type ServeCmd struct {
	Addr string `short:"a" help:"Server address to bind to (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, closeLog, seed, err := g.prepare()
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

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger.Info("Starting blackjack server", "addr", addr, "variant", cfg.Table.Variant)
	srv := server.NewServer(sess.engine, sess.bankrolls, logger)
	return srv.ListenAndServe(ctx, addr)
}
