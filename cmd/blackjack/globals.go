package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/internal/config"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/lox/blackjackstats/internal/randutil"
	"github.com/lox/blackjackstats/internal/store"
)

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Variant  string `help:"Table variant: regular, switch or bahama (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Write logs to this file instead of stderr (overrides config)"`
	Debug    bool   `help:"Shorthand for --log-level=debug"`
	Seed     *int64 `help:"Deterministic RNG seed (optional)"`
}

// load reads the config file and applies flag overrides
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Variant != "" {
		cfg.Table.Variant = g.Variant
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if g.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if g.LogFile != "" {
		cfg.Server.LogFile = g.LogFile
	}
	return cfg, nil
}

// setupLogger builds the root logger. The returned func closes the log file
// when one was opened.
func setupLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Server.LogLevel, err)
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	return logger, closeFn, nil
}

// signalContext is cancelled on interrupt or terminate
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// session is an engine wired to its bankroll store
type session struct {
	engine    *game.Engine
	bankrolls *store.Bankrolls
	kv        store.KV
	logger    *log.Logger
}

func openSession(ctx context.Context, cfg *config.Config, seed int64, logger *log.Logger) (*session, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	clock := quartz.NewReal()
	opts := append(cfg.TableOptions(), game.WithClock(clock), game.WithLogger(logger))
	tbl, err := game.NewTable(randutil.New(seed), variant, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	bankrolls := store.NewBankrolls(kv, clock, logger)
	logger.Info("Opened table",
		"variant", variant,
		"decks", cfg.Table.Decks,
		"ai", cfg.Table.AIPlayers,
		"storage", cfg.Storage.Driver,
		"seed", seed)

	return &session{
		engine:    game.NewEngine(ctx, tbl, clock, bankrolls, logger),
		bankrolls: bankrolls,
		kv:        kv,
		logger:    logger,
	}, nil
}

func (s *session) Close() {
	s.engine.Close()
	if err := s.kv.Close(); err != nil {
		s.logger.Warn("Failed to close storage", "error", err)
	}
}

// prepare loads config, lets the command adjust it, validates it and then
// builds the logger and seed
func (g *Globals) prepare(adjust ...func(*config.Config)) (*config.Config, *log.Logger, func(), int64, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, nil, 0, err
	}
	for _, fn := range adjust {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, 0, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, closeLog, err := setupLogger(cfg)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	return cfg, logger, closeLog, randutil.Seed(g.Seed), nil
}
