package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play at a table in the terminal"`
	Serve    ServeCmd         `cmd:"" help:"Serve a table over HTTP and WebSocket"`
	Simulate SimulateCmd      `cmd:"" help:"Play AI-only tables and report statistics"`
	Replay   ReplayCmd        `cmd:"" help:"Print archived rounds from a server or a replay file"`
}

func main() {
	// variables already in the environment win over .env
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack simulator with Regular and Switch tables"),
		kong.UsageOnError(),
		kong.DefaultEnvars("BLACKJACK"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
