// Package game implements the blackjack round state machine.
//
// A Table moves through setup, betting, the optional Super Match offer,
// dealing, the optional Switch decision, player turns, dealer play and
// result. Human seats advance it with commands; everything else is an
// automatic transition reported by Pending and applied by Step.
//
// Synchronous use, as in tests and the simulator:
//
//	tbl, _ := game.NewTable(randutil.New(42), game.Regular, game.WithHumans(0))
//	tbl.StartGame()
//	tbl.PlaceBet()
//	tbl.RunAutomatic()
//
// Interactive use wraps the table in an Engine, which serialises commands
// from many callers and paces the automatic transitions on a quartz clock:
//
//	e := game.NewEngine(ctx, tbl, quartz.NewReal(), store, logger)
//	updates, cancel := e.Subscribe()
//	defer cancel()
//	e.StartGame()
package game
