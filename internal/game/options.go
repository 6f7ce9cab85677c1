package game

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/estimator"
	"github.com/lox/blackjackstats/internal/strategy"
)

// Estimator scores an action for display next to the hand
type Estimator interface {
	Estimate(hand []blackjack.Card, up blackjack.Card, action blackjack.Action) int
}

// Policy drives AI seats
type Policy interface {
	Decide(hand []blackjack.Card, up blackjack.Card, caps strategy.Capabilities) blackjack.Action
	DecideSwitch(first, second []blackjack.Card) bool
	DecideSuperMatch(coins int) bool
}

// Delays pace the automatic transitions. They are reported by Pending and
// honoured by the Engine; a synchronous harness may ignore them.
type Delays struct {
	AI      time.Duration
	Dealer  time.Duration
	Shuffle time.Duration
}

// DefaultDelays match the pacing of the browser game
var DefaultDelays = Delays{
	AI:      time.Second,
	Dealer:  time.Second,
	Shuffle: 1500 * time.Millisecond,
}

// LockDuration is how long a player who runs out of coins sits out
const LockDuration = 24 * time.Hour

// DefaultReplayHistory is the number of resolved rounds kept for replay
const DefaultReplayHistory = 20

// TableOption configures a Table during creation.
type TableOption func(*tableConfig)

type tableConfig struct {
	decks      int
	aiPlayers  int
	humans     int
	playerName string
	shoe       *blackjack.Shoe
	clock      quartz.Clock
	estimator  Estimator
	policy     Policy
	autoBet    bool
	delays     Delays
	logger     *log.Logger
	history    int
}

func defaultTableConfig() *tableConfig {
	return &tableConfig{
		decks:      6,
		aiPlayers:  2,
		humans:     1,
		playerName: "Player 1",
		delays:     DefaultDelays,
		history:    DefaultReplayHistory,
	}
}

// WithDecks sets the number of decks in the shoe.
// Default is 6 if not specified.
func WithDecks(n int) TableOption {
	return func(c *tableConfig) {
		c.decks = n
	}
}

// WithAIPlayers sets the number of AI seats.
// Default is 2 if not specified.
func WithAIPlayers(n int) TableOption {
	return func(c *tableConfig) {
		c.aiPlayers = n
	}
}

// WithHumans sets the number of human seats, seated before the AI.
// Zero gives an all-AI table for simulation.
func WithHumans(n int) TableOption {
	return func(c *tableConfig) {
		c.humans = n
	}
}

// WithPlayerName names the first human seat
func WithPlayerName(name string) TableOption {
	return func(c *tableConfig) {
		c.playerName = name
	}
}

// WithShoe uses a specific shoe for the first game instead of building one.
// Later games after a reset build a fresh shoe from the RNG.
func WithShoe(shoe *blackjack.Shoe) TableOption {
	return func(c *tableConfig) {
		c.shoe = shoe
	}
}

// WithClock sets the clock used for lockouts and timestamps
func WithClock(clock quartz.Clock) TableOption {
	return func(c *tableConfig) {
		c.clock = clock
	}
}

// WithEstimator replaces the heuristic probability estimator
func WithEstimator(e Estimator) TableOption {
	return func(c *tableConfig) {
		c.estimator = e
	}
}

// WithPolicy replaces the basic-strategy AI policy
func WithPolicy(p Policy) TableOption {
	return func(c *tableConfig) {
		c.policy = p
	}
}

// WithAutoBet places the bet unit automatically whenever betting opens
func WithAutoBet(enabled bool) TableOption {
	return func(c *tableConfig) {
		c.autoBet = enabled
	}
}

// WithDelays overrides the pacing of automatic transitions
func WithDelays(d Delays) TableOption {
	return func(c *tableConfig) {
		c.delays = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) TableOption {
	return func(c *tableConfig) {
		c.logger = logger
	}
}

// WithReplayHistory sets how many resolved rounds are kept
func WithReplayHistory(n int) TableOption {
	return func(c *tableConfig) {
		c.history = n
	}
}

func (c *tableConfig) fill() {
	if c.clock == nil {
		c.clock = quartz.NewReal()
	}
	if c.estimator == nil {
		c.estimator = estimator.NewHeuristic()
	}
	if c.policy == nil {
		c.policy = strategy.Basic{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.decks < 1 {
		c.decks = 6
	}
	if c.history < 1 {
		c.history = DefaultReplayHistory
	}
}
