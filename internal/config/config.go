// Package config loads the HCL configuration shared by the blackjack
// commands.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/lox/blackjackstats/internal/store"
)

// Config represents the complete configuration
type Config struct {
	Table   TableSettings
	Pacing  PacingSettings
	Server  ServerSettings
	Storage StorageSettings
}

// fileBlocks lets every block be omitted from the file
type fileBlocks struct {
	Table   *TableSettings   `hcl:"table,block"`
	Pacing  *PacingSettings  `hcl:"pacing,block"`
	Server  *ServerSettings  `hcl:"server,block"`
	Storage *StorageSettings `hcl:"storage,block"`
}

// TableSettings describes the table a session plays at
type TableSettings struct {
	Variant    string `hcl:"variant,optional"`
	Decks      int    `hcl:"decks,optional"`
	AIPlayers  int    `hcl:"ai_players,optional"`
	PlayerName string `hcl:"player_name,optional"`
	AutoBet    bool   `hcl:"auto_bet,optional"`
}

// PacingSettings holds the delays before automatic transitions
type PacingSettings struct {
	AIDelayMS      int `hcl:"ai_delay_ms,optional"`
	DealerDelayMS  int `hcl:"dealer_delay_ms,optional"`
	ShuffleDelayMS int `hcl:"shuffle_delay_ms,optional"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// StorageSettings selects where bankrolls are kept
type StorageSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
}

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var blocks fileBlocks
	diags = gohcl.DecodeBody(file.Body, nil, &blocks)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	var config Config
	if blocks.Table != nil {
		config.Table = *blocks.Table
	}
	if blocks.Pacing != nil {
		config.Pacing = *blocks.Pacing
	}
	if blocks.Server != nil {
		config.Server = *blocks.Server
	}
	if blocks.Storage != nil {
		config.Storage = *blocks.Storage
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Table.Variant == "" {
		c.Table.Variant = string(game.Regular)
	}
	if c.Table.Decks == 0 {
		c.Table.Decks = 6
	}
	if c.Table.AIPlayers == 0 {
		c.Table.AIPlayers = 2
	}
	if c.Table.PlayerName == "" {
		c.Table.PlayerName = "Player 1"
	}

	if c.Pacing.AIDelayMS == 0 {
		c.Pacing.AIDelayMS = int(game.DefaultDelays.AI / time.Millisecond)
	}
	if c.Pacing.DealerDelayMS == 0 {
		c.Pacing.DealerDelayMS = int(game.DefaultDelays.Dealer / time.Millisecond)
	}
	if c.Pacing.ShuffleDelayMS == 0 {
		c.Pacing.ShuffleDelayMS = int(game.DefaultDelays.Shuffle / time.Millisecond)
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = store.DriverFile
	}
	if c.Storage.Path == "" && c.Storage.Driver != store.DriverMemory {
		c.Storage.Path = "blackjack-state.json"
		if c.Storage.Driver == store.DriverSQLite {
			c.Storage.Path = "blackjack.db"
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := game.ParseVariant(c.Table.Variant); err != nil {
		return err
	}
	if c.Table.Decks < 6 || c.Table.Decks > 8 {
		return fmt.Errorf("decks must be between 6 and 8, got %d", c.Table.Decks)
	}
	if c.Table.AIPlayers < 2 || c.Table.AIPlayers > 4 {
		return fmt.Errorf("ai_players must be between 2 and 4, got %d", c.Table.AIPlayers)
	}
	if c.Pacing.AIDelayMS < 0 || c.Pacing.DealerDelayMS < 0 || c.Pacing.ShuffleDelayMS < 0 {
		return fmt.Errorf("pacing delays cannot be negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if !slices.Contains(store.Drivers(), c.Storage.Driver) {
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Variant returns the configured variant
func (c *Config) Variant() (game.Variant, error) {
	return game.ParseVariant(c.Table.Variant)
}

// Delays converts the pacing block to game delays
func (c *Config) Delays() game.Delays {
	return game.Delays{
		AI:      time.Duration(c.Pacing.AIDelayMS) * time.Millisecond,
		Dealer:  time.Duration(c.Pacing.DealerDelayMS) * time.Millisecond,
		Shuffle: time.Duration(c.Pacing.ShuffleDelayMS) * time.Millisecond,
	}
}

// TableOptions returns the table options described by the table and pacing
// blocks
func (c *Config) TableOptions() []game.TableOption {
	return []game.TableOption{
		game.WithDecks(c.Table.Decks),
		game.WithAIPlayers(c.Table.AIPlayers),
		game.WithPlayerName(c.Table.PlayerName),
		game.WithAutoBet(c.Table.AutoBet),
		game.WithDelays(c.Delays()),
	}
}

// ServerAddress returns the full listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
