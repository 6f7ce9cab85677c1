package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// CoinsTTL is how long saved bankrolls stay valid
const CoinsTTL = 24 * time.Hour

const termsKey = "termsAccepted"

func locksKey(variant string) string { return "lockedPlayers:" + variant }
func coinsKey(variant string) string { return "playerCoins:" + variant }

// savedCoins is the stored form of a bankroll map. Timestamp is in Unix
// milliseconds.
type savedCoins struct {
	Timestamp int64          `json:"timestamp"`
	Coins     map[string]int `json:"coins"`
}

// Bankrolls reads and writes per-variant bankrolls and lockouts. Read
// failures, corrupt values and expired entries are logged and treated as
// nothing saved.
type Bankrolls struct {
	kv     KV
	clock  quartz.Clock
	logger *log.Logger
}

func NewBankrolls(kv KV, clock quartz.Clock, logger *log.Logger) *Bankrolls {
	return &Bankrolls{kv: kv, clock: clock, logger: logger.WithPrefix("store")}
}

// TermsAccepted reports whether the player has accepted the terms
func (b *Bankrolls) TermsAccepted(ctx context.Context) bool {
	var accepted bool
	return b.read(ctx, termsKey, &accepted) && accepted
}

// AcceptTerms records acceptance of the terms
func (b *Bankrolls) AcceptTerms(ctx context.Context) error {
	return b.write(ctx, termsKey, true)
}

// LoadLocks returns the unexpired lockouts for variant
func (b *Bankrolls) LoadLocks(ctx context.Context, variant string) map[string]time.Time {
	var stored map[string]int64
	if !b.read(ctx, locksKey(variant), &stored) {
		return nil
	}
	now := b.clock.Now()
	locks := make(map[string]time.Time, len(stored))
	for id, ms := range stored {
		until := time.UnixMilli(ms)
		if until.After(now) {
			locks[id] = until
		}
	}
	return locks
}

// SaveLocks replaces the lockouts stored for variant
func (b *Bankrolls) SaveLocks(ctx context.Context, variant string, locks map[string]time.Time) error {
	stored := make(map[string]int64, len(locks))
	for id, until := range locks {
		stored[id] = until.UnixMilli()
	}
	return b.write(ctx, locksKey(variant), stored)
}

// LoadCoins returns the bankrolls saved for variant in the last CoinsTTL
func (b *Bankrolls) LoadCoins(ctx context.Context, variant string) (map[string]int, bool) {
	var saved savedCoins
	if !b.read(ctx, coinsKey(variant), &saved) {
		return nil, false
	}
	age := b.clock.Since(time.UnixMilli(saved.Timestamp))
	if age >= CoinsTTL || saved.Coins == nil {
		b.logger.Debug("Saved bankrolls expired", "variant", variant, "age", age)
		return nil, false
	}
	return saved.Coins, true
}

// SaveCoins stores coins for variant stamped with the current time
func (b *Bankrolls) SaveCoins(ctx context.Context, variant string, coins map[string]int) error {
	return b.write(ctx, coinsKey(variant), savedCoins{
		Timestamp: b.clock.Now().UnixMilli(),
		Coins:     coins,
	})
}

func (b *Bankrolls) read(ctx context.Context, key string, v any) bool {
	data, ok, err := b.kv.Get(ctx, key)
	if err != nil {
		b.logger.Warn("Failed to read saved state", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		b.logger.Warn("Discarding corrupt saved state", "key", key, "error", err)
		return false
	}
	return true
}

func (b *Bankrolls) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return b.kv.Put(ctx, key, data)
}
