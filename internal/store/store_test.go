package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ game.BankrollStore = (*Bankrolls)(nil)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func openAll(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()
	file, err := Open(DriverFile, filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	db, err := Open(DriverSQLite, filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	mem, err := Open(DriverMemory, "")
	require.NoError(t, err)

	kvs := map[string]KV{DriverMemory: mem, DriverFile: file, DriverSQLite: db}
	t.Cleanup(func() {
		for _, kv := range kvs {
			kv.Close()
		}
	})
	return kvs
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Put(ctx, "a", []byte(`{"x":1}`)))
			v, ok, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"x":1}`, string(v))

			require.NoError(t, kv.Put(ctx, "a", []byte(`2`)))
			v, _, err = kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "2", string(v))

			require.NoError(t, kv.Delete(ctx, "a"))
			_, ok, err = kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Delete(ctx, "never-set"))
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}

func TestMemoryKVClosed(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Close())
	_, _, err := kv.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, kv.Put(context.Background(), "a", nil), ErrClosed)
}

func TestFileKVPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	kv, err := OpenFileKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "termsAccepted", []byte("true")))
	assert.Error(t, kv.Put(ctx, "bad", []byte("{not json")))
	require.NoError(t, kv.Close())

	kv, err = OpenFileKV(path)
	require.NoError(t, err)
	v, ok, err := kv.Get(ctx, "termsAccepted")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", string(v))
	_, ok, _ = kv.Get(ctx, "bad")
	assert.False(t, ok)
}

func TestSQLiteKVPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	kv, err := OpenSQLiteKV(path)
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "k", []byte("v")))
	require.NoError(t, kv.Close())

	kv, err = OpenSQLiteKV(path)
	require.NoError(t, err)
	defer kv.Close()
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestBankrollsTerms(t *testing.T) {
	ctx := context.Background()
	b := NewBankrolls(NewMemoryKV(), quartz.NewMock(t), testLogger())

	assert.False(t, b.TermsAccepted(ctx))
	require.NoError(t, b.AcceptTerms(ctx))
	assert.True(t, b.TermsAccepted(ctx))
}

func TestBankrollsCoinsExpire(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	kv := NewMemoryKV()
	b := NewBankrolls(kv, clock, testLogger())

	_, ok := b.LoadCoins(ctx, "regular")
	assert.False(t, ok)

	coins := map[string]int{"seat1": 55, "seat2": 0}
	require.NoError(t, b.SaveCoins(ctx, "regular", coins))

	got, ok := b.LoadCoins(ctx, "regular")
	require.True(t, ok)
	assert.Equal(t, coins, got)

	_, ok = b.LoadCoins(ctx, "switch")
	assert.False(t, ok, "variants are stored separately")

	stored := kv.Dump()
	assert.Contains(t, stored, "playerCoins:regular")
	assert.Contains(t, string(stored["playerCoins:regular"]), `"timestamp":`)

	clock.Advance(CoinsTTL - time.Minute)
	_, ok = b.LoadCoins(ctx, "regular")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = b.LoadCoins(ctx, "regular")
	assert.False(t, ok, "saved coins expire after a day")
}

func TestBankrollsLocksDropExpired(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	b := NewBankrolls(NewMemoryKV(), clock, testLogger())

	now := clock.Now()
	require.NoError(t, b.SaveLocks(ctx, "switch", map[string]time.Time{
		"seat2": now.Add(2 * time.Hour),
		"seat3": now.Add(30 * time.Minute),
	}))

	locks := b.LoadLocks(ctx, "switch")
	require.Len(t, locks, 2)
	assert.WithinDuration(t, now.Add(2*time.Hour), locks["seat2"], time.Millisecond)

	clock.Advance(time.Hour)
	locks = b.LoadLocks(ctx, "switch")
	assert.Len(t, locks, 1)
	assert.Contains(t, locks, "seat2")

	assert.Nil(t, b.LoadLocks(ctx, "regular"))
}

func TestBankrollsCorruptValueIsNothingSaved(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Put(ctx, "playerCoins:regular", []byte("not json")))
	require.NoError(t, kv.Put(ctx, "lockedPlayers:regular", []byte(`["seat1"]`)))

	b := NewBankrolls(kv, quartz.NewMock(t), testLogger())
	_, ok := b.LoadCoins(ctx, "regular")
	assert.False(t, ok)
	assert.Nil(t, b.LoadLocks(ctx, "regular"))
}
