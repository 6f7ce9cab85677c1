// Package store persists bankrolls, lockouts and the terms flag in a small
// key/value store. Three backends are available: in memory, a single JSON
// file, and SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store closed")

// KV is the storage a Bankrolls bridge sits on
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Drivers lists the accepted driver names
func Drivers() []string {
	return []string{DriverMemory, DriverFile, DriverSQLite}
}

// Open returns a KV for driver. path is ignored for the memory driver.
func Open(driver, path string) (KV, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryKV(), nil
	case DriverFile:
		return OpenFileKV(path)
	case DriverSQLite:
		return OpenSQLiteKV(path)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

// MemoryKV keeps values in a map. It is safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Dump returns a copy of the stored keys and values
func (m *MemoryKV) Dump() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}
