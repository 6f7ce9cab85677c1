package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lox/blackjackstats/internal/fileutil"
)

// FileKV keeps every key in one JSON document on disk. The whole document
// is rewritten atomically on each change, so values must be valid JSON.
type FileKV struct {
	mu     sync.Mutex
	path   string
	data   map[string]json.RawMessage
	closed bool
}

// OpenFileKV loads path if it exists. A missing file is an empty store.
func OpenFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, fmt.Errorf("file storage needs a path")
	}
	f := &FileKV{path: path, data: make(map[string]json.RawMessage)}
	if _, err := fileutil.ReadJSON(path, &f.data); err != nil {
		return nil, err
	}
	if f.data == nil {
		f.data = make(map[string]json.RawMessage)
	}
	return f, nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false, ErrClosed
	}
	v, ok := f.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (f *FileKV) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	f.data[key] = append(json.RawMessage(nil), value...)
	if err := fileutil.WriteJSON(f.path, f.data); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := fileutil.WriteJSON(f.path, f.data); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *FileKV) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
