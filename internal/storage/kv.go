// Package storage persists the task collection as a single JSON value in a
// local key-value slot.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/nissyi-gh/taskmgr/internal/config"
)

// KV is a local key-value store holding string values.
type KV interface {
	// Get returns the value under key and whether it exists.
	Get(key string) (string, bool, error)
	// Set overwrites the value under key.
	Set(key, value string) error
	Close() error
}

// OpenKV opens the named backend. path is ignored for memory.
func OpenKV(backend, path string) (KV, error) {
	switch backend {
	case config.BackendSQLite:
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendFile:
		f, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Memory is an in-process KV. Its contents are lost on exit.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }

// File stores each slot as <dir>/<key>.json.
type File struct {
	dir string
}

// OpenFile uses dir for slot files, creating it if needed.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return string(data), true, nil
}

// Set replaces the slot file via a temp file and rename.
func (f *File) Set(key, value string) error {
	path := f.path(key)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(value), 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
