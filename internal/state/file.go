package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCorrupt indicates that a state file exists but cannot be decoded.
var ErrCorrupt = errors.New("state file corrupt")

// FileBackend stores all keys in one JSON object on disk. Every write
// rewrites the file atomically (temp file + rename).
type FileBackend struct {
	mu     sync.RWMutex
	path   string
	values map[string]json.RawMessage
}

// NewFileBackend opens or creates the state file at path.
func NewFileBackend(path string) (*FileBackend, error) {
	b := &FileBackend{
		path:   path,
		values: make(map[string]json.RawMessage),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

// QuarantineCorrupt moves an undecodable state file out of the way so a fresh
// one can be created. Returns the new location.
func QuarantineCorrupt(path string) (string, error) {
	dest := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixMilli())
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}
	return dest, nil
}

// Path returns the file location.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (b *FileBackend) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("put %s: value is not valid JSON", key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = append(json.RawMessage(nil), value...)
	return b.saveLocked()
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	return b.saveLocked()
}

func (b *FileBackend) Close(context.Context) error { return nil }

func (b *FileBackend) load() error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &b.values); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, b.path, err)
	}
	return nil
}

func (b *FileBackend) saveLocked() error {
	data, err := json.MarshalIndent(b.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmpPath := b.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
