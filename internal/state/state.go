// Package state persists the workspace as JSON values under well-known keys,
// the server-side counterpart of the browser's local storage.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted keys.
const (
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserEmail       = "userEmail"
	KeyConversations   = "conversations"
	KeyMessages        = "messages"
	KeyProjects        = "projects"
)

var (
	// ErrNotFound indicates that no value is stored under the key.
	ErrNotFound = errors.New("state key not found")

	// ErrInvalidValue indicates a stored value that does not decode into the
	// expected shape.
	ErrInvalidValue = errors.New("invalid state value")
)

// Backend stores raw JSON values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// GetJSON loads key and decodes it into dest.
// Returns ErrNotFound when the key is absent and ErrInvalidValue when the
// stored JSON does not fit dest.
func GetJSON(ctx context.Context, b Backend, key string, dest any) error {
	raw, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return nil
}

// PutJSON encodes value and stores it under key.
func PutJSON(ctx context.Context, b Backend, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Put(ctx, key, raw)
}

// Keys lists every persisted key.
var Keys = []string{KeyIsAuthenticated, KeyUserEmail, KeyConversations, KeyMessages, KeyProjects}

// wiper is implemented by backends that can drop all state in one call.
type wiper interface {
	WipeData(ctx context.Context) error
}

// Wipe removes every persisted key from b.
func Wipe(ctx context.Context, b Backend) error {
	if w, ok := b.(wiper); ok {
		return w.WipeData(ctx)
	}
	var errs []error
	for _, key := range Keys {
		if err := b.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
