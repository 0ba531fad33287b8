package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/knowbot/internal/state"
	"github.com/surrealdb/surrealdb.go"
)

var _ state.Backend = (*Client)(nil)

type stateRow struct {
	Value string `json:"value"`
}

// Get returns the JSON value stored under key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	results, err := surrealdb.Query[[]stateRow](ctx, c.db, `
		SELECT value FROM type::record("app_state", $key)
	`, map[string]any{"key": key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: %s", state.ErrNotFound, key)
	}
	return []byte((*results)[0].Result[0].Value), nil
}

// Put upserts the JSON value for key, retrying transaction conflicts.
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	err := retryOnConflict(ctx, conflictAttempts, conflictBackoff, func() error {
		_, err := surrealdb.Query[any](ctx, c.db, `
			UPSERT type::record("app_state", $key) SET value = $value, updated = time::now()
		`, map[string]any{"key": key, "value": string(value)})
		return wrapQueryError(err)
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("app_state", $key)
	`, map[string]any{"key": key})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, wrapQueryError(err))
	}
	return nil
}
