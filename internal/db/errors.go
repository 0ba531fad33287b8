package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// ErrTransactionConflict indicates a SurrealDB transaction conflict.
// Put retries writes that fail with it.
var ErrTransactionConflict = errors.New("transaction conflict")

// wrapQueryError maps known SurrealDB query errors onto sentinel errors.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) && strings.Contains(queryErr.Message, "Transaction conflict") {
		return fmt.Errorf("%w: %s", ErrTransactionConflict, queryErr.Message)
	}
	return err
}

const (
	conflictAttempts = 3
	conflictBackoff  = 50 * time.Millisecond
)

// retryOnConflict runs fn until it succeeds, fails with another error or
// attempts run out. The wait grows linearly with each attempt.
func retryOnConflict(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 1; ; i++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrTransactionConflict) || i >= attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(i) * backoff):
		}
	}
}
