package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	conflict := fmt.Errorf("%w: busy", ErrTransactionConflict)
	other := errors.New("boom")

	tests := []struct {
		name      string
		results   []error
		wantErr   error
		wantCalls int
	}{
		{"succeeds first time", []error{nil}, nil, 1},
		{"succeeds after conflicts", []error{conflict, conflict, nil}, nil, 3},
		{"gives up after attempts", []error{conflict, conflict, conflict, nil}, ErrTransactionConflict, 3},
		{"other errors are not retried", []error{other, nil}, other, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryOnConflict(context.Background(), 3, time.Millisecond, func() error {
				err := tt.results[calls]
				calls++
				return err
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRetryOnConflictStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryOnConflict(ctx, 5, time.Hour, func() error {
		calls++
		return ErrTransactionConflict
	})
	assert.ErrorIs(t, err, ErrTransactionConflict)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
