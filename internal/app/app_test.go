package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/config"
	"github.com/raphaelgruber/knowbot/internal/service"
	"github.com/raphaelgruber/knowbot/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWithFileBackend(t *testing.T) {
	cfg := config.Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")

	a, err := New(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.NotEmpty(t, a.Workspace.Conversations(service.AllConversations))
	assert.FileExists(t, cfg.StatePath)
}

func TestOpenBackendQuarantinesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.StatePath = filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(cfg.StatePath, []byte("{broken"), 0o644))

	b, err := OpenBackend(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer b.Close(context.Background())

	_, err = b.Get(context.Background(), state.KeyConversations)
	assert.ErrorIs(t, err, state.ErrNotFound)

	matches, err := filepath.Glob(filepath.Join(dir, "state.json.corrupt-*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestOpenBackendSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.StateBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "state.db")

	b, err := OpenBackend(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer b.Close(context.Background())

	require.NoError(t, b.Put(context.Background(), "k", []byte(`1`)))
}

func TestOpenBackendUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.StateBackend = "floppy"

	_, err := OpenBackend(context.Background(), cfg, testLogger())
	assert.Error(t, err)
}

func TestNewResponder(t *testing.T) {
	cfg := config.Default()

	r, err := NewResponder(cfg)
	require.NoError(t, err)
	assert.IsType(t, service.StaticResponder{}, r)

	cfg.Responder = "oracle"
	_, err = NewResponder(cfg)
	assert.Error(t, err)
}

func TestWipeState(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.StateBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "state.db")

	a, err := New(ctx, cfg, testLogger())
	require.NoError(t, err)
	_, err = a.Gate.Login(ctx, "ops@example.com")
	require.NoError(t, err)
	require.NoError(t, a.Close(ctx))

	require.NoError(t, WipeState(ctx, cfg, testLogger()))

	b, err := OpenBackend(ctx, cfg, testLogger())
	require.NoError(t, err)
	defer b.Close(ctx)
	for _, key := range state.Keys {
		_, err := b.Get(ctx, key)
		assert.ErrorIs(t, err, state.ErrNotFound, key)
	}
}
