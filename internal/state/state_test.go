package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendContract exercises the behaviour every Backend must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, KeyProjects)
	assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

	require.NoError(t, b.Put(ctx, KeyUserEmail, []byte(`"alex@example.com"`)))
	got, err := b.Get(ctx, KeyUserEmail)
	require.NoError(t, err)
	assert.JSONEq(t, `"alex@example.com"`, string(got))

	require.NoError(t, b.Put(ctx, KeyUserEmail, []byte(`"sam@example.com"`)))
	got, err = b.Get(ctx, KeyUserEmail)
	require.NoError(t, err)
	assert.JSONEq(t, `"sam@example.com"`, string(got))

	require.NoError(t, b.Delete(ctx, KeyUserEmail))
	_, err = b.Get(ctx, KeyUserEmail)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, b.Delete(ctx, "never-set"), "deleting an absent key is not an error")
}

func TestMemoryBackend(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "nested", "state.json"))
	require.NoError(t, err)
	backendContract(t, b)
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLiteBackend(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer b.Close(ctx)

	backendContract(t, b)
}

func TestFileBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	b, err := NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, PutJSON(ctx, b, KeyConversations, []map[string]any{{"id": "1", "title": "PTO"}}))

	reopened, err := NewFileBackend(path)
	require.NoError(t, err)

	var convs []map[string]any
	require.NoError(t, GetJSON(ctx, reopened, KeyConversations, &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, "PTO", convs[0]["title"])
}

func TestFileBackendRejectsInvalidJSON(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	err = b.Put(context.Background(), KeyProjects, []byte("{not json"))
	assert.Error(t, err)
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := NewFileBackend(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))

	moved, err := QuarantineCorrupt(path)
	require.NoError(t, err)
	assert.FileExists(t, moved)

	b, err := NewFileBackend(path)
	require.NoError(t, err, "a fresh file is created after quarantine")
	_, err = b.Get(context.Background(), KeyConversations)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetJSONDecodeError(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Put(ctx, KeyProjects, []byte(`"not a list"`)))

	var projects []map[string]any
	err := GetJSON(ctx, b, KeyProjects, &projects)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	for _, key := range Keys {
		require.NoError(t, b.Put(ctx, key, []byte(`true`)))
	}
	require.NoError(t, Wipe(ctx, b))

	for _, key := range Keys {
		_, err := b.Get(ctx, key)
		assert.True(t, errors.Is(err, ErrNotFound), key)
	}
}
