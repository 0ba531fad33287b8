package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/state"
)

func TestGateLoginLogout(t *testing.T) {
	ctx := context.Background()
	backend := state.NewMemoryBackend()
	g := NewGate(backend)

	s, err := g.Status(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated)

	_, err = g.Login(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	s, err = g.Login(ctx, " jane@example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.Session{Authenticated: true, Email: "jane@example.com"}, s)

	raw, err := backend.Get(ctx, state.KeyIsAuthenticated)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	s, err = g.Status(ctx)
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "jane@example.com", s.Email)

	require.NoError(t, g.Logout(ctx))
	s, err = g.Status(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated)
	assert.Empty(t, s.Email)
}

func TestGateIgnoresGarbageFlag(t *testing.T) {
	ctx := context.Background()
	backend := state.NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, state.KeyIsAuthenticated, []byte(`"yes"`)))

	s, err := NewGate(backend).Status(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated)
}
