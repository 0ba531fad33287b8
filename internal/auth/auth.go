// Package auth implements the login gate. There is no credential check: any
// non-empty email signs the user in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/state"
)

// ErrEmptyEmail is returned by Login for a blank email address.
var ErrEmptyEmail = errors.New("email must not be empty")

// Gate stores the login flag and email in the state backend.
type Gate struct {
	backend state.Backend
}

// NewGate creates a gate backed by b.
func NewGate(b state.Backend) *Gate {
	return &Gate{backend: b}
}

// Login marks the user as authenticated.
func (g *Gate) Login(ctx context.Context, email string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Session{}, ErrEmptyEmail
	}

	if err := g.backend.Put(ctx, state.KeyIsAuthenticated, []byte("true")); err != nil {
		return models.Session{}, fmt.Errorf("store login flag: %w", err)
	}
	if err := state.PutJSON(ctx, g.backend, state.KeyUserEmail, email); err != nil {
		return models.Session{}, fmt.Errorf("store email: %w", err)
	}
	return models.Session{Authenticated: true, Email: email}, nil
}

// Logout removes the login flag and email.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.backend.Delete(ctx, state.KeyIsAuthenticated); err != nil {
		return fmt.Errorf("clear login flag: %w", err)
	}
	if err := g.backend.Delete(ctx, state.KeyUserEmail); err != nil {
		return fmt.Errorf("clear email: %w", err)
	}
	return nil
}

// Status reads the current session. A missing or unreadable flag means
// signed out.
func (g *Gate) Status(ctx context.Context) (models.Session, error) {
	var flag bool
	err := state.GetJSON(ctx, g.backend, state.KeyIsAuthenticated, &flag)
	switch {
	case errors.Is(err, state.ErrNotFound), errors.Is(err, state.ErrInvalidValue):
		return models.Session{}, nil
	case err != nil:
		return models.Session{}, fmt.Errorf("read login flag: %w", err)
	case !flag:
		return models.Session{}, nil
	}

	s := models.Session{Authenticated: true}
	if err := state.GetJSON(ctx, g.backend, state.KeyUserEmail, &s.Email); err != nil && !errors.Is(err, state.ErrNotFound) {
		return s, fmt.Errorf("read email: %w", err)
	}
	return s, nil
}
