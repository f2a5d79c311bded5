// Package auth tracks whether the current session may use the admin area.
package auth

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/models"
	"log/slog"
	"sync"
)

// State is the session state as the client currently believes it
type State int

const (
	// Unknown is the state before the first status check
	Unknown State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginPath is where protected views send unauthenticated users
const LoginPath = "/admin/login"

// Backend is the part of the gateway the gate talks to
type Backend interface {
	FetchCSRFToken(ctx context.Context) (string, error)
	AuthStatus(ctx context.Context) (*models.AuthStatus, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
}

// RedirectError is returned by Require when the session is not authenticated.
// From is the location to return to after a successful login.
type RedirectError struct {
	Login string
	From  string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s: login at %s to continue to %s", models.ErrAuth, e.Login, e.From)
}

func (e *RedirectError) Is(target error) bool {
	return target == models.ErrAuth
}

// Listener is called after every state change
type Listener func(from, to State, user *models.User)

// Gate is the session state machine. It is safe for concurrent use.
type Gate struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	user      *models.User
	csrfToken string
	csrfErr   error
	listeners []Listener
}

// NewGate creates a gate in the Unknown state
func NewGate(backend Backend, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{backend: backend, logger: logger}
}

// OnChange registers a listener for state changes
func (g *Gate) OnChange(l Listener) {
	g.mu.Lock()
	g.listeners = append(g.listeners, l)
	g.mu.Unlock()
}

// Start fetches the CSRF token and checks the session. A failed CSRF fetch is
// remembered, not returned: reads still work and mutations fail with ErrAuth.
// A failed status check leaves the gate Anonymous.
func (g *Gate) Start(ctx context.Context) error {
	token, err := g.backend.FetchCSRFToken(ctx)
	g.mu.Lock()
	g.csrfToken, g.csrfErr = token, err
	g.mu.Unlock()
	if err != nil {
		g.logger.Warn("could not fetch CSRF token", "error", err)
	}

	status, err := g.backend.AuthStatus(ctx)
	if err != nil {
		g.transition(Anonymous, nil)
		return fmt.Errorf("checking session: %w", err)
	}

	if status.IsAuthenticated {
		g.transition(Authenticated, status.User)
	} else {
		g.transition(Anonymous, nil)
	}
	return nil
}

// Login authenticates. On failure the gate is Anonymous with no user.
func (g *Gate) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := g.csrfError(); err != nil {
		g.transition(Anonymous, nil)
		return nil, err
	}

	user, err := g.backend.Login(ctx, email, password)
	if err != nil {
		g.transition(Anonymous, nil)
		return nil, err
	}

	g.transition(Authenticated, user)
	return user, nil
}

// Logout ends the session. The gate is Anonymous afterwards even when the
// backend call fails; that error is logged and returned for information only.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.backend.Logout(ctx)
	if err != nil {
		g.logger.Warn("server logout failed", "error", err)
	}
	g.transition(Anonymous, nil)
	return err
}

// Require returns a *RedirectError unless the session is authenticated
func (g *Gate) Require(location string) error {
	if g.State() == Authenticated {
		return nil
	}
	return &RedirectError{Login: LoginPath, From: location}
}

// Observe inspects an error from a protected operation. An auth error means
// the server no longer accepts the session, so the gate drops to Anonymous.
func (g *Gate) Observe(err error) {
	if err == nil || !errors.Is(err, models.ErrAuth) {
		return
	}
	var redirect *RedirectError
	if errors.As(err, &redirect) {
		return
	}
	g.logger.Debug("session rejected by backend", "error", err)
	g.transition(Anonymous, nil)
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// User returns the authenticated user, or nil
func (g *Gate) User() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// CSRFToken returns the token fetched at start, or "" if that failed
func (g *Gate) CSRFToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.csrfToken
}

func (g *Gate) csrfError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.csrfErr == nil {
		return nil
	}
	return fmt.Errorf("%w: no CSRF token: %v", models.ErrAuth, g.csrfErr)
}

func (g *Gate) transition(to State, user *models.User) {
	g.mu.Lock()
	from := g.state
	g.state = to
	g.user = user
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	if from == to {
		return
	}
	g.logger.Debug("auth state changed", "from", from, "to", to)
	for _, l := range listeners {
		l(from, to, user)
	}
}
