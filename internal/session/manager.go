// Package session keeps the authenticated identity of this device in the
// key-value store and notifies subscribers when it changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"edublog/internal/domain"
	"edublog/internal/events"
	"edublog/internal/validate"
)

const (
	KeyToken = "accessToken"
	KeyName  = "accountName"
	KeyEmail = "accountEmail"
)

type LoginForm struct {
	Email  string `json:"email" validate:"notblank"`
	Secret string `json:"password" validate:"notblank"`
}

type Manager struct {
	store  Store
	auth   Authenticator
	bus    *events.Bus[domain.Event]
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a session manager. A nil bus gets a private one.
func NewManager(store Store, auth Authenticator, bus *events.Bus[domain.Event], logger *slog.Logger) *Manager {
	if bus == nil {
		bus = events.NewBus[domain.Event]()
	}

	return &Manager{
		store:  store,
		auth:   auth,
		bus:    bus,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
}

// Login checks the credentials with the backend and stores the session.
// Rejected credentials clear form.Secret and leave any stored session alone.
func (m *Manager) Login(ctx context.Context, form *LoginForm) (*domain.Session, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(form.Email)

	res, err := m.auth.Login(ctx, email, form.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			form.Secret = ""
		}
		m.logger.Warn("login failed", "email", email, "error", err)
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := m.save(ctx, res); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.logger.Info("logged in", "email", res.Email)
	m.bus.Publish(domain.Event{
		Kind:  domain.EventLogin,
		Actor: res.Email,
		At:    m.now().UTC(),
	})

	return &domain.Session{Token: res.Token, Name: res.Name, Email: res.Email}, nil
}

func (m *Manager) save(ctx context.Context, res *domain.LoginResult) error {
	entries := []struct{ key, value string }{
		{KeyToken, res.Token},
		{KeyName, res.Name},
		{KeyEmail, res.Email},
	}

	written := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := m.store.Set(ctx, e.key, e.value); err != nil {
			if len(written) > 0 {
				if rerr := m.store.Remove(ctx, written...); rerr != nil {
					m.logger.Error("failed to roll back partial session", "keys", written, "error", rerr)
				}
			}
			return fmt.Errorf("set %s: %w", e.key, err)
		}
		written = append(written, e.key)
	}
	return nil
}

// Logout removes the stored session. Logging out while anonymous is not an
// error.
func (m *Manager) Logout(ctx context.Context) error {
	cur, err := m.Current(ctx)
	if err != nil {
		return err
	}

	if err := m.store.Remove(ctx, KeyToken, KeyName, KeyEmail); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}

	ev := domain.Event{Kind: domain.EventLogout, At: m.now().UTC()}
	if cur != nil {
		ev.Actor = cur.Email
	}

	m.logger.Info("logged out", "email", ev.Actor)
	m.bus.Publish(ev)
	return nil
}

// Current returns the stored session, or nil when no token is held.
func (m *Manager) Current(ctx context.Context) (*domain.Session, error) {
	token, err := m.Token(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	s := &domain.Session{Token: token}
	if s.Name, _, err = m.store.Get(ctx, KeyName); err != nil {
		return nil, fmt.Errorf("get %s: %w", KeyName, err)
	}
	if s.Email, _, err = m.store.Get(ctx, KeyEmail); err != nil {
		return nil, fmt.Errorf("get %s: %w", KeyEmail, err)
	}
	return s, nil
}

// Token returns the stored bearer token or "".
func (m *Manager) Token(ctx context.Context) (string, error) {
	return Tokens{Store: m.store}.Token(ctx)
}

// Tokens reads the bearer token straight from a store. It lets the backend
// client be built before the Manager that authenticates through it.
type Tokens struct {
	Store Store
}

func (t Tokens) Token(ctx context.Context) (string, error) {
	token, _, err := t.Store.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", KeyToken, err)
	}
	return token, nil
}

// Subscribe registers fn for login and logout events.
func (m *Manager) Subscribe(fn func(domain.Event)) func() {
	return m.bus.Subscribe(fn)
}
