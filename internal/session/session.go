// Package session holds the signed-in identity and gates every mutating or
// personalised operation on it.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Danikxd/maturita-web/internal/apperr"
	"github.com/Danikxd/maturita-web/internal/identity"
	"github.com/Danikxd/maturita-web/internal/models"
	"github.com/Danikxd/maturita-web/internal/store"
	"golang.org/x/oauth2"
)

// Gate is satisfied by anything that can hand out a live session.
type Gate interface {
	RequireSession(ctx context.Context) (models.Session, error)
}

// Store persists the current session between process runs.
type Store interface {
	SaveSession(ctx context.Context, s models.Session) error
	LoadSession(ctx context.Context) (models.Session, error)
	ClearSession(ctx context.Context) error
}

// Manager owns the current session. It is safe for concurrent use.
type Manager struct {
	provider identity.Provider
	store    Store

	refreshMu sync.Mutex // one refresh at a time; refresh tokens rotate

	mu      sync.Mutex
	current *models.Session
	subs    map[int]func(*models.Session)
	nextSub int
}

// NewManager creates a Manager. store may be nil when nothing should persist.
func NewManager(provider identity.Provider, store Store) *Manager {
	return &Manager{
		provider: provider,
		store:    store,
		subs:     make(map[int]func(*models.Session)),
	}
}

// Restore loads a previously saved session. It returns false when none exists.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.store == nil {
		return false, nil
	}
	s, err := m.store.LoadSession(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.AccessToken == "" {
		return false, nil
	}
	m.set(ctx, &s)
	return true, nil
}

// SignIn authenticates with the identity provider and makes the result current.
func (m *Manager) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	s, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return models.Session{}, err
	}
	m.set(ctx, &s)
	return s, nil
}

// SignUp registers an account. When the provider returns a session right
// away it becomes current; otherwise the user must confirm and sign in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (identity.SignUpResult, error) {
	res, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return identity.SignUpResult{}, err
	}
	if res.Session != nil {
		s := *res.Session
		m.set(ctx, &s)
	}
	return res, nil
}

// SignOut revokes the session remotely (best effort) and forgets it locally.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return nil
	}
	if err := m.provider.SignOut(ctx, cur.AccessToken); err != nil {
		log.Printf("session: remote sign-out: %v", err)
	}
	m.set(ctx, nil)
	return nil
}

// GetSession returns the current session without refreshing it.
func (m *Manager) GetSession() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

// GetUser asks the identity provider for the account behind the session.
func (m *Manager) GetUser(ctx context.Context) (models.User, error) {
	s, err := m.RequireSession(ctx)
	if err != nil {
		return models.User{}, err
	}
	return m.provider.GetUser(ctx, s.AccessToken)
}

// OnSessionChange registers fn to be called with the new session, or nil
// after sign-out or expiry. The returned func unsubscribes.
func (m *Manager) OnSessionChange(fn func(*models.Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// RequireSession returns a live session, refreshing an expired access token
// through the identity provider. It fails with an Unauthenticated error when
// nobody is signed in or the refresh is rejected; a rejected refresh also
// ends the session.
func (m *Manager) RequireSession(ctx context.Context) (models.Session, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return models.Session{}, apperr.Unauthenticated("not signed in")
	}

	src := oauth2.ReuseTokenSource(toToken(*cur), &refresher{ctx: ctx, provider: m.provider, current: *cur})
	tok, err := src.Token()
	if err != nil {
		if errors.Is(err, apperr.ErrNetworkUnavailable) {
			return models.Session{}, err
		}
		log.Printf("session: refresh failed, signing out: %v", err)
		m.set(ctx, nil)
		return models.Session{}, apperr.Unauthenticated("session expired")
	}
	if tok.AccessToken == cur.AccessToken {
		return *cur, nil
	}

	next := fromToken(tok, *cur)
	m.set(ctx, &next)
	return next, nil
}

// set replaces the current session, persists it and notifies subscribers.
func (m *Manager) set(ctx context.Context, s *models.Session) {
	m.mu.Lock()
	m.current = s
	subs := make([]func(*models.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if m.store != nil {
		var err error
		if s == nil {
			err = m.store.ClearSession(ctx)
		} else {
			err = m.store.SaveSession(ctx, *s)
		}
		if err != nil {
			log.Printf("session: persist: %v", err)
		}
	}
	for _, fn := range subs {
		if s == nil {
			fn(nil)
			continue
		}
		cp := *s
		fn(&cp)
	}
}
